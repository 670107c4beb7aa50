// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/storage"
	"github.com/veldlabs/veld/veld"
)

var (
	slotPointHistory     = storage.NameToSlot("point-history")
	slotUserPointHistory = storage.NameToSlot("user-point-history")
	slotUserPointEpoch   = storage.NameToSlot("user-point-epoch")
	slotSlopeChanges     = storage.NameToSlot("slope-changes")
	slotLocked           = storage.NameToSlot("locked-balances")
	slotSupply           = storage.NameToSlot("supply")
	slotEpoch            = storage.NameToSlot("epoch")
)

// epochKey keys a history log by epoch index.
type epochKey uint64

func (k epochKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// timeKey keys the slope-change schedule by week-boundary timestamp.
type timeKey uint64

func (k timeKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// userEpochKey keys a per-account history log.
type userEpochKey struct {
	addr  veld.Address
	epoch uint64
}

func (k userEpochKey) Bytes() []byte {
	b := make([]byte, 0, veld.AddressLength+8)
	b = append(b, k.addr.Bytes()...)
	return binary.BigEndian.AppendUint64(b, k.epoch)
}

// ledger is the root storage of the escrow module: the lock ledger, both
// point history logs, the slope-change schedule and the running counters.
// History logs are append-only; entries are never rewritten.
type ledger struct {
	context          *storage.Context
	pointHistory     *storage.Mapping[epochKey, *Point]
	userPointHistory *storage.Mapping[userEpochKey, *Point]
	userPointEpoch   *storage.Mapping[veld.Address, uint64]
	slopeChanges     *storage.Mapping[timeKey, *big.Int]
	locked           *storage.Mapping[veld.Address, *LockedBalance]
	supply           *storage.Uint256
	epoch            *storage.Uint64
}

func newLedger(addr veld.Address, st *state.State) *ledger {
	context := storage.NewContext(addr, st)
	return &ledger{
		context:          context,
		pointHistory:     storage.NewMapping[epochKey, *Point](context, slotPointHistory),
		userPointHistory: storage.NewMapping[userEpochKey, *Point](context, slotUserPointHistory),
		userPointEpoch:   storage.NewMapping[veld.Address, uint64](context, slotUserPointEpoch),
		slopeChanges:     storage.NewMapping[timeKey, *big.Int](context, slotSlopeChanges),
		locked:           storage.NewMapping[veld.Address, *LockedBalance](context, slotLocked),
		supply:           storage.NewUint256(context, slotSupply),
		epoch:            storage.NewUint64(context, slotEpoch),
	}
}

func (l *ledger) GetPoint(epoch uint64) (*Point, error) {
	p, err := l.pointHistory.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get point")
	}
	return p.norm(), nil
}

func (l *ledger) SetPoint(epoch uint64, p *Point) error {
	if err := l.pointHistory.Set(epochKey(epoch), p); err != nil {
		return errors.Wrap(err, "failed to set point")
	}
	return nil
}

func (l *ledger) GetUserPoint(addr veld.Address, epoch uint64) (*Point, error) {
	p, err := l.userPointHistory.Get(userEpochKey{addr, epoch})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user point")
	}
	return p.norm(), nil
}

func (l *ledger) SetUserPoint(addr veld.Address, epoch uint64, p *Point) error {
	if err := l.userPointHistory.Set(userEpochKey{addr, epoch}, p); err != nil {
		return errors.Wrap(err, "failed to set user point")
	}
	return nil
}

func (l *ledger) GetUserEpoch(addr veld.Address) (uint64, error) {
	e, err := l.userPointEpoch.Get(addr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get user epoch")
	}
	return e, nil
}

func (l *ledger) SetUserEpoch(addr veld.Address, epoch uint64) error {
	if err := l.userPointEpoch.Set(addr, epoch); err != nil {
		return errors.Wrap(err, "failed to set user epoch")
	}
	return nil
}

// GetSlopeChange returns the magnitude of decay-rate reduction scheduled
// at the given week boundary, zero if none.
func (l *ledger) GetSlopeChange(t uint64) (*big.Int, error) {
	d, err := l.slopeChanges.Get(timeKey(t))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slope change")
	}
	return d, nil
}

func (l *ledger) SetSlopeChange(t uint64, d *big.Int) error {
	if err := l.slopeChanges.Set(timeKey(t), d); err != nil {
		return errors.Wrap(err, "failed to set slope change")
	}
	return nil
}

func (l *ledger) GetLocked(addr veld.Address) (*LockedBalance, error) {
	lb, err := l.locked.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get locked balance")
	}
	return lb.norm(), nil
}

func (l *ledger) SetLocked(addr veld.Address, lb *LockedBalance) error {
	if lb.IsEmpty() {
		if err := l.locked.Delete(addr); err != nil {
			return errors.Wrap(err, "failed to clear locked balance")
		}
		return nil
	}
	if err := l.locked.Set(addr, lb); err != nil {
		return errors.Wrap(err, "failed to set locked balance")
	}
	return nil
}

func (l *ledger) GetEpoch() (uint64, error) {
	e, err := l.epoch.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get epoch")
	}
	return e, nil
}

func (l *ledger) SetEpoch(epoch uint64) error {
	if err := l.epoch.Set(epoch); err != nil {
		return errors.Wrap(err, "failed to set epoch")
	}
	return nil
}

func (l *ledger) GetSupply() (*big.Int, error) {
	s, err := l.supply.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get supply")
	}
	return s, nil
}

func (l *ledger) SetSupply(s *big.Int) error {
	if err := l.supply.Set(s); err != nil {
		return errors.Wrap(err, "failed to set supply")
	}
	return nil
}
