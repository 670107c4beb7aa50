// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"

	"github.com/veldlabs/veld/lvldb"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/veld"
)

func M(a ...any) []any {
	return a
}

// genesisTime is week aligned so decay numbers stay whole in tests.
const genesisTime = uint64(2650 * veld.Week)

// mockToken records transfers and optionally fails them.
type mockToken struct {
	held    map[veld.Address]*big.Int
	failIn  bool
	failOut bool
	onIn    func()
}

func newMockToken() *mockToken {
	return &mockToken{held: make(map[veld.Address]*big.Int)}
}

func (m *mockToken) heldBy(addr veld.Address) *big.Int {
	if v, ok := m.held[addr]; ok {
		return v
	}
	return new(big.Int)
}

func (m *mockToken) TransferIn(from veld.Address, amount *big.Int) error {
	if m.failIn {
		return errors.New("transfer rejected")
	}
	if m.onIn != nil {
		m.onIn()
	}
	m.held[from] = new(big.Int).Add(m.heldBy(from), amount)
	return nil
}

func (m *mockToken) TransferOut(to veld.Address, amount *big.Int) error {
	if m.failOut {
		return errors.New("transfer rejected")
	}
	m.held[to] = new(big.Int).Sub(m.heldBy(to), amount)
	return nil
}

// mockApprover approves a fixed set of contract callers.
type mockApprover struct {
	approved map[veld.Address]bool
}

func newMockApprover() *mockApprover {
	return &mockApprover{approved: make(map[veld.Address]bool)}
}

func (m *mockApprover) IsApproved(addr veld.Address) (bool, error) {
	return m.approved[addr], nil
}

// fixture hosts an engine over an in-memory state with a manual clock.
type fixture struct {
	esc      *Escrow
	token    *mockToken
	approver *mockApprover
	now      uint64
	number   uint32
}

func newFixture(t *testing.T) *fixture {
	store, err := lvldb.NewMem()
	if err != nil {
		t.Fatal(err)
	}
	st := state.New(store)
	token := newMockToken()
	approver := newMockApprover()
	f := &fixture{
		esc:      New(veld.BytesToAddress([]byte("escrow")), st, token, approver),
		token:    token,
		approver: approver,
		now:      genesisTime,
		number:   1000,
	}
	if err := f.esc.Initialize(f.env(veld.Address{})); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) env(caller veld.Address) *Env {
	return &Env{Time: f.now, Number: f.number, Caller: caller, Origin: caller}
}

func (f *fixture) contractEnv(caller, origin veld.Address) *Env {
	return &Env{Time: f.now, Number: f.number, Caller: caller, Origin: origin}
}

// advance moves the clock forward, deriving the block count from the
// block interval.
func (f *fixture) advance(dt uint64) {
	f.now += dt
	f.number += uint32(dt / veld.BlockInterval)
}

func (f *fixture) maxUnlock() uint64 {
	return roundDownWeek(f.now + veld.MaxLockTime)
}
