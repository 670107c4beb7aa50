// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"github.com/ethereum/go-ethereum/common/math"

	engine "github.com/veldlabs/veld/escrow"
	"github.com/veldlabs/veld/veld"
)

// Lock is the lock state of an account plus its current voting power.
type Lock struct {
	Amount  *math.HexOrDecimal256 `json:"amount"`
	End     uint64                `json:"end"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// Balance is a voting power reading.
type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// Supply is a total voting power reading.
type Supply struct {
	Total  *math.HexOrDecimal256 `json:"total"`
	Locked *math.HexOrDecimal256 `json:"locked"`
}

// Epoch is the global checkpoint counter.
type Epoch struct {
	Epoch uint64 `json:"epoch"`
}

// CreateLockRequest creates a new lock.
type CreateLockRequest struct {
	Amount     *math.HexOrDecimal256 `json:"amount"`
	UnlockTime uint64                `json:"unlockTime"`
}

// DepositRequest adds tokens to an existing lock. When To is set the
// deposit goes to that account's lock instead of the caller's.
type DepositRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
	To     *veld.Address         `json:"to"`
}

// ExtendRequest moves a lock's expiry further out.
type ExtendRequest struct {
	UnlockTime uint64 `json:"unlockTime"`
}

// Event echoes a completed mutation.
type Event struct {
	Kind        string                `json:"kind"`
	Account     veld.Address          `json:"account"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	UnlockTime  uint64                `json:"unlockTime"`
	BlockTime   uint64                `json:"blockTime"`
	BlockNumber uint32                `json:"blockNumber"`
	SupplyAfter *math.HexOrDecimal256 `json:"supplyAfter"`
}

func convertEvent(ev *engine.Event) *Event {
	return &Event{
		Kind:        ev.Kind.String(),
		Account:     ev.Account,
		Amount:      (*math.HexOrDecimal256)(ev.Amount),
		UnlockTime:  ev.UnlockTime,
		BlockTime:   ev.Time,
		BlockNumber: ev.Block,
		SupplyAfter: (*math.HexOrDecimal256)(ev.SupplyAfter),
	}
}
