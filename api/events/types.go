// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/veldlabs/veld/eventdb"
	"github.com/veldlabs/veld/veld"
)

// Filter selects stored escrow events.
type Filter struct {
	Account *veld.Address    `json:"account"`
	Kind    *string          `json:"kind"`
	Range   *eventdb.Range   `json:"range"`
	Options *eventdb.Options `json:"options"`
	Order   eventdb.Order    `json:"order"`
}

// FilteredEvent is a stored escrow event in wire form.
type FilteredEvent struct {
	Kind        string                `json:"kind"`
	Account     veld.Address          `json:"account"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	UnlockTime  uint64                `json:"unlockTime"`
	BlockTime   uint64                `json:"blockTime"`
	BlockNumber uint32                `json:"blockNumber"`
	SupplyAfter *math.HexOrDecimal256 `json:"supplyAfter"`
}

func convertEvent(ev *eventdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Kind:        ev.Kind,
		Account:     ev.Account,
		Amount:      (*math.HexOrDecimal256)(ev.Amount),
		UnlockTime:  ev.UnlockTime,
		BlockTime:   ev.BlockTime,
		BlockNumber: ev.BlockNumber,
		SupplyAfter: (*math.HexOrDecimal256)(ev.SupplyAfter),
	}
}
