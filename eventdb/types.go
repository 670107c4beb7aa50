// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"fmt"
	"math/big"

	"github.com/veldlabs/veld/veld"
)

// Event is a stored escrow mutation record.
type Event struct {
	Kind        string
	Account     veld.Address
	Amount      *big.Int
	UnlockTime  uint64
	BlockTime   uint64
	BlockNumber uint32
	SupplyAfter *big.Int
}

func (ev *Event) String() string {
	return fmt.Sprintf(`
		Event(
			kind:        %v,
			account:     %v,
			amount:      %v,
			unlockTime:  %v,
			blockTime:   %v,
			blockNumber: %v,
			supplyAfter: %v,)`,
		ev.Kind,
		ev.Account,
		ev.Amount,
		ev.UnlockTime,
		ev.BlockTime,
		ev.BlockNumber,
		ev.SupplyAfter)
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds a filter by block number or block time.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

// Options pages filter results.
type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects stored events.
type Filter struct {
	Account *veld.Address
	Kind    *string
	Range   *Range
	Options *Options
	Order   Order // default asc
}
