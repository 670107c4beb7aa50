// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/veldlabs/veld/veld"
)

// Env is the execution context of a call: the current clock/chain reading
// and the identity of the caller. Time and Number must be monotonically
// non-decreasing across calls; block number has to correlate with time
// closely enough for linear interpolation to be meaningful.
type Env struct {
	Time   uint64 // current timestamp
	Number uint32 // current block number
	Caller veld.Address
	Origin veld.Address // the directly-signing actor
}

// IsContractCall returns whether the call was made through an
// intermediate contract rather than by the signing actor itself.
func (e *Env) IsContractCall() bool {
	return e.Caller != e.Origin
}

// TokenLedger moves the underlying fungible asset. A returned error
// aborts the whole mutating operation.
type TokenLedger interface {
	// TransferIn pulls amount from the given account into the escrow.
	TransferIn(from veld.Address, amount *big.Int) error
	// TransferOut pays amount out of the escrow to the given account.
	TransferOut(to veld.Address, amount *big.Int) error
}

// Approver checks whether a contract caller is allowed to hold a lock.
// It is consulted only when the caller is not the directly-signing actor.
type Approver interface {
	IsApproved(addr veld.Address) (bool, error)
}
