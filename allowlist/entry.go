// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allowlist

import (
	"github.com/veldlabs/veld/veld"
)

// entry is a node of the approved-caller list, linked by address.
type entry struct {
	Identity veld.Bytes32
	Prev     *veld.Address `rlp:"nil"`
	Next     *veld.Address `rlp:"nil"`
}

func (e *entry) IsEmpty() bool {
	return e.Identity.IsZero() &&
		e.Prev == nil &&
		e.Next == nil
}

func (e *entry) IsLinked() bool {
	return e.Prev != nil || e.Next != nil
}

// Approved is a listed caller exported for enumeration.
type Approved struct {
	Address  veld.Address
	Identity veld.Bytes32
}
