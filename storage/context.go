// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/veld"
)

// Context binds a module address to the world state. Every storage cell
// of a module derives its position from the module address plus a slot.
type Context struct {
	address veld.Address
	state   *state.State
}

func NewContext(address veld.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() veld.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// NameToSlot derives a storage slot from a human readable name.
func NameToSlot(name string) veld.Bytes32 {
	return veld.BytesToBytes32([]byte(name))
}
