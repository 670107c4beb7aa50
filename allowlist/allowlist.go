// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package allowlist maintains the registry of contract callers approved to
// operate escrow locks. Entries form a linked list so they can be enumerated
// without an index.
package allowlist

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/storage"
	"github.com/veldlabs/veld/veld"
)

var (
	slotEntries  = storage.NameToSlot("entries")
	slotHead     = storage.NameToSlot("head")
	slotTail     = storage.NameToSlot("tail")
	slotExecutor = storage.NameToSlot("executor")
)

// Allowlist provides access to the approved-caller registry.
type Allowlist struct {
	addr     veld.Address
	state    *state.State
	context  *storage.Context
	entries  *storage.Mapping[veld.Address, *entry]
	executor *storage.AddressSlot
}

// New binds the registry to its module address within the given state.
func New(addr veld.Address, st *state.State) *Allowlist {
	context := storage.NewContext(addr, st)
	return &Allowlist{
		addr:     addr,
		state:    st,
		context:  context,
		entries:  storage.NewMapping[veld.Address, *entry](context, slotEntries),
		executor: storage.NewAddressSlot(context, slotExecutor),
	}
}

func (a *Allowlist) getEntry(addr veld.Address) (*entry, error) {
	e, err := a.entries.Get(addr)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return &entry{}, nil
	}
	return e, nil
}

func (a *Allowlist) setEntry(addr veld.Address, e *entry) error {
	if e.IsEmpty() {
		return a.entries.Delete(addr)
	}
	return a.entries.Set(addr, e)
}

func (a *Allowlist) getAddressPtr(key veld.Bytes32) (addr *veld.Address, err error) {
	err = a.state.DecodeStorage(a.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &addr)
	})
	return
}

func (a *Allowlist) setAddressPtr(key veld.Bytes32, addr *veld.Address) error {
	return a.state.EncodeStorage(a.addr, key, func() ([]byte, error) {
		if addr == nil {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr)
	})
}

// Initialize seeds the executor address. It is a no-op when an executor is
// already set.
func (a *Allowlist) Initialize(executor veld.Address) error {
	cur, err := a.executor.Get()
	if err != nil {
		return err
	}
	if !cur.IsZero() {
		return nil
	}
	return a.executor.Set(executor)
}

// Executor returns the address allowed to mutate the registry.
func (a *Allowlist) Executor() (veld.Address, error) {
	return a.executor.Get()
}

// IsApproved returns whether addr is listed.
func (a *Allowlist) IsApproved(addr veld.Address) (bool, error) {
	e, err := a.getEntry(addr)
	if err != nil {
		return false, err
	}
	if e.IsLinked() {
		return true, nil
	}
	// the only listed caller is not linked, check the head
	ptr, err := a.getAddressPtr(slotHead)
	if err != nil {
		return false, err
	}
	return ptr != nil && *ptr == addr, nil
}

// Get returns whether addr is listed, along with its identity.
func (a *Allowlist) Get(addr veld.Address) (listed bool, identity veld.Bytes32, err error) {
	e, err := a.getEntry(addr)
	if err != nil {
		return false, veld.Bytes32{}, err
	}
	if e.IsLinked() {
		return true, e.Identity, nil
	}
	ptr, err := a.getAddressPtr(slotHead)
	if err != nil {
		return false, veld.Bytes32{}, err
	}
	listed = ptr != nil && *ptr == addr
	return listed, e.Identity, nil
}

// Add appends addr to the registry. Returns false when already listed.
func (a *Allowlist) Add(addr veld.Address, identity veld.Bytes32) (bool, error) {
	e, err := a.getEntry(addr)
	if err != nil {
		return false, err
	}
	if !e.IsEmpty() {
		return false, nil
	}
	listed, err := a.IsApproved(addr)
	if err != nil {
		return false, err
	}
	if listed {
		return false, nil
	}

	tailPtr, err := a.getAddressPtr(slotTail)
	if err != nil {
		return false, err
	}
	if err := a.setEntry(addr, &entry{Identity: identity, Prev: tailPtr}); err != nil {
		return false, err
	}
	if tailPtr == nil {
		if err := a.setAddressPtr(slotHead, &addr); err != nil {
			return false, err
		}
	} else {
		tailEntry, err := a.getEntry(*tailPtr)
		if err != nil {
			return false, err
		}
		tailEntry.Next = &addr
		if err := a.setEntry(*tailPtr, tailEntry); err != nil {
			return false, err
		}
	}
	return true, a.setAddressPtr(slotTail, &addr)
}

// Revoke unlinks addr from the registry. Returns false when not listed.
func (a *Allowlist) Revoke(addr veld.Address) (bool, error) {
	listed, err := a.IsApproved(addr)
	if err != nil {
		return false, err
	}
	if !listed {
		return false, nil
	}
	e, err := a.getEntry(addr)
	if err != nil {
		return false, err
	}

	if e.Prev == nil {
		if err := a.setAddressPtr(slotHead, e.Next); err != nil {
			return false, err
		}
	} else {
		prevEntry, err := a.getEntry(*e.Prev)
		if err != nil {
			return false, err
		}
		prevEntry.Next = e.Next
		if err := a.setEntry(*e.Prev, prevEntry); err != nil {
			return false, err
		}
	}
	if e.Next == nil {
		if err := a.setAddressPtr(slotTail, e.Prev); err != nil {
			return false, err
		}
	} else {
		nextEntry, err := a.getEntry(*e.Next)
		if err != nil {
			return false, err
		}
		nextEntry.Prev = e.Prev
		if err := a.setEntry(*e.Next, nextEntry); err != nil {
			return false, err
		}
	}
	return true, a.setEntry(addr, &entry{})
}

// All lists every approved caller in insertion order.
func (a *Allowlist) All() ([]*Approved, error) {
	ptr, err := a.getAddressPtr(slotHead)
	if err != nil {
		return nil, err
	}
	var all []*Approved
	for ptr != nil {
		e, err := a.getEntry(*ptr)
		if err != nil {
			return nil, err
		}
		all = append(all, &Approved{Address: *ptr, Identity: e.Identity})
		ptr = e.Next
	}
	return all, nil
}
