// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldlabs/veld/kv"
	"github.com/veldlabs/veld/stackedmap"
	"github.com/veldlabs/veld/veld"
)

// storageBucket is the key space holding all structured storage.
const storageBucket = kv.Bucket("st")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// storageKey locates one storage slot of an address.
type storageKey struct {
	addr veld.Address
	key  veld.Bytes32
}

func (k *storageKey) bytes() []byte {
	return append(append(make([]byte, 0, veld.AddressLength+32), k.addr.Bytes()...), k.key.Bytes()...)
}

// State manages structured storage of addressed modules with
// checkpoint/revert semantics. All reads fall through buffered writes
// down to the backing kv store; nothing touches the store until the
// staged changes are committed.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create a state object bound to the given kv store.
func New(store kv.GetPutter) *State {
	bucketed := storageBucket.NewGetPutter(store)
	sm := stackedmap.New(func(key storageKey) (rlp.RawValue, bool, error) {
		raw, err := bucketed.Get(key.bytes())
		if err != nil {
			if bucketed.IsNotFound(err) {
				return nil, true, nil
			}
			return nil, false, &Error{err}
		}
		return raw, true, nil
	})
	state := &State{store: store, sm: sm}
	state.sm.Push() // initial checkpoint
	return state
}

// GetRawStorage gets raw storage value for the given address and key.
func (s *State) GetRawStorage(addr veld.Address, key veld.Bytes32) (rlp.RawValue, error) {
	raw, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// SetRawStorage set raw storage value for the given address and key.
// Empty raw clears the slot.
func (s *State) SetRawStorage(addr veld.Address, key veld.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// An empty encoded value clears the slot.
func (s *State) EncodeStorage(addr veld.Address, key veld.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// The dec method is called with nil raw when the slot is empty.
func (s *State) DecodeStorage(addr veld.Address, key veld.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage collects all buffered changes into a Stage object, ready to be
// committed to the backing store in a single batch.
func (s *State) Stage() *Stage {
	batch := storageBucket.NewGetPutter(s.store).NewBatch()
	s.sm.Journal(func(key storageKey, value rlp.RawValue) bool {
		if len(value) == 0 {
			_ = batch.Delete(key.bytes())
		} else {
			_ = batch.Put(key.bytes(), value)
		}
		return true
	})
	return &Stage{batch: batch}
}

// Commit persists all buffered changes atomically and resets the change
// journal, making the committed data the new base.
func (s *State) Commit() error {
	if err := s.Stage().Commit(); err != nil {
		return err
	}
	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
