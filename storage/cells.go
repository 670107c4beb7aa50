// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldlabs/veld/veld"
)

// Uint256 is a wrapper for storage and retrieval of a big.Int, similar to
// storing an uint256 in a smart contract.
type Uint256 struct {
	context *Context
	pos     veld.Bytes32
}

func NewUint256(context *Context, slot veld.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	value := new(big.Int)
	err := u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		_, content, _, err := rlp.Split(raw)
		if err != nil {
			return err
		}
		value.SetBytes(content)
		return nil
	})
	return value, err
}

func (u *Uint256) Set(value *big.Int) error {
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		if value.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(value.Bytes())
	})
}

func (u *Uint256) Add(value *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(stored.Add(stored, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(stored.Sub(stored, value))
}

// Uint64 is a storage cell holding a uint64 counter.
type Uint64 struct {
	context *Context
	pos     veld.Bytes32
}

func NewUint64(context *Context, slot veld.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: slot}
}

func (u *Uint64) Get() (uint64, error) {
	var value uint64
	err := u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return value, err
}

func (u *Uint64) Set(value uint64) error {
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		if value == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(value)
	})
}

// AddressSlot is a storage cell holding a single address.
type AddressSlot struct {
	context *Context
	pos     veld.Bytes32
}

func NewAddressSlot(context *Context, slot veld.Bytes32) *AddressSlot {
	return &AddressSlot{context: context, pos: slot}
}

func (a *AddressSlot) Get() (veld.Address, error) {
	var addr veld.Address
	err := a.context.state.DecodeStorage(a.context.address, a.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		_, content, _, err := rlp.Split(raw)
		if err != nil {
			return err
		}
		addr = veld.BytesToAddress(content)
		return nil
	})
	return addr, err
}

func (a *AddressSlot) Set(addr veld.Address) error {
	return a.context.state.EncodeStorage(a.context.address, a.pos, func() ([]byte, error) {
		if addr.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(bytes.TrimLeft(addr.Bytes(), "\x00"))
	})
}
