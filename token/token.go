// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible VELD token as a state backed ledger.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/storage"
	"github.com/veldlabs/veld/veld"
)

var (
	slotBalances    = storage.NameToSlot("balances")
	slotTotalSupply = storage.NameToSlot("total-supply")
)

// Token provides access to account balances and the total supply.
type Token struct {
	context     *storage.Context
	balances    *storage.Mapping[veld.Address, *big.Int]
	totalSupply *storage.Uint256
}

// New binds the token ledger to its module address within the given state.
func New(addr veld.Address, st *state.State) *Token {
	context := storage.NewContext(addr, st)
	return &Token{
		context:     context,
		balances:    storage.NewMapping[veld.Address, *big.Int](context, slotBalances),
		totalSupply: storage.NewUint256(context, slotTotalSupply),
	}
}

// Address returns the token module address.
func (t *Token) Address() veld.Address {
	return t.context.Address()
}

// BalanceOf returns the balance of the given account.
func (t *Token) BalanceOf(addr veld.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if bal == nil {
		return new(big.Int), nil
	}
	return bal, nil
}

// TotalSupply returns the amount of tokens ever minted, minus burns.
func (t *Token) TotalSupply() (*big.Int, error) {
	supply, err := t.totalSupply.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get total supply")
	}
	return supply, nil
}

func (t *Token) setBalance(addr veld.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		if err := t.balances.Delete(addr); err != nil {
			return errors.Wrap(err, "failed to clear balance")
		}
		return nil
	}
	if err := t.balances.Set(addr, bal); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

// Mint creates amount tokens on addr's balance.
func (t *Token) Mint(addr veld.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative mint amount")
	}
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := t.setBalance(addr, bal.Add(bal, amount)); err != nil {
		return err
	}
	return t.totalSupply.Add(amount)
}

// Burn destroys amount tokens from addr's balance.
func (t *Token) Burn(addr veld.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative burn amount")
	}
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	if err := t.setBalance(addr, bal.Sub(bal, amount)); err != nil {
		return err
	}
	return t.totalSupply.Sub(amount)
}

// Transfer moves amount tokens from one account to another. It fails when
// the sender balance does not cover the amount.
func (t *Token) Transfer(from, to veld.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative transfer amount")
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.setBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.setBalance(to, toBal.Add(toBal, amount))
}
