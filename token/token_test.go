// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlabs/veld/lvldb"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/test/datagen"
	"github.com/veldlabs/veld/veld"
)

func M(a ...any) []any {
	return a
}

func newToken(t *testing.T) *Token {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(veld.BytesToAddress([]byte("token")), state.New(store))
}

func TestMintBurn(t *testing.T) {
	tok := newToken(t)
	acc := datagen.RandAddress()

	assert.Equal(t, M(new(big.Int), nil), M(tok.BalanceOf(acc)))
	assert.Equal(t, M(new(big.Int), nil), M(tok.TotalSupply()))

	require.NoError(t, tok.Mint(acc, big.NewInt(1000)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.BalanceOf(acc)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.TotalSupply()))

	require.NoError(t, tok.Burn(acc, big.NewInt(400)))
	assert.Equal(t, M(big.NewInt(600), nil), M(tok.BalanceOf(acc)))
	assert.Equal(t, M(big.NewInt(600), nil), M(tok.TotalSupply()))

	assert.EqualError(t, tok.Burn(acc, big.NewInt(601)), "insufficient balance")
	assert.EqualError(t, tok.Mint(acc, big.NewInt(-1)), "negative mint amount")
	assert.EqualError(t, tok.Burn(acc, big.NewInt(-1)), "negative burn amount")
}

func TestTransfer(t *testing.T) {
	tok := newToken(t)
	a := datagen.RandAddress()
	b := datagen.RandAddress()

	require.NoError(t, tok.Mint(a, big.NewInt(1000)))

	require.NoError(t, tok.Transfer(a, b, big.NewInt(300)))
	assert.Equal(t, M(big.NewInt(700), nil), M(tok.BalanceOf(a)))
	assert.Equal(t, M(big.NewInt(300), nil), M(tok.BalanceOf(b)))
	// transfers never change the supply
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.TotalSupply()))

	assert.EqualError(t, tok.Transfer(a, b, big.NewInt(701)), "insufficient balance")
	assert.EqualError(t, tok.Transfer(a, b, big.NewInt(-1)), "negative transfer amount")

	// self transfers and zero amounts are no-ops
	require.NoError(t, tok.Transfer(a, a, big.NewInt(100)))
	assert.Equal(t, M(big.NewInt(700), nil), M(tok.BalanceOf(a)))
	require.NoError(t, tok.Transfer(a, b, new(big.Int)))
	assert.Equal(t, M(big.NewInt(700), nil), M(tok.BalanceOf(a)))

	// draining an account clears its storage slot
	require.NoError(t, tok.Transfer(a, b, big.NewInt(700)))
	assert.Equal(t, M(new(big.Int), nil), M(tok.BalanceOf(a)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.BalanceOf(b)))
}

func TestVault(t *testing.T) {
	tok := newToken(t)
	custodian := veld.BytesToAddress([]byte("custodian"))
	vault := NewVault(tok, custodian)
	acc := datagen.RandAddress()

	require.NoError(t, tok.Mint(acc, big.NewInt(1000)))

	require.NoError(t, vault.TransferIn(acc, big.NewInt(600)))
	assert.Equal(t, M(big.NewInt(600), nil), M(vault.Held()))
	assert.Equal(t, M(big.NewInt(400), nil), M(tok.BalanceOf(acc)))

	// the vault cannot pull more than the account holds
	assert.EqualError(t, vault.TransferIn(acc, big.NewInt(401)), "insufficient balance")

	require.NoError(t, vault.TransferOut(acc, big.NewInt(600)))
	assert.Equal(t, M(new(big.Int), nil), M(vault.Held()))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.BalanceOf(acc)))

	assert.EqualError(t, vault.TransferOut(acc, big.NewInt(1)), "insufficient balance")
}
