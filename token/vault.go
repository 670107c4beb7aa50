// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/veldlabs/veld/veld"
)

// Vault holds tokens on behalf of a custodian module. It moves balances
// between accounts and the custodian address.
type Vault struct {
	token     *Token
	custodian veld.Address
}

// NewVault creates a vault backed by the token ledger, keeping all held
// tokens on the custodian address.
func NewVault(token *Token, custodian veld.Address) *Vault {
	return &Vault{token: token, custodian: custodian}
}

// Held returns the total balance held by the vault.
func (v *Vault) Held() (*big.Int, error) {
	return v.token.BalanceOf(v.custodian)
}

// TransferIn pulls amount tokens from the given account into the vault.
func (v *Vault) TransferIn(from veld.Address, amount *big.Int) error {
	return v.token.Transfer(from, v.custodian, amount)
}

// TransferOut releases amount tokens from the vault to the given account.
func (v *Vault) TransferOut(to veld.Address, amount *big.Int) error {
	return v.token.Transfer(v.custodian, to, amount)
}
