// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token exposes token balances and the dev-mode faucet over HTTP.
package token

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/veldlabs/veld/api/utils"
	"github.com/veldlabs/veld/node"
	"github.com/veldlabs/veld/veld"
)

// Balance is a token balance reading.
type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// SupplyResponse is the minted token supply.
type SupplyResponse struct {
	Supply *math.HexOrDecimal256 `json:"supply"`
}

// MintRequest credits tokens to an account.
type MintRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Token serves token balances and the faucet.
type Token struct {
	node *node.Node
}

func New(n *node.Node) *Token {
	return &Token{node: n}
}

func (t *Token) parseAddress(req *http.Request) (veld.Address, error) {
	addr, err := veld.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return veld.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func (t *Token) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := t.parseAddress(req)
	if err != nil {
		return err
	}
	balance, err := t.node.TokenBalance(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Balance: (*math.HexOrDecimal256)(balance)})
}

func (t *Token) handleGetSupply(w http.ResponseWriter, _ *http.Request) error {
	supply, err := t.node.TokenSupply()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &SupplyResponse{Supply: (*math.HexOrDecimal256)(supply)})
}

func (t *Token) handleMint(w http.ResponseWriter, req *http.Request) error {
	addr, err := t.parseAddress(req)
	if err != nil {
		return err
	}
	var body MintRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := t.node.Mint(addr, (*big.Int)(body.Amount)); err != nil {
		return utils.RevertError(err)
	}
	return t.handleGetBalance(w, req)
}

func (t *Token) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/supply").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetSupply))
	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
	sub.Path("/accounts/{address}/mint").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(t.handleMint))
}
