// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package escrow exposes the escrow engine over HTTP.
package escrow

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/veldlabs/veld/api/utils"
	engine "github.com/veldlabs/veld/escrow"
	"github.com/veldlabs/veld/node"
	"github.com/veldlabs/veld/veld"
)

// Escrow serves lock state, voting power and the dev-mode mutations.
type Escrow struct {
	node  *node.Node
	cache *lru.Cache // immutable at-block readings
}

type cacheKey struct {
	addr  veld.Address
	block uint32
	total bool
}

func New(n *node.Node) *Escrow {
	cache, _ := lru.New(1024)
	return &Escrow{node: n, cache: cache}
}

func (e *Escrow) parseAddress(req *http.Request) (veld.Address, error) {
	addr, err := veld.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return veld.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func parseUintQuery(req *http.Request, name string) (uint64, bool, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, utils.BadRequest(errors.WithMessage(err, name))
	}
	return n, true, nil
}

func (e *Escrow) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	lock, err := e.node.Lock(addr)
	if err != nil {
		return err
	}
	balance, err := e.node.Balance(addr, 0)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Lock{
		Amount:  (*math.HexOrDecimal256)(lock.Amount),
		End:     lock.End,
		Balance: (*math.HexOrDecimal256)(balance),
	})
}

func (e *Escrow) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	block, hasBlock, err := parseUintQuery(req, "block")
	if err != nil {
		return err
	}
	ts, _, err := parseUintQuery(req, "time")
	if err != nil {
		return err
	}

	var balance *big.Int
	if hasBlock {
		if block > uint64(^uint32(0)) {
			return utils.BadRequest(errors.New("block: out of range"))
		}
		balance, err = e.balanceAt(addr, uint32(block))
	} else {
		balance, err = e.node.Balance(addr, ts)
	}
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, &Balance{Balance: (*math.HexOrDecimal256)(balance)})
}

func (e *Escrow) balanceAt(addr veld.Address, block uint32) (*big.Int, error) {
	key := cacheKey{addr: addr, block: block}
	if cached, ok := e.cache.Get(key); ok {
		return cached.(*big.Int), nil
	}
	balance, err := e.node.BalanceAt(addr, block)
	if err != nil {
		return nil, err
	}
	if head, _ := e.node.Head(); block < head {
		e.cache.Add(key, balance)
	}
	return balance, nil
}

func (e *Escrow) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	block, hasBlock, err := parseUintQuery(req, "block")
	if err != nil {
		return err
	}
	ts, _, err := parseUintQuery(req, "time")
	if err != nil {
		return err
	}

	var total *big.Int
	if hasBlock {
		if block > uint64(^uint32(0)) {
			return utils.BadRequest(errors.New("block: out of range"))
		}
		total, err = e.supplyAt(uint32(block))
	} else {
		total, err = e.node.Supply(ts)
	}
	if err != nil {
		return utils.RevertError(err)
	}
	locked, err := e.node.LockedSupply()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Supply{
		Total:  (*math.HexOrDecimal256)(total),
		Locked: (*math.HexOrDecimal256)(locked),
	})
}

func (e *Escrow) supplyAt(block uint32) (*big.Int, error) {
	key := cacheKey{block: block, total: true}
	if cached, ok := e.cache.Get(key); ok {
		return cached.(*big.Int), nil
	}
	total, err := e.node.SupplyAt(block)
	if err != nil {
		return nil, err
	}
	if head, _ := e.node.Head(); block < head {
		e.cache.Add(key, total)
	}
	return total, nil
}

func (e *Escrow) handleGetEpoch(w http.ResponseWriter, _ *http.Request) error {
	epoch, err := e.node.Epoch()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Epoch{Epoch: epoch})
}

func (e *Escrow) handleCheckpoint(w http.ResponseWriter, _ *http.Request) error {
	if err := e.node.Checkpoint(veld.Address{}); err != nil {
		return utils.RevertError(err)
	}
	epoch, err := e.node.Epoch()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Epoch{Epoch: epoch})
}

func (e *Escrow) handleCreateLock(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	var body CreateLockRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	ev, err := e.node.CreateLock(addr, (*big.Int)(body.Amount), body.UnlockTime)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertEvent(ev))
}

func (e *Escrow) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	var body DepositRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	var ev *engine.Event
	if body.To != nil {
		ev, err = e.node.DepositFor(addr, *body.To, (*big.Int)(body.Amount))
	} else {
		ev, err = e.node.Deposit(addr, (*big.Int)(body.Amount))
	}
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertEvent(ev))
}

func (e *Escrow) handleExtend(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	var body ExtendRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	ev, err := e.node.IncreaseUnlockTime(addr, body.UnlockTime)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertEvent(ev))
}

func (e *Escrow) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := e.parseAddress(req)
	if err != nil {
		return err
	}
	ev, err := e.node.Withdraw(addr)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertEvent(ev))
}

func (e *Escrow) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/supply").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetSupply))
	sub.Path("/epoch").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
	sub.Path("/checkpoint").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleCheckpoint))
	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetAccount))
	sub.Path("/accounts/{address}/balance").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetBalance))
	sub.Path("/accounts/{address}/lock").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleCreateLock))
	sub.Path("/accounts/{address}/deposit").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleDeposit))
	sub.Path("/accounts/{address}/extend").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleExtend))
	sub.Path("/accounts/{address}/withdraw").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleWithdraw))
}
