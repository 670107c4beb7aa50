// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node drives the standalone escrow engine. It owns the world
// state, assigns block numbers and timestamps to mutations, and records
// completed mutations in the event db.
package node

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/veldlabs/veld/allowlist"
	"github.com/veldlabs/veld/escrow"
	"github.com/veldlabs/veld/escrow/reverts"
	"github.com/veldlabs/veld/eventdb"
	"github.com/veldlabs/veld/kv"
	"github.com/veldlabs/veld/log"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/token"
	"github.com/veldlabs/veld/veld"
)

var logger = log.WithContext("pkg", "node")

// Well known module addresses.
var (
	EscrowAddress    = veld.BytesToAddress([]byte("veld-escrow"))
	TokenAddress     = veld.BytesToAddress([]byte("veld-token"))
	AllowlistAddress = veld.BytesToAddress([]byte("veld-allowlist"))
)

var headBucket = kv.Bucket("hd")

// head tracks the latest assigned block.
type head struct {
	Number uint32
	Time   uint64
}

// Options configure a node.
type Options struct {
	Executor      veld.Address
	GenesisTime   uint64
	BlockInterval uint64
}

// Node wires the escrow engine, token ledger, approved-caller registry
// and event db on top of a single persisted state. Mutations are
// serialized and committed one per block.
type Node struct {
	mu       sync.Mutex
	store    kv.GetPutter
	state    *state.State
	engine   *escrow.Escrow
	token    *token.Token
	vault    *token.Vault
	registry *allowlist.Allowlist
	events   *eventdb.EventDB
	head     head
	options  Options
}

// New opens a node over the given store. The state is initialized on
// first use and reused afterwards.
func New(store kv.GetPutter, events *eventdb.EventDB, options Options) (*Node, error) {
	if options.BlockInterval == 0 {
		options.BlockInterval = veld.BlockInterval
	}
	if options.GenesisTime == 0 {
		options.GenesisTime = uint64(time.Now().Unix()) / veld.BlockInterval * veld.BlockInterval
	}
	st := state.New(store)
	tok := token.New(TokenAddress, st)
	vault := token.NewVault(tok, EscrowAddress)
	registry := allowlist.New(AllowlistAddress, st)
	engine := escrow.New(EscrowAddress, st, vault, registry)

	n := &Node{
		store:    store,
		state:    st,
		engine:   engine,
		token:    tok,
		vault:    vault,
		registry: registry,
		events:   events,
		options:  options,
	}
	if err := n.loadHead(); err != nil {
		return nil, errors.Wrap(err, "failed to load head")
	}
	if n.head.Time == 0 {
		n.head = head{Number: 0, Time: options.GenesisTime}
		if err := registry.Initialize(options.Executor); err != nil {
			return nil, err
		}
		if err := engine.Initialize(n.readEnv()); err != nil {
			return nil, err
		}
		if err := n.commit(); err != nil {
			return nil, err
		}
		logger.Info("genesis state initialized",
			"time", n.head.Time,
			"executor", options.Executor)
	}
	return n, nil
}

func (n *Node) loadHead() error {
	bucketed := headBucket.NewGetPutter(n.store)
	raw, err := bucketed.Get([]byte("head"))
	if err != nil {
		if bucketed.IsNotFound(err) {
			return nil
		}
		return err
	}
	return rlp.DecodeBytes(raw, &n.head)
}

func (n *Node) saveHead() error {
	raw, err := rlp.EncodeToBytes(&n.head)
	if err != nil {
		return err
	}
	return headBucket.NewGetPutter(n.store).Put([]byte("head"), raw)
}

// commit persists pending state changes and the head.
func (n *Node) commit() error {
	if err := n.state.Commit(); err != nil {
		return err
	}
	return n.saveHead()
}

// Head returns the latest block number and timestamp.
func (n *Node) Head() (uint32, uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.head.Number, n.head.Time
}

// readEnv builds the environment for queries, extrapolating the clock
// past the head.
func (n *Node) readEnv() *escrow.Env {
	now := uint64(time.Now().Unix())
	if now < n.head.Time {
		now = n.head.Time
	}
	return &escrow.Env{Time: now, Number: n.head.Number}
}

// nextEnv assigns the block context of the next mutation.
func (n *Node) nextEnv(caller veld.Address) *escrow.Env {
	t := uint64(time.Now().Unix())
	if t <= n.head.Time {
		t = n.head.Time + 1
	}
	return &escrow.Env{
		Time:   t,
		Number: n.head.Number + 1,
		Caller: caller,
		Origin: caller,
	}
}

// do runs a mutation in its own block, committing on success.
func (n *Node) do(caller veld.Address, fn func(env *escrow.Env) (*escrow.Event, error)) (*escrow.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	checkpoint := n.state.NewCheckpoint()
	env := n.nextEnv(caller)
	ev, err := fn(env)
	if err != nil {
		n.state.RevertTo(checkpoint)
		return nil, err
	}
	n.head = head{Number: env.Number, Time: env.Time}
	if err := n.commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit state")
	}
	if ev != nil && n.events != nil {
		if err := n.events.Insert([]*escrow.Event{ev}); err != nil {
			logger.Warn("failed to index event", "err", err)
		}
	}
	return ev, nil
}

// Mint credits amount tokens to addr. Dev mode faucet.
func (n *Node) Mint(addr veld.Address, amount *big.Int) error {
	_, err := n.do(addr, func(_ *escrow.Env) (*escrow.Event, error) {
		return nil, n.token.Mint(addr, amount)
	})
	return err
}

// TokenBalance returns addr's spendable token balance.
func (n *Node) TokenBalance(addr veld.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.BalanceOf(addr)
}

// TokenSupply returns the minted token supply.
func (n *Node) TokenSupply() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.TotalSupply()
}

// Checkpoint pumps the global decay walk.
func (n *Node) Checkpoint(caller veld.Address) error {
	_, err := n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return nil, n.engine.Checkpoint(env)
	})
	return err
}

// CreateLock locks amount until unlockTime for caller.
func (n *Node) CreateLock(caller veld.Address, amount *big.Int, unlockTime uint64) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.CreateLock(env, amount, unlockTime)
	})
}

// Deposit adds amount to caller's existing lock.
func (n *Node) Deposit(caller veld.Address, amount *big.Int) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.Deposit(env, amount)
	})
}

// DepositFor adds amount to account's existing lock, paid by caller.
func (n *Node) DepositFor(caller, account veld.Address, amount *big.Int) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.DepositFor(env, account, amount)
	})
}

// IncreaseAmount adds amount to caller's existing lock.
func (n *Node) IncreaseAmount(caller veld.Address, amount *big.Int) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.IncreaseAmount(env, amount)
	})
}

// IncreaseUnlockTime extends caller's lock expiry.
func (n *Node) IncreaseUnlockTime(caller veld.Address, unlockTime uint64) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.IncreaseUnlockTime(env, unlockTime)
	})
}

// Withdraw releases caller's expired lock.
func (n *Node) Withdraw(caller veld.Address) (*escrow.Event, error) {
	return n.do(caller, func(env *escrow.Env) (*escrow.Event, error) {
		return n.engine.Withdraw(env)
	})
}

// Lock returns addr's locked balance.
func (n *Node) Lock(addr veld.Address) (*escrow.LockedBalance, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.LockedBalanceOf(addr)
}

// Balance returns addr's voting power at the given timestamp, defaulting
// to the current clock when ts is zero.
func (n *Node) Balance(addr veld.Address, ts uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ts == 0 {
		ts = n.readEnv().Time
	}
	return n.engine.BalanceOf(addr, ts)
}

// BalanceAt returns addr's voting power at the given block number.
func (n *Node) BalanceAt(addr veld.Address, block uint32) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.BalanceOfAt(n.readEnv(), addr, block)
}

// Supply returns the total voting power at the given timestamp,
// defaulting to the current clock when ts is zero.
func (n *Node) Supply(ts uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ts == 0 {
		ts = n.readEnv().Time
	}
	return n.engine.TotalSupply(ts)
}

// SupplyAt returns the total voting power at the given block number.
func (n *Node) SupplyAt(block uint32) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.TotalSupplyAt(n.readEnv(), block)
}

// Epoch returns the current global epoch.
func (n *Node) Epoch() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Epoch()
}

// LockedSupply returns the amount of tokens held by the escrow.
func (n *Node) LockedSupply() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Supply()
}

// Approve lists addr as an approved contract caller. Executor only.
func (n *Node) Approve(caller, addr veld.Address, identity veld.Bytes32) error {
	_, err := n.do(caller, func(_ *escrow.Env) (*escrow.Event, error) {
		if err := n.assertExecutor(caller); err != nil {
			return nil, err
		}
		added, err := n.registry.Add(addr, identity)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, reverts.NewInvalidState("already approved")
		}
		return nil, nil
	})
	return err
}

// Revoke delists an approved contract caller. Executor only.
func (n *Node) Revoke(caller, addr veld.Address) error {
	_, err := n.do(caller, func(_ *escrow.Env) (*escrow.Event, error) {
		if err := n.assertExecutor(caller); err != nil {
			return nil, err
		}
		revoked, err := n.registry.Revoke(addr)
		if err != nil {
			return nil, err
		}
		if !revoked {
			return nil, reverts.NewInvalidState("not approved")
		}
		return nil, nil
	})
	return err
}

// Approved lists the approved contract callers.
func (n *Node) Approved() ([]*allowlist.Approved, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.All()
}

func (n *Node) assertExecutor(caller veld.Address) error {
	executor, err := n.registry.Executor()
	if err != nil {
		return err
	}
	if caller != executor {
		return reverts.NewUnauthorized("executor only")
	}
	return nil
}
