// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"sync/atomic"

	"github.com/veldlabs/veld/escrow/reverts"
	"github.com/veldlabs/veld/log"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/veld"
)

var logger = log.WithContext("pkg", "escrow")

// DepositKind tags which entry point produced a mutation.
type DepositKind int

const (
	KindCheckpoint DepositKind = iota
	KindCreateLock
	KindDeposit
	KindDepositFor
	KindIncreaseAmount
	KindIncreaseUnlockTime
	KindWithdraw
)

func (k DepositKind) String() string {
	switch k {
	case KindCheckpoint:
		return "checkpoint"
	case KindCreateLock:
		return "create-lock"
	case KindDeposit:
		return "deposit"
	case KindDepositFor:
		return "deposit-for"
	case KindIncreaseAmount:
		return "increase-amount"
	case KindIncreaseUnlockTime:
		return "increase-unlock-time"
	case KindWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

// Event describes a completed mutation.
type Event struct {
	Kind        DepositKind
	Account     veld.Address
	Amount      *big.Int
	UnlockTime  uint64
	Time        uint64
	Block       uint32
	SupplyAfter *big.Int
}

// Escrow is the time-weighted voting-power accounting engine. Accounts
// lock tokens for a bounded duration and receive voting power decaying
// linearly to zero at the lock's expiry.
//
// Mutating operations must be fully serialized by the caller; the engine
// rejects, rather than blocks, an operation entered while another one is
// still in flight. Queries may run at any time against committed state.
type Escrow struct {
	state    *state.State
	ldg      *ledger
	token    TokenLedger
	approver Approver

	entered atomic.Bool
}

// New create a new engine instance bound to the module address.
func New(addr veld.Address, st *state.State, token TokenLedger, approver Approver) *Escrow {
	return &Escrow{
		state:    st,
		ldg:      newLedger(addr, st),
		token:    token,
		approver: approver,
	}
}

// Initialize seeds entry 0 of the global point history. It is a no-op if
// the engine has already been initialized.
func (e *Escrow) Initialize(env *Env) error {
	p, err := e.ldg.GetPoint(0)
	if err != nil {
		return err
	}
	if p.TS != 0 {
		return nil
	}
	return e.ldg.SetPoint(0, &Point{
		Bias:  new(big.Int),
		Slope: new(big.Int),
		TS:    env.Time,
		Block: env.Number,
	})
}

// runMutation wraps a mutating operation: it takes the reentrancy guard,
// opens a state checkpoint and reverts it wholesale if the operation
// fails, so that an error leaves no observable state change.
func (e *Escrow) runMutation(kind DepositKind, fn func() error) (err error) {
	if !e.entered.CompareAndSwap(false, true) {
		return reverts.NewInvalidState("reentrant call")
	}
	defer e.entered.Store(false)
	defer func() { metricsHandleMutation(kind, err) }()

	rev := e.state.NewCheckpoint()
	if err = fn(); err != nil {
		e.state.RevertTo(rev)
		return err
	}
	return nil
}

// assertAllowed rejects contract callers that are not allow-listed.
// Locks held by arbitrary contracts could be wrapped into a transferable
// token, defeating the time commitment.
func (e *Escrow) assertAllowed(env *Env) error {
	if !env.IsContractCall() {
		return nil
	}
	approved, err := e.approver.IsApproved(env.Caller)
	if err != nil {
		return err
	}
	if !approved {
		return reverts.NewUnauthorized("smart contract caller not allowed")
	}
	return nil
}

// Checkpoint records global state up to the current time. Anyone may
// call it to keep the history dense during idle periods.
func (e *Escrow) Checkpoint(env *Env) error {
	return e.runMutation(KindCheckpoint, func() error {
		return e.checkpoint(env, nil, nil, nil)
	})
}

// CreateLock locks amount until unlockTime (rounded down to a whole
// week). The account must have no existing lock.
func (e *Escrow) CreateLock(env *Env, amount *big.Int, unlockTime uint64) (*Event, error) {
	unlock := roundDownWeek(unlockTime)
	var ev *Event
	err := e.runMutation(KindCreateLock, func() error {
		if err := e.assertAllowed(env); err != nil {
			return err
		}
		locked, err := e.ldg.GetLocked(env.Caller)
		if err != nil {
			return err
		}
		switch {
		case amount.Sign() <= 0:
			return reverts.NewInvalidState("amount must be positive")
		case locked.Amount.Sign() > 0:
			return reverts.NewInvalidState("withdraw old tokens first")
		case unlock <= env.Time:
			return reverts.NewInvalidState("can only lock until a future time")
		case unlock > env.Time+veld.MaxLockTime:
			return reverts.NewInvalidState("voting lock can be 4 years max")
		}
		ev, err = e.depositFor(env, env.Caller, amount, unlock, locked, KindCreateLock)
		return err
	})
	return ev, err
}

// Deposit adds amount to the caller's own active lock.
func (e *Escrow) Deposit(env *Env, amount *big.Int) (*Event, error) {
	return e.deposit(env, env.Caller, amount, KindDeposit)
}

// DepositFor adds amount to another account's active lock. It cannot
// create a new lock on someone else's behalf.
func (e *Escrow) DepositFor(env *Env, account veld.Address, amount *big.Int) (*Event, error) {
	return e.deposit(env, account, amount, KindDepositFor)
}

// IncreaseAmount adds amount to the caller's active lock without
// changing the unlock time.
func (e *Escrow) IncreaseAmount(env *Env, amount *big.Int) (*Event, error) {
	return e.deposit(env, env.Caller, amount, KindIncreaseAmount)
}

func (e *Escrow) deposit(env *Env, account veld.Address, amount *big.Int, kind DepositKind) (*Event, error) {
	var ev *Event
	err := e.runMutation(kind, func() error {
		if err := e.assertAllowed(env); err != nil {
			return err
		}
		locked, err := e.ldg.GetLocked(account)
		if err != nil {
			return err
		}
		switch {
		case amount.Sign() <= 0:
			return reverts.NewInvalidState("amount must be positive")
		case locked.Amount.Sign() == 0:
			return reverts.NewInvalidState("no existing lock found")
		case locked.End <= env.Time:
			return reverts.NewInvalidState("cannot add to an expired lock, withdraw first")
		}
		ev, err = e.depositFor(env, account, amount, 0, locked, kind)
		return err
	})
	return ev, err
}

// IncreaseUnlockTime extends the caller's active lock to unlockTime
// (rounded down to a whole week).
func (e *Escrow) IncreaseUnlockTime(env *Env, unlockTime uint64) (*Event, error) {
	unlock := roundDownWeek(unlockTime)
	var ev *Event
	err := e.runMutation(KindIncreaseUnlockTime, func() error {
		if err := e.assertAllowed(env); err != nil {
			return err
		}
		locked, err := e.ldg.GetLocked(env.Caller)
		if err != nil {
			return err
		}
		switch {
		case locked.End <= env.Time:
			return reverts.NewInvalidState("lock expired")
		case locked.Amount.Sign() == 0:
			return reverts.NewInvalidState("nothing is locked")
		case unlock <= locked.End:
			return reverts.NewInvalidState("can only increase lock duration")
		case unlock > env.Time+veld.MaxLockTime:
			return reverts.NewInvalidState("voting lock can be 4 years max")
		}
		ev, err = e.depositFor(env, env.Caller, new(big.Int), unlock, locked, KindIncreaseUnlockTime)
		return err
	})
	return ev, err
}

// Withdraw releases the caller's tokens once the lock has expired. It
// always withdraws the full locked amount.
func (e *Escrow) Withdraw(env *Env) (*Event, error) {
	var ev *Event
	err := e.runMutation(KindWithdraw, func() error {
		if err := e.assertAllowed(env); err != nil {
			return err
		}
		locked, err := e.ldg.GetLocked(env.Caller)
		if err != nil {
			return err
		}
		if locked.Amount.Sign() == 0 {
			return reverts.NewInvalidState("no existing lock found")
		}
		if env.Time < locked.End {
			return reverts.NewInvalidState("the lock has not expired")
		}
		value := new(big.Int).Set(locked.Amount)

		oldLocked := locked.Copy()
		locked.Amount.SetUint64(0)
		locked.End = 0
		if err := e.ldg.SetLocked(env.Caller, locked); err != nil {
			return err
		}

		supply, err := e.ldg.GetSupply()
		if err != nil {
			return err
		}
		supply.Sub(supply, value)
		if err := e.ldg.SetSupply(supply); err != nil {
			return err
		}

		// oldLocked can have expired but not withdrawn; both points of
		// the transition are zero lines, only the history entry matters
		if err := e.checkpoint(env, &env.Caller, oldLocked, locked); err != nil {
			return err
		}

		if err := e.token.TransferOut(env.Caller, value); err != nil {
			return reverts.NewTransferFailure(err)
		}

		metricSupplyGauge().Set(supplyGaugeValue(supply))
		logger.Info("withdrawn", "account", env.Caller, "amount", value)
		ev = &Event{
			Kind:        KindWithdraw,
			Account:     env.Caller,
			Amount:      value,
			Time:        env.Time,
			Block:       env.Number,
			SupplyAfter: supply,
		}
		return nil
	})
	return ev, err
}

// depositFor is the shared transition of all deposit-flavored entry
// points: apply the amount delta and optional new unlock time, record
// the checkpoint transition and pull the tokens in.
func (e *Escrow) depositFor(env *Env, account veld.Address, amount *big.Int, unlockTime uint64, locked *LockedBalance, kind DepositKind) (*Event, error) {
	supply, err := e.ldg.GetSupply()
	if err != nil {
		return nil, err
	}
	supply.Add(supply, amount)
	if err := e.ldg.SetSupply(supply); err != nil {
		return nil, err
	}

	oldLocked := locked.Copy()
	locked.Amount.Add(locked.Amount, amount)
	if unlockTime != 0 {
		locked.End = unlockTime
	}
	if err := e.ldg.SetLocked(account, locked); err != nil {
		return nil, err
	}

	if err := e.checkpoint(env, &account, oldLocked, locked); err != nil {
		return nil, err
	}

	// the external transfer runs after internal state is already
	// updated; runMutation's guard covers the callback window
	if amount.Sign() != 0 {
		if err := e.token.TransferIn(account, amount); err != nil {
			return nil, reverts.NewTransferFailure(err)
		}
	}

	metricSupplyGauge().Set(supplyGaugeValue(supply))
	logger.Info("deposited", "kind", kind, "account", account, "amount", amount, "unlock", locked.End)
	return &Event{
		Kind:        kind,
		Account:     account,
		Amount:      amount,
		UnlockTime:  locked.End,
		Time:        env.Time,
		Block:       env.Number,
		SupplyAfter: supply,
	}, nil
}

func supplyGaugeValue(supply *big.Int) int64 {
	// gauges are int64; saturate rather than wrap for very large supplies
	if supply.IsInt64() {
		return supply.Int64()
	}
	return int64(^uint64(0) >> 1)
}
