// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlabs/veld/escrow/reverts"
	"github.com/veldlabs/veld/test/datagen"
	"github.com/veldlabs/veld/veld"
)

func TestInitialize(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, M(uint64(0), nil), M(f.esc.Epoch()))

	p, err := f.esc.ldg.GetPoint(0)
	require.NoError(t, err)
	assert.Equal(t, genesisTime, p.TS)
	assert.Equal(t, uint32(1000), p.Block)

	// a second Initialize must not overwrite the seeded point
	f.advance(veld.Week)
	require.NoError(t, f.esc.Initialize(f.env(veld.Address{})))
	p, err = f.esc.ldg.GetPoint(0)
	require.NoError(t, err)
	assert.Equal(t, genesisTime, p.TS)
}

func TestCreateLock(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)
	unlock := f.maxUnlock()

	ev, err := f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)
	assert.Equal(t, KindCreateLock, ev.Kind)
	assert.Equal(t, acc, ev.Account)
	assert.Equal(t, amount, ev.Amount)
	assert.Equal(t, unlock, ev.UnlockTime)
	assert.Equal(t, amount, ev.SupplyAfter)

	locked, err := f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, amount, locked.Amount)
	assert.Equal(t, unlock, locked.End)

	assert.Equal(t, M(unlock, nil), M(f.esc.LockedEnd(acc)))
	assert.Equal(t, M(amount, nil), M(f.esc.Supply()))
	assert.Equal(t, M(uint64(1), nil), M(f.esc.UserPointEpoch(acc)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(f.esc.LastSlope(acc)))
	assert.Equal(t, amount, f.token.heldBy(acc))

	// voting power at lock time is slope * remaining, decaying to zero
	want := new(big.Int).SetUint64(1000 * (unlock - f.now))
	assert.Equal(t, M(want, nil), M(f.esc.BalanceOf(acc, f.now)))
	atUnlock, err := f.esc.BalanceOf(acc, unlock)
	require.NoError(t, err)
	assert.Equal(t, 0, atUnlock.Sign())
}

func TestCreateLockReverts(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	tests := []struct {
		name   string
		amount *big.Int
		unlock uint64
		err    string
	}{
		{"zero amount", new(big.Int), f.now + veld.MaxLockTime, "invalid state: amount must be positive"},
		{"negative amount", big.NewInt(-1), f.now + veld.MaxLockTime, "invalid state: amount must be positive"},
		{"unlock in the past", amount, f.now - veld.Week, "invalid state: can only lock until a future time"},
		{"unlock rounds to now", amount, f.now + veld.Week - 1, "invalid state: can only lock until a future time"},
		{"unlock too far", amount, f.now + veld.MaxLockTime + veld.Week, "invalid state: voting lock can be 4 years max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.esc.CreateLock(f.env(acc), tt.amount, tt.unlock)
			assert.EqualError(t, err, tt.err)
			assert.True(t, reverts.IsInvalidState(err))
		})
	}

	// a second lock on the same account is rejected
	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)
	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	assert.EqualError(t, err, "invalid state: withdraw old tokens first")
}

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.Deposit(f.env(acc), amount)
	assert.EqualError(t, err, "invalid state: no existing lock found")

	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)
	unlock := f.maxUnlock()

	f.advance(veld.Week)
	ev, err := f.esc.Deposit(f.env(acc), amount)
	require.NoError(t, err)
	assert.Equal(t, KindDeposit, ev.Kind)
	// the unlock time is untouched, only the amount grows
	assert.Equal(t, unlock, ev.UnlockTime)
	assert.Equal(t, new(big.Int).Add(amount, amount), ev.SupplyAfter)

	locked, err := f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(amount, amount), locked.Amount)
	assert.Equal(t, unlock, locked.End)
	assert.Equal(t, M(uint64(2), nil), M(f.esc.UserPointEpoch(acc)))

	want := new(big.Int).SetUint64(2000 * (unlock - f.now))
	assert.Equal(t, M(want, nil), M(f.esc.BalanceOf(acc, f.now)))
}

func TestDepositFor(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	helper := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	// cannot create a lock on someone else's behalf
	_, err := f.esc.DepositFor(f.env(helper), acc, amount)
	assert.EqualError(t, err, "invalid state: no existing lock found")

	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)

	ev, err := f.esc.DepositFor(f.env(helper), acc, amount)
	require.NoError(t, err)
	assert.Equal(t, KindDepositFor, ev.Kind)
	assert.Equal(t, acc, ev.Account)

	locked, err := f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(amount, amount), locked.Amount)

	// expired locks cannot be topped up for either
	f.advance(veld.MaxLockTime + veld.Week)
	_, err = f.esc.DepositFor(f.env(helper), acc, amount)
	assert.EqualError(t, err, "invalid state: cannot add to an expired lock, withdraw first")
}

func TestIncreaseAmount(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.IncreaseAmount(f.env(acc), amount)
	assert.EqualError(t, err, "invalid state: no existing lock found")

	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+2*veld.Week)
	require.NoError(t, err)

	_, err = f.esc.IncreaseAmount(f.env(acc), new(big.Int))
	assert.EqualError(t, err, "invalid state: amount must be positive")

	ev, err := f.esc.IncreaseAmount(f.env(acc), amount)
	require.NoError(t, err)
	assert.Equal(t, KindIncreaseAmount, ev.Kind)

	f.advance(3 * veld.Week)
	_, err = f.esc.IncreaseAmount(f.env(acc), amount)
	assert.EqualError(t, err, "invalid state: cannot add to an expired lock, withdraw first")
}

func TestIncreaseUnlockTime(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.IncreaseUnlockTime(f.env(acc), f.now+veld.Week)
	assert.EqualError(t, err, "invalid state: lock expired")

	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+4*veld.Week)
	require.NoError(t, err)
	unlock := roundDownWeek(f.now + 4*veld.Week)

	_, err = f.esc.IncreaseUnlockTime(f.env(acc), unlock)
	assert.EqualError(t, err, "invalid state: can only increase lock duration")
	_, err = f.esc.IncreaseUnlockTime(f.env(acc), f.now+veld.MaxLockTime+veld.Week)
	assert.EqualError(t, err, "invalid state: voting lock can be 4 years max")

	before, err := f.esc.BalanceOf(acc, f.now)
	require.NoError(t, err)

	ev, err := f.esc.IncreaseUnlockTime(f.env(acc), f.now+veld.MaxLockTime)
	require.NoError(t, err)
	assert.Equal(t, KindIncreaseUnlockTime, ev.Kind)
	assert.Equal(t, 0, ev.Amount.Sign())
	assert.Equal(t, f.maxUnlock(), ev.UnlockTime)

	// extending multiplies the remaining power without moving tokens
	after, err := f.esc.BalanceOf(acc, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Cmp(before))
	assert.Equal(t, M(amount, nil), M(f.esc.Supply()))

	f.advance(veld.MaxLockTime + veld.Week)
	_, err = f.esc.IncreaseUnlockTime(f.env(acc), f.now+veld.Week)
	assert.EqualError(t, err, "invalid state: lock expired")
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	// nothing locked yet, so nothing to withdraw
	_, err := f.esc.Withdraw(f.env(acc))
	assert.EqualError(t, err, "invalid state: no existing lock found")
	assert.True(t, reverts.IsInvalidState(err))

	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+2*veld.Week)
	require.NoError(t, err)
	unlock := roundDownWeek(f.now + 2*veld.Week)

	_, err = f.esc.Withdraw(f.env(acc))
	assert.EqualError(t, err, "invalid state: the lock has not expired")
	assert.True(t, reverts.IsInvalidState(err))

	f.advance(unlock - f.now)
	ev, err := f.esc.Withdraw(f.env(acc))
	require.NoError(t, err)
	assert.Equal(t, KindWithdraw, ev.Kind)
	assert.Equal(t, amount, ev.Amount)
	assert.Equal(t, 0, ev.SupplyAfter.Sign())

	locked, err := f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.True(t, locked.IsEmpty())
	assert.Equal(t, M(new(big.Int), nil), M(f.esc.Supply()))
	assert.Equal(t, 0, f.token.heldBy(acc).Sign())
	assert.Equal(t, M(new(big.Int), nil), M(f.esc.BalanceOf(acc, f.now)))

	// the account can lock again from scratch
	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	assert.NoError(t, err)
}

func TestTransferFailureReverts(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	epochBefore, err := f.esc.Epoch()
	require.NoError(t, err)

	f.token.failIn = true
	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	assert.EqualError(t, err, "transfer failure: transfer rejected")
	assert.True(t, reverts.IsTransferFailure(err))

	// the whole mutation is rolled back, not just the transfer
	locked, err := f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.True(t, locked.IsEmpty())
	assert.Equal(t, M(new(big.Int), nil), M(f.esc.Supply()))
	assert.Equal(t, M(uint64(0), nil), M(f.esc.UserPointEpoch(acc)))
	assert.Equal(t, M(epochBefore, nil), M(f.esc.Epoch()))

	f.token.failIn = false
	_, err = f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)

	f.advance(veld.MaxLockTime + veld.Week)
	f.token.failOut = true
	_, err = f.esc.Withdraw(f.env(acc))
	assert.EqualError(t, err, "transfer failure: transfer rejected")
	locked, err = f.esc.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, amount, locked.Amount)
}

func TestReentrancyGuard(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	// the token callback runs inside the mutation window; any nested
	// mutation must be rejected
	var nestedErr error
	f.token.onIn = func() {
		nestedErr = f.esc.Checkpoint(f.env(acc))
	}
	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)
	assert.EqualError(t, nestedErr, "invalid state: reentrant call")
	assert.True(t, reverts.IsInvalidState(nestedErr))
}

func TestContractCallerGating(t *testing.T) {
	f := newFixture(t)
	contract := datagen.RandAddress()
	origin := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	env := f.contractEnv(contract, origin)
	_, err := f.esc.CreateLock(env, amount, f.now+veld.MaxLockTime)
	assert.EqualError(t, err, "unauthorized: smart contract caller not allowed")
	assert.True(t, reverts.IsUnauthorized(err))

	f.approver.approved[contract] = true
	_, err = f.esc.CreateLock(env, amount, f.now+veld.MaxLockTime)
	assert.NoError(t, err)

	// direct calls are never gated
	_, err = f.esc.CreateLock(f.env(origin), amount, f.now+veld.MaxLockTime)
	assert.NoError(t, err)
}
