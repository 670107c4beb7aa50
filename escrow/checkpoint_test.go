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

	"github.com/veldlabs/veld/test/datagen"
	"github.com/veldlabs/veld/veld"
)

func TestBareCheckpointIdempotent(t *testing.T) {
	f := newFixture(t)
	caller := datagen.RandAddress()

	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	epoch, err := f.esc.Epoch()
	require.NoError(t, err)

	// repeating the call at the same time records nothing new
	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	assert.Equal(t, M(epoch, nil), M(f.esc.Epoch()))

	f.advance(veld.Week)
	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	after, err := f.esc.Epoch()
	require.NoError(t, err)
	assert.Greater(t, after, epoch)
}

func TestCheckpointWalksWeeks(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+veld.MaxLockTime)
	require.NoError(t, err)
	epoch, err := f.esc.Epoch()
	require.NoError(t, err)

	// ten crossed week boundaries produce ten intermediate points plus
	// the final one at the current time
	f.advance(10*veld.Week + veld.Week/2)
	require.NoError(t, f.esc.Checkpoint(f.env(acc)))
	after, err := f.esc.Epoch()
	require.NoError(t, err)
	assert.Equal(t, epoch+11, after)

	// the intermediate points sit exactly on week boundaries with
	// back-filled block numbers
	p, err := f.esc.ldg.GetPoint(epoch + 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.TS%veld.Week)
	p2, err := f.esc.ldg.GetPoint(epoch + 2)
	require.NoError(t, err)
	assert.Equal(t, p.TS+veld.Week, p2.TS)
	assert.Equal(t, uint32(veld.Week/veld.BlockInterval), p2.Block-p.Block)

	// the final point carries the real clock and block
	last, err := f.esc.ldg.GetPoint(after)
	require.NoError(t, err)
	assert.Equal(t, f.now, last.TS)
	assert.Equal(t, f.number, last.Block)
}

func TestCheckpointStepCap(t *testing.T) {
	f := newFixture(t)
	caller := datagen.RandAddress()

	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	epoch, err := f.esc.Epoch()
	require.NoError(t, err)

	// a single call cannot cross more week boundaries than the cap
	f.advance(300 * veld.Week)
	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	after, err := f.esc.Epoch()
	require.NoError(t, err)
	assert.Equal(t, epoch+veld.MaxCheckpointSteps, after)

	p, err := f.esc.ldg.GetPoint(after)
	require.NoError(t, err)
	assert.Less(t, p.TS, f.now)

	// a second call finishes the catch-up
	require.NoError(t, f.esc.Checkpoint(f.env(caller)))
	after, err = f.esc.Epoch()
	require.NoError(t, err)
	p, err = f.esc.ldg.GetPoint(after)
	require.NoError(t, err)
	assert.Equal(t, f.now, p.TS)
}

func TestSlopeScheduleAtExpiry(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+8*veld.Week)
	require.NoError(t, err)
	unlock := roundDownWeek(f.now + 8*veld.Week)

	// the schedule holds the magnitude to be removed at expiry
	m, err := f.esc.ldg.GetSlopeChange(unlock)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), m)

	// once the walker crosses the expiry, the global line goes flat
	f.advance(9 * veld.Week)
	require.NoError(t, f.esc.Checkpoint(f.env(acc)))
	epoch, err := f.esc.Epoch()
	require.NoError(t, err)
	p, err := f.esc.ldg.GetPoint(epoch)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Slope.Sign())
	assert.Equal(t, 0, p.Bias.Sign())
}

func TestRescheduleOnExtend(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+8*veld.Week)
	require.NoError(t, err)
	oldEnd := roundDownWeek(f.now + 8*veld.Week)

	_, err = f.esc.IncreaseUnlockTime(f.env(acc), f.now+16*veld.Week)
	require.NoError(t, err)
	newEnd := roundDownWeek(f.now + 16*veld.Week)

	// the magnitude moves from the old expiry to the new one
	m, err := f.esc.ldg.GetSlopeChange(oldEnd)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Sign())
	m, err = f.esc.ldg.GetSlopeChange(newEnd)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), m)

	// the old expiry no longer dents the supply curve
	f.advance(9 * veld.Week)
	supply, err := f.esc.TotalSupply(f.now)
	require.NoError(t, err)
	want := new(big.Int).SetUint64(1000 * (newEnd - f.now))
	assert.Equal(t, want, supply)
}

func TestRescheduleOnTopUp(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	_, err := f.esc.CreateLock(f.env(acc), amount, f.now+8*veld.Week)
	require.NoError(t, err)
	end := roundDownWeek(f.now + 8*veld.Week)

	// a top-up at the same expiry replaces the scheduled magnitude
	_, err = f.esc.IncreaseAmount(f.env(acc), amount)
	require.NoError(t, err)
	m, err := f.esc.ldg.GetSlopeChange(end)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), m)
}
