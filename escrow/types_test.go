// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veldlabs/veld/veld"
)

func TestRoundDownWeek(t *testing.T) {
	assert.Equal(t, uint64(0), roundDownWeek(0))
	assert.Equal(t, uint64(0), roundDownWeek(veld.Week-1))
	assert.Equal(t, uint64(veld.Week), roundDownWeek(veld.Week))
	assert.Equal(t, uint64(veld.Week), roundDownWeek(veld.Week+1))
	assert.Equal(t, genesisTime, roundDownWeek(genesisTime+veld.Week/2))
}

func TestLineFor(t *testing.T) {
	now := genesisTime
	amount := new(big.Int).SetUint64(1000 * veld.MaxLockTime)

	p := lineFor(amount, now+veld.MaxLockTime, now)
	assert.Equal(t, big.NewInt(1000), p.Slope)
	assert.Equal(t, new(big.Int).SetUint64(1000*veld.MaxLockTime), p.Bias)

	// halving the remaining time halves the bias, not the slope
	p = lineFor(amount, now+veld.MaxLockTime/2, now)
	assert.Equal(t, big.NewInt(1000), p.Slope)
	assert.Equal(t, new(big.Int).SetUint64(500*veld.MaxLockTime), p.Bias)

	// expired and empty locks are flat zero lines
	p = lineFor(amount, now, now)
	assert.Equal(t, 0, p.Slope.Sign())
	assert.Equal(t, 0, p.Bias.Sign())
	p = lineFor(new(big.Int), now+veld.Week, now)
	assert.Equal(t, 0, p.Slope.Sign())
	assert.Equal(t, 0, p.Bias.Sign())

	// slope truncates toward zero for amounts below the max lock time
	p = lineFor(new(big.Int).SetUint64(veld.MaxLockTime-1), now+veld.MaxLockTime, now)
	assert.Equal(t, 0, p.Slope.Sign())
	assert.Equal(t, 0, p.Bias.Sign())
}

func TestPointValueAt(t *testing.T) {
	p := &Point{
		Bias:  big.NewInt(1000),
		Slope: big.NewInt(10),
		TS:    genesisTime,
	}

	assert.Equal(t, big.NewInt(1000), p.ValueAt(genesisTime))
	assert.Equal(t, big.NewInt(500), p.ValueAt(genesisTime+50))
	assert.Equal(t, 0, p.ValueAt(genesisTime+100).Sign())
	// past the zero crossing the value stays clamped at zero
	assert.Equal(t, 0, p.ValueAt(genesisTime+10000).Sign())
}

func TestLockedBalanceCopy(t *testing.T) {
	l := &LockedBalance{Amount: big.NewInt(42), End: genesisTime}
	c := l.Copy()
	c.Amount.SetUint64(7)
	c.End = 0
	assert.Equal(t, big.NewInt(42), l.Amount)
	assert.Equal(t, genesisTime, l.End)

	assert.True(t, (&LockedBalance{Amount: new(big.Int)}).IsEmpty())
	assert.False(t, l.IsEmpty())
}

func TestClamp(t *testing.T) {
	// comparisons go through Sign/Cmp, a clamped zero can carry a
	// different internal representation than a fresh one
	assert.Equal(t, 0, clamp(big.NewInt(-5)).Sign())
	assert.Equal(t, 0, clamp(big.NewInt(5)).Cmp(big.NewInt(5)))
	assert.Equal(t, 0, clamp(big.NewInt(0)).Sign())
}
