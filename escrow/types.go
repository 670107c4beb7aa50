// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/veldlabs/veld/veld"
)

// LockedBalance is an account's lock: an amount of tokens committed until
// an absolute unlock time. End == 0 means no lock.
type LockedBalance struct {
	Amount *big.Int
	End    uint64
}

// IsEmpty returns whether the lock holds nothing.
func (l *LockedBalance) IsEmpty() bool {
	return (l.Amount == nil || l.Amount.Sign() == 0) && l.End == 0
}

// Copy returns a deep copy.
func (l *LockedBalance) Copy() *LockedBalance {
	return &LockedBalance{
		Amount: new(big.Int).Set(l.Amount),
		End:    l.End,
	}
}

func (l *LockedBalance) norm() *LockedBalance {
	if l.Amount == nil {
		l.Amount = new(big.Int)
	}
	return l
}

// Point is a sample of a decay line. It represents the function
//
//	value(t) = max(0, Bias - Slope*(t-TS)) for t >= TS
//
// valid until the next scheduled slope change.
type Point struct {
	Bias  *big.Int
	Slope *big.Int
	TS    uint64
	Block uint32
}

func (p *Point) norm() *Point {
	if p.Bias == nil {
		p.Bias = new(big.Int)
	}
	if p.Slope == nil {
		p.Slope = new(big.Int)
	}
	return p
}

// Copy returns a deep copy.
func (p *Point) Copy() *Point {
	return &Point{
		Bias:  new(big.Int).Set(p.Bias),
		Slope: new(big.Int).Set(p.Slope),
		TS:    p.TS,
		Block: p.Block,
	}
}

// ValueAt projects the decay line to time t and returns the clamped value.
// The projection is exact between two consecutive samples because the
// slope is recorded once per mutation.
func (p *Point) ValueAt(t uint64) *big.Int {
	dt := timeDelta(p.TS, t)
	v := new(big.Int).Mul(p.Slope, dt)
	v.Sub(p.Bias, v)
	return clamp(v)
}

// lineFor computes the decay line of a lock observed at time now.
// Slope truncates toward zero; a lock of veld.MaxLockTime therefore
// yields a bias slightly below the locked amount.
func lineFor(amount *big.Int, end, now uint64) *Point {
	p := &Point{Bias: new(big.Int), Slope: new(big.Int), TS: now}
	if end > now && amount.Sign() > 0 {
		p.Slope.Div(amount, new(big.Int).SetUint64(veld.MaxLockTime))
		p.Bias.Mul(p.Slope, new(big.Int).SetUint64(end-now))
	}
	return p
}

// clamp floors v at zero in place and returns it. Decay arithmetic can
// transiently undershoot zero due to truncation; negative values must
// never be observed.
func clamp(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		v.SetUint64(0)
	}
	return v
}

// timeDelta returns t1-t0 as a signed big.Int.
func timeDelta(t0, t1 uint64) *big.Int {
	d := new(big.Int).SetUint64(t1)
	return d.Sub(d, new(big.Int).SetUint64(t0))
}

// roundDownWeek rounds t down to a whole-week boundary.
func roundDownWeek(t uint64) uint64 {
	return t / veld.Week * veld.Week
}
