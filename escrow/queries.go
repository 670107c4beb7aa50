// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/veldlabs/veld/escrow/reverts"
	"github.com/veldlabs/veld/veld"
)

// LockedBalanceOf returns the account's current lock.
func (e *Escrow) LockedBalanceOf(addr veld.Address) (*LockedBalance, error) {
	return e.ldg.GetLocked(addr)
}

// LockedEnd returns the account's lock expiry, 0 if none.
func (e *Escrow) LockedEnd(addr veld.Address) (uint64, error) {
	locked, err := e.ldg.GetLocked(addr)
	if err != nil {
		return 0, err
	}
	return locked.End, nil
}

// LastSlope returns the decay rate recorded in the account's most recent
// history entry.
func (e *Escrow) LastSlope(addr veld.Address) (*big.Int, error) {
	uEpoch, err := e.ldg.GetUserEpoch(addr)
	if err != nil {
		return nil, err
	}
	if uEpoch == 0 {
		return new(big.Int), nil
	}
	p, err := e.ldg.GetUserPoint(addr, uEpoch)
	if err != nil {
		return nil, err
	}
	return p.Slope, nil
}

// UserPointEpoch returns the account's history length; 0 means the
// account has never locked.
func (e *Escrow) UserPointEpoch(addr veld.Address) (uint64, error) {
	return e.ldg.GetUserEpoch(addr)
}

// UserPoint returns the account's history entry at the given epoch.
func (e *Escrow) UserPoint(addr veld.Address, epoch uint64) (*Point, error) {
	return e.ldg.GetUserPoint(addr, epoch)
}

// Epoch returns the current global history index.
func (e *Escrow) Epoch() (uint64, error) {
	return e.ldg.GetEpoch()
}

// Supply returns the running total of locked tokens. It is maintained by
// literal deposit/withdraw deltas, not derived from decay.
func (e *Escrow) Supply() (*big.Int, error) {
	return e.ldg.GetSupply()
}

// BalanceOf returns the account's voting power at time ts, projected
// from its most recent history entry. The projection is purely
// slope-based; the function between two consecutive account checkpoints
// is exactly linear.
func (e *Escrow) BalanceOf(addr veld.Address, ts uint64) (*big.Int, error) {
	uEpoch, err := e.ldg.GetUserEpoch(addr)
	if err != nil {
		return nil, err
	}
	if uEpoch == 0 {
		return new(big.Int), nil
	}
	lastPoint, err := e.ldg.GetUserPoint(addr, uEpoch)
	if err != nil {
		return nil, err
	}
	return lastPoint.ValueAt(ts), nil
}

// BalanceOfAt returns the account's voting power at a past block. The
// block's timestamp is estimated by linear interpolation between the
// global checkpoints bracketing it, extrapolating from the current
// time/block when the block falls in the most recent interval.
func (e *Escrow) BalanceOfAt(env *Env, addr veld.Address, block uint32) (*big.Int, error) {
	if block > env.Number {
		return nil, reverts.NewInvalidState("block is in the future")
	}

	// bracket the account's own history
	maxUserEpoch, err := e.ldg.GetUserEpoch(addr)
	if err != nil {
		return nil, err
	}
	uEpoch, err := e.searchUserEpoch(addr, block, maxUserEpoch)
	if err != nil {
		return nil, err
	}
	uPoint, err := e.ldg.GetUserPoint(addr, uEpoch)
	if err != nil {
		return nil, err
	}

	// bracket the global history to interpolate a timestamp for block
	maxEpoch, err := e.ldg.GetEpoch()
	if err != nil {
		return nil, err
	}
	epoch, err := e.searchEpoch(block, maxEpoch)
	if err != nil {
		return nil, err
	}
	point0, err := e.ldg.GetPoint(epoch)
	if err != nil {
		return nil, err
	}
	var dBlock, dt uint64
	if epoch < maxEpoch {
		point1, err := e.ldg.GetPoint(epoch + 1)
		if err != nil {
			return nil, err
		}
		dBlock = uint64(point1.Block - point0.Block)
		dt = point1.TS - point0.TS
	} else {
		dBlock = uint64(env.Number - point0.Block)
		dt = env.Time - point0.TS
	}

	blockTime := point0.TS
	if dBlock != 0 {
		blockTime += dt * uint64(block-point0.Block) / dBlock
	}
	return uPoint.ValueAt(blockTime), nil
}

// TotalSupply returns the total voting power at time ts, replaying the
// weekly decay walk from the latest global checkpoint without side
// effects.
func (e *Escrow) TotalSupply(ts uint64) (*big.Int, error) {
	epoch, err := e.ldg.GetEpoch()
	if err != nil {
		return nil, err
	}
	lastPoint, err := e.ldg.GetPoint(epoch)
	if err != nil {
		return nil, err
	}
	return e.supplyAt(lastPoint, ts)
}

// TotalSupplyAt returns the total voting power at a past block, by
// interpolating a timestamp for the block and replaying decay to it.
func (e *Escrow) TotalSupplyAt(env *Env, block uint32) (*big.Int, error) {
	if block > env.Number {
		return nil, reverts.NewInvalidState("block is in the future")
	}
	maxEpoch, err := e.ldg.GetEpoch()
	if err != nil {
		return nil, err
	}
	epoch, err := e.searchEpoch(block, maxEpoch)
	if err != nil {
		return nil, err
	}
	point, err := e.ldg.GetPoint(epoch)
	if err != nil {
		return nil, err
	}

	var dt uint64
	if epoch < maxEpoch {
		pointNext, err := e.ldg.GetPoint(epoch + 1)
		if err != nil {
			return nil, err
		}
		if point.Block != pointNext.Block {
			dt = uint64(block-point.Block) * (pointNext.TS - point.TS) / uint64(pointNext.Block-point.Block)
		}
	} else if point.Block != env.Number {
		dt = uint64(block-point.Block) * (env.Time - point.TS) / uint64(env.Number-point.Block)
	}
	return e.supplyAt(point, point.TS+dt)
}

// supplyAt replays the decay walk of the global point to time t,
// applying scheduled slope changes at each crossed week boundary. It is
// the read-only twin of the checkpoint walker's advancing loop,
// terminating exactly at t instead of recording history.
func (e *Escrow) supplyAt(point *Point, t uint64) (*big.Int, error) {
	if t < point.TS {
		return nil, reverts.NewInvalidState("time is before the latest checkpoint")
	}
	lastPoint := point.Copy()
	tI := roundDownWeek(lastPoint.TS)
	for range veld.MaxCheckpointSteps {
		tI += veld.Week
		dSlope := new(big.Int)
		if tI > t {
			tI = t
		} else {
			var err error
			if dSlope, err = e.ldg.GetSlopeChange(tI); err != nil {
				return nil, err
			}
		}
		elapsed := new(big.Int).SetUint64(tI - lastPoint.TS)
		lastPoint.Bias.Sub(lastPoint.Bias, elapsed.Mul(elapsed, lastPoint.Slope))
		if tI == t {
			break
		}
		lastPoint.Slope.Sub(lastPoint.Slope, dSlope)
		clamp(lastPoint.Slope)
		lastPoint.TS = tI
	}
	return clamp(lastPoint.Bias), nil
}

// searchEpoch finds the greatest global epoch whose point was recorded
// at or before block.
func (e *Escrow) searchEpoch(block uint32, maxEpoch uint64) (uint64, error) {
	lo, hi := uint64(0), maxEpoch
	for range veld.MaxSearchIterations {
		if lo >= hi {
			break
		}
		mid := (lo + hi + 1) / 2
		p, err := e.ldg.GetPoint(mid)
		if err != nil {
			return 0, err
		}
		if p.Block <= block {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// searchUserEpoch finds the greatest account epoch whose point was
// recorded at or before block.
func (e *Escrow) searchUserEpoch(addr veld.Address, block uint32, maxEpoch uint64) (uint64, error) {
	lo, hi := uint64(0), maxEpoch
	for range veld.MaxSearchIterations {
		if lo >= hi {
			break
		}
		mid := (lo + hi + 1) / 2
		p, err := e.ldg.GetUserPoint(addr, mid)
		if err != nil {
			return 0, err
		}
		if p.Block <= block {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
