// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/veldlabs/veld/veld"
)

// blockTimeMultiplier scales the blocks-per-second estimate used to
// back-fill block numbers of synthetic checkpoints.
var blockTimeMultiplier = big.NewInt(1e18)

// checkpoint advances the global point history to env's time, applying
// scheduled slope changes week by week, and, when addr is non-nil, folds
// the account's old/new decay-line delta into the latest point and
// appends the account's own history entry.
//
// At most veld.MaxCheckpointSteps week boundaries are advanced per call.
// A caller idle for longer than that must invoke the bare checkpoint
// repeatedly to fully catch up.
func (e *Escrow) checkpoint(env *Env, addr *veld.Address, oldLocked, newLocked *LockedBalance) error {
	var (
		uOld      = (&Point{}).norm()
		uNew      = (&Point{}).norm()
		oldDslope = new(big.Int)
		newDslope = new(big.Int)
		err       error
	)

	if addr != nil {
		uOld = lineFor(oldLocked.Amount, oldLocked.End, env.Time)
		uNew = lineFor(newLocked.Amount, newLocked.End, env.Time)

		// read the schedule entries affected by the old/new expiries
		if oldDslope, err = e.ldg.GetSlopeChange(oldLocked.End); err != nil {
			return err
		}
		if newLocked.End != 0 {
			if newLocked.End == oldLocked.End {
				newDslope = oldDslope
			} else if newDslope, err = e.ldg.GetSlopeChange(newLocked.End); err != nil {
				return err
			}
		}
	}

	epoch, err := e.ldg.GetEpoch()
	if err != nil {
		return err
	}

	lastPoint := &Point{Bias: new(big.Int), Slope: new(big.Int), TS: env.Time, Block: env.Number}
	if epoch > 0 {
		if lastPoint, err = e.ldg.GetPoint(epoch); err != nil {
			return err
		}
	}

	if addr == nil && epoch > 0 && lastPoint.TS == env.Time {
		// nothing elapsed; the bare maintenance call is a no-op
		return nil
	}

	lastCheckpoint := lastPoint.TS
	initialPoint := lastPoint.Copy()

	// blocks per second scaled by blockTimeMultiplier, for back-filling
	// block numbers of synthetic points
	blockSlope := new(big.Int)
	if env.Time > lastPoint.TS {
		blockSlope.SetUint64(uint64(env.Number) - uint64(lastPoint.Block))
		blockSlope.Mul(blockSlope, blockTimeMultiplier)
		blockSlope.Div(blockSlope, new(big.Int).SetUint64(env.Time-lastPoint.TS))
	}

	steps := 0
	tI := roundDownWeek(lastCheckpoint)
	for range veld.MaxCheckpointSteps {
		tI += veld.Week
		dSlope := new(big.Int)
		if tI > env.Time {
			tI = env.Time
		} else if dSlope, err = e.ldg.GetSlopeChange(tI); err != nil {
			return err
		}

		elapsed := new(big.Int).SetUint64(tI - lastCheckpoint)
		lastPoint.Bias.Sub(lastPoint.Bias, elapsed.Mul(elapsed, lastPoint.Slope))
		lastPoint.Slope.Sub(lastPoint.Slope, dSlope)
		clamp(lastPoint.Bias)
		clamp(lastPoint.Slope)

		lastCheckpoint = tI
		lastPoint.TS = tI
		blk := new(big.Int).SetUint64(tI - initialPoint.TS)
		blk.Mul(blk, blockSlope)
		blk.Div(blk, blockTimeMultiplier)
		lastPoint.Block = initialPoint.Block + uint32(blk.Uint64())

		epoch++
		steps++
		if tI == env.Time {
			// the final point carries the real block number, not the
			// interpolated estimate; it is persisted below, after the
			// account delta is folded in
			lastPoint.Block = env.Number
			break
		}
		if err := e.ldg.SetPoint(epoch, lastPoint); err != nil {
			return err
		}
	}

	if addr != nil {
		lastPoint.Slope.Add(lastPoint.Slope, uNew.Slope)
		lastPoint.Slope.Sub(lastPoint.Slope, uOld.Slope)
		lastPoint.Bias.Add(lastPoint.Bias, uNew.Bias)
		lastPoint.Bias.Sub(lastPoint.Bias, uOld.Bias)
		clamp(lastPoint.Slope)
		clamp(lastPoint.Bias)
	}

	if err := e.ldg.SetEpoch(epoch); err != nil {
		return err
	}
	if err := e.ldg.SetPoint(epoch, lastPoint); err != nil {
		return err
	}

	if addr != nil {
		if err := e.reschedule(env, oldLocked, newLocked, uOld, uNew, oldDslope, newDslope); err != nil {
			return err
		}

		userEpoch, err := e.ldg.GetUserEpoch(*addr)
		if err != nil {
			return err
		}
		userEpoch++
		uNew.TS = env.Time
		uNew.Block = env.Number
		if err := e.ldg.SetUserEpoch(*addr, userEpoch); err != nil {
			return err
		}
		if err := e.ldg.SetUserPoint(*addr, userEpoch, uNew); err != nil {
			return err
		}
	}

	metricCheckpointSteps().Observe(int64(steps))
	logger.Debug("checkpoint advanced", "epoch", epoch, "steps", steps, "ts", env.Time)
	return nil
}

// reschedule maintains the slope-change schedule around an account
// mutation. Entries hold the magnitude of decay-rate reduction applied
// when the keyed expiry is crossed.
func (e *Escrow) reschedule(env *Env, oldLocked, newLocked *LockedBalance, uOld, uNew *Point, oldDslope, newDslope *big.Int) error {
	if oldLocked.End > env.Time {
		// the old expiry no longer needs to remove the account's old slope
		oldDslope.Sub(oldDslope, uOld.Slope)
		if newLocked.End == oldLocked.End {
			oldDslope.Add(oldDslope, uNew.Slope)
		}
		clamp(oldDslope)
		if err := e.ldg.SetSlopeChange(oldLocked.End, oldDslope); err != nil {
			return err
		}
	}
	if newLocked.End > env.Time && newLocked.End > oldLocked.End {
		newDslope.Add(newDslope, uNew.Slope)
		if err := e.ldg.SetSlopeChange(newLocked.End, newDslope); err != nil {
			return err
		}
	}
	return nil
}
