// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package veld

// Constants of the escrow protocol.
const (
	// BlockInterval time interval between two consecutive blocks, in seconds.
	BlockInterval uint64 = 10

	// Week length of a lock-time rounding period, in seconds.
	// All unlock times are rounded down to whole weeks.
	Week uint64 = 7 * 24 * 3600

	// MaxLockTime the longest allowed lock duration, in seconds (4 years).
	// A lock of MaxLockTime yields voting power equal to the locked amount.
	MaxLockTime uint64 = 4 * 365 * 24 * 3600

	// MaxCheckpointSteps caps the number of week boundaries the global
	// checkpoint walker advances per call. Callers idle for longer than
	// MaxCheckpointSteps weeks must pump the checkpoint repeatedly.
	MaxCheckpointSteps = 255

	// MaxSearchIterations bounds history binary searches; enough for
	// 128-bit index ranges.
	MaxSearchIterations = 128
)

// Keys of governance params.
var (
	KeyExecutor = BytesToBytes32([]byte("executor"))
)
