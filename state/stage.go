// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/veldlabs/veld/kv"

// Stage abstracts buffered state changes pending persistence.
type Stage struct {
	batch kv.Batch
}

// Len returns the number of pending write ops.
func (s *Stage) Len() int {
	return s.batch.Len()
}

// Commit persists all staged changes atomically.
func (s *Stage) Commit() error {
	if err := s.batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
