// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health reports node liveness for probes and load balancers.
package health

import (
	"time"

	"github.com/veldlabs/veld/node"
)

// Status is the probe reading.
type Status struct {
	Healthy    bool   `json:"healthy"`
	HeadNumber uint32 `json:"headNumber"`
	HeadTime   uint64 `json:"headTime"`
	Epoch      uint64 `json:"epoch"`
}

// Health answers liveness probes against the running node.
type Health struct {
	node *node.Node
}

func New(n *node.Node) *Health {
	return &Health{node: n}
}

// Status checks that the state answers queries and that the head clock is
// not running ahead of the wall clock.
func (h *Health) Status() *Status {
	number, ts := h.node.Head()
	status := &Status{
		HeadNumber: number,
		HeadTime:   ts,
	}
	epoch, err := h.node.Epoch()
	if err != nil {
		return status
	}
	status.Epoch = epoch
	// mutations bump the head clock by at least a second each; a head far
	// in the future means the clock went backwards
	status.Healthy = ts <= uint64(time.Now().Unix())+60
	return status
}
