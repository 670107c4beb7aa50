// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import "github.com/veldlabs/veld/metrics"

var (
	metricMutations = metrics.LazyLoadCounterVec("escrow_mutations_total", []string{"kind", "status"})
	metricCheckpointSteps = metrics.LazyLoadHistogram("escrow_checkpoint_steps", []int64{
		0, 1, 2, 5, 10, 25, 50, 100, 255,
	})
	metricSupplyGauge = metrics.LazyLoadGauge("escrow_locked_supply")
)

func metricsHandleMutation(kind DepositKind, err error) {
	status := "ok"
	if err != nil {
		status = "reverted"
	}
	metricMutations().AddWithLabel(1, map[string]string{"kind": kind.String(), "status": status})
}
