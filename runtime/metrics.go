// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/swipegov/sxpgov/metrics"

var (
	metricTxCount     = metrics.LazyLoadCounterVec("runtime_tx_count", []string{"result"})
	metricRevertCount = metrics.LazyLoadCounterVec("runtime_revert_count", []string{"kind"})
	metricBlockCount  = metrics.LazyLoadCounter("runtime_block_count")
	metricBestBlock   = metrics.LazyLoadGauge("runtime_best_block")
)
