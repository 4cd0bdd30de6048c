// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/vestachain/vesta/metrics"

// payoutBuckets spans the expected per-era payout totals.
var payoutBuckets = []int64{0, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000}

var (
	metricErasRolled      = metrics.LazyLoadCounter("eras_rolled_count")
	metricElectedCount    = metrics.LazyLoadGauge("elected_validators_gauge")
	metricPayoutTotals    = metrics.LazyLoadHistogram("era_payout_totals", payoutBuckets)
	metricSlashesComputed = metrics.LazyLoadCounter("slashes_computed_count")
	metricSlashesApplied  = metrics.LazyLoadCounter("slashes_applied_count")
	metricOffences        = metrics.LazyLoadCounterVec("offences_count", []string{"outcome"})
)
