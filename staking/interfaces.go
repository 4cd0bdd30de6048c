// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// TimeSource supplies the current wall-clock time in unix milliseconds.
// It must be monotonically non-decreasing across calls.
type TimeSource interface {
	Now() uint64
}

// IssuanceOracle reports the total circulating supply, the denominator of
// the inflation curve.
type IssuanceOracle interface {
	TotalIssuance() (*big.Int, error)
}

// WorkloadOracle reports externally measured service capacity. Stake
// limits are derived from it once per era.
type WorkloadOracle interface {
	// Workloads returns the stash's own workload score and the network
	// total, advancing any per-era bookkeeping the oracle keeps.
	Workloads(stash vesta.Address) (own, total uint64, err error)
}

// SessionInterface is the consensus session machinery this core decides
// validator sets for.
type SessionInterface interface {
	// DisableValidator disables the validator for the rest of the session.
	// It reports whether enough validators are now disabled that a new era
	// should be forced.
	DisableValidator(validator vesta.Address) (bool, error)
	// PruneHistoricalUpTo drops historical validator-identity records
	// older than the given session.
	PruneHistoricalUpTo(session vesta.SessionIndex)
}

// RewardRemainder receives the part of the era's maximum payout that was
// not distributed to stakers, typically a treasury.
type RewardRemainder interface {
	OnRewardRemainder(*big.Int) error
}
