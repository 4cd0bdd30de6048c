// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesta

import "math/big"

// EraIndex counts eras, the multi-session epochs at which validator sets,
// rewards and slashes are finalized.
type EraIndex = uint32

// SessionIndex counts consensus-layer sessions. Several sessions compose
// one era.
type SessionIndex = uint32

// Constants of the staking protocol.
const (
	// MaxNominations is the maximum number of targets one nominator may vote for.
	MaxNominations = 16

	// MaxUnlockingChunks is the maximum number of scheduled unlocks that can
	// coexist on one ledger. withdraw_unbonded must be called to free slots.
	MaxUnlockingChunks = 32

	// InitialSessionsPerEra is the default number of sessions in one era.
	InitialSessionsPerEra SessionIndex = 6

	// InitialBondingDuration is the default number of eras locked funds must
	// remain bonded after unbonding is scheduled.
	InitialBondingDuration EraIndex = 28

	// InitialSlashDeferDuration is the default number of eras a computed
	// slash is held in the pending queue before irreversible application.
	InitialSlashDeferDuration EraIndex = 7

	// InitialMinimumValidatorCount is the floor below which an election is
	// reported as degraded rather than enacted.
	InitialMinimumValidatorCount uint32 = 4

	// InitialValidatorCount is the default desired validator set size.
	InitialValidatorCount uint32 = 21

	// MillisecondsPerYear is used to scale the era payout against the
	// annualized inflation curve. Based on the julian year of 365.25 days.
	MillisecondsPerYear uint64 = 1000 * 3600 * 24 * 36525 / 100
)

// InitialExistentialDeposit is the default minimum amount that may remain
// actively bonded. Anything below it is treated as dust and swept.
var InitialExistentialDeposit = big.NewInt(1_000_000)

// InitialSlashRewardFraction is the default share of a slash paid out to
// offence reporters.
var InitialSlashRewardFraction = FromPercent(10)
