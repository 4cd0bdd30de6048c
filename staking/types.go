// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking is the economic-security core: it tracks bonded funds,
// elects the validator set from stake-weighted nominations, distributes era
// rewards and punishes offences by slashing. Everything is a deterministic
// state transition over the key-value state; the era rollover commits
// atomically.
package staking

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// ValidatorPrefs is a stash's declaration of candidacy.
type ValidatorPrefs struct {
	// Commission is the fraction of the era reward taken off the top
	// before the pro-rata split with nominators.
	Commission vesta.Perbill
}

// Nominations is one nominator's standing vote set.
type Nominations struct {
	// Targets are the approved validator stashes, registration order.
	Targets []vesta.Address
	// SubmittedIn is the era the nomination was registered in. Approvals
	// predating a target's latest slashing span are discounted.
	SubmittedIn vesta.EraIndex
	// Suppressed flags nominations disabled without being removed.
	Suppressed bool
}

// IndividualExposure is one nominator's stake behind a validator.
type IndividualExposure struct {
	Who   vesta.Address
	Value *big.Int
}

// Exposure is the stake snapshot backing one elected validator for the
// current era. It is fully replaced by each successful election.
type Exposure struct {
	// Total is Own plus the sum of Others.
	Total *big.Int
	// Own is the validator's self-bonded stake.
	Own *big.Int
	// Others lists nominator contributions.
	Others []IndividualExposure
}

// Forcing controls whether the next session boundary also rolls the era.
type Forcing uint8

const (
	// NotForcing lets eras roll at their natural length.
	NotForcing Forcing = iota
	// ForceNew rolls the era at the next session, then resets to NotForcing.
	ForceNew
	// ForceNone suspends era rollover entirely.
	ForceNone
	// ForceAlways rolls the era at every session boundary.
	ForceAlways
)

// EraPoints tracks reward points accrued in the current era, indexed by
// position in the elected validator list.
type EraPoints struct {
	Total      uint32
	Individual []uint32
}

// EraSession is one BondedEras history entry.
type EraSession struct {
	Era     vesta.EraIndex
	Session vesta.SessionIndex
}

// Reward points credited per block, following the block-authoring scheme:
// the producer earns the full author amount, referencing or being
// referenced by an uncle earns the smaller amounts.
const (
	PointsPerAuthor      uint32 = 20
	PointsPerUncleRef    uint32 = 2
	PointsPerUncleAuthor uint32 = 1
)
