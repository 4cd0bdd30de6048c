// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// RewardDestination selects where era rewards for a stash are paid.
type RewardDestination uint8

const (
	// DestinationStaked pays into the stash account and re-bonds the amount.
	DestinationStaked RewardDestination = iota
	// DestinationStash pays into the stash account without bonding.
	DestinationStash
	// DestinationController pays into the controller account.
	DestinationController
)

// UnlockChunk is a portion of funds scheduled to unlock at a given era.
type UnlockChunk struct {
	Value *big.Int
	Era   vesta.EraIndex
}

// StakingLedger is the locked-fund bookkeeping of one bonded stash.
// Invariant: Total == Active + sum of Unlocking values.
type StakingLedger struct {
	// Stash is the account whose balance is locked and at stake.
	Stash vesta.Address
	// Total is the whole amount accounted for, active plus unlocking.
	Total *big.Int
	// Active is the amount at stake in forthcoming eras.
	Active *big.Int
	// Unlocking holds scheduled unlocks, soonest first.
	Unlocking []UnlockChunk
}

// NewStakingLedger creates a ledger with the whole value active.
func NewStakingLedger(stash vesta.Address, value *big.Int) *StakingLedger {
	return &StakingLedger{
		Stash:  stash,
		Total:  new(big.Int).Set(value),
		Active: new(big.Int).Set(value),
	}
}

// IsEmpty reports whether the ledger holds nothing.
func (l *StakingLedger) IsEmpty() bool {
	return l.Stash.IsZero()
}

// Consolidate removes entries from Unlocking that have passed their unlock
// era and reduces Total by the sum of their values.
func (l *StakingLedger) Consolidate(currentEra vesta.EraIndex) {
	kept := l.Unlocking[:0]
	for _, chunk := range l.Unlocking {
		if chunk.Era > currentEra {
			kept = append(kept, chunk)
		} else {
			l.Total.Sub(l.Total, chunk.Value)
			if l.Total.Sign() < 0 {
				l.Total.SetInt64(0)
			}
		}
	}
	l.Unlocking = kept
}

// Slash deducts up to value from the ledger and returns the amount actually
// slashed. Active funds go first, then unlocking chunks in queue order
// (soonest to unlock first). Any balance left at or below minimumBalance is
// swept entirely: the swept remainder grows the amount still to slash, so
// dust is never left stranded.
func (l *StakingLedger) Slash(value, minimumBalance *big.Int) *big.Int {
	remaining := new(big.Int).Set(value)
	preTotal := new(big.Int).Set(l.Total)

	slashOutOf := func(target *big.Int) {
		slashFromTarget := new(big.Int).Set(remaining)
		if slashFromTarget.Cmp(target) > 0 {
			slashFromTarget.Set(target)
		}
		if slashFromTarget.Sign() == 0 {
			return
		}
		target.Sub(target, slashFromTarget)

		// don't leave a dust balance in the staking system
		if target.Cmp(minimumBalance) <= 0 {
			slashFromTarget.Add(slashFromTarget, target)
			remaining.Add(remaining, target)
			target.SetInt64(0)
		}

		l.Total.Sub(l.Total, slashFromTarget)
		if l.Total.Sign() < 0 {
			l.Total.SetInt64(0)
		}
		remaining.Sub(remaining, slashFromTarget)
	}

	slashOutOf(l.Active)

	drained := 0
	for _, chunk := range l.Unlocking {
		slashOutOf(chunk.Value)
		if chunk.Value.Sign() != 0 {
			break
		}
		drained++
	}
	// kill all drained chunks
	l.Unlocking = append(l.Unlocking[:0:0], l.Unlocking[drained:]...)

	return new(big.Int).Sub(preTotal, l.Total)
}
