// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vestachain/vesta/staking/election"
	"github.com/vestachain/vesta/staking/inflation"
	"github.com/vestachain/vesta/vesta"
)

// OnSessionEnd is invoked by the session collaborator at every session
// boundary. When the era rolls it returns the elected validator list for
// the new era and true; otherwise the set is unchanged and it returns
// nil and false. The whole rollover commits atomically.
func (s *Staking) OnSessionEnd(endingSession, nextSession vesta.SessionIndex) (validators []vesta.Address, rolled bool, err error) {
	err = s.atomically(func() error {
		forcing, err := s.forceEra.Get()
		if err != nil {
			return err
		}

		roll := false
		switch forcing {
		case ForceAlways:
			roll = true
		case ForceNew:
			roll = true
			// ForceNew is consumed by the rollover it triggers
			if err := s.forceEra.Set(NotForcing); err != nil {
				return err
			}
		case ForceNone:
		default:
			start, err := s.eraStartSession.Get()
			if err != nil {
				return err
			}
			roll = nextSession-start >= s.config.SessionsPerEra
		}
		if !roll {
			return nil
		}

		elected, err := s.newEra(nextSession)
		if err != nil {
			return err
		}
		validators, rolled = elected, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return validators, rolled, nil
}

// newEra rolls the era: payout, era increment with history pruning,
// election, deferred slash application and stake-limit enforcement, in
// that order.
func (s *Staking) newEra(startSession vesta.SessionIndex) ([]vesta.Address, error) {
	if err := s.payoutEra(); err != nil {
		return nil, err
	}

	era, err := s.currentEra.Get()
	if err != nil {
		return nil, err
	}
	era++
	if err := s.currentEra.Set(era); err != nil {
		return nil, err
	}
	if err := s.eraStartSession.Set(startSession); err != nil {
		return nil, err
	}
	if err := s.pruneBondedEras(era, startSession); err != nil {
		return nil, err
	}

	if err := s.selectValidators(); err != nil {
		return nil, err
	}

	if err := s.applyUnappliedSlashes(era); err != nil {
		return nil, err
	}

	elected, err := s.updateStakeLimits()
	if err != nil {
		return nil, err
	}

	metricErasRolled().Add(1)
	metricElectedCount().Set(int64(len(elected)))
	logger.Info("era rolled", "era", era, "elected", len(elected))
	return elected, nil
}

// payoutEra distributes the ending era's inflation among the elected
// validators in proportion to their reward points, then resets the point
// accumulator and the era clock.
func (s *Staking) payoutEra() error {
	points, err := s.eraPoints.Get()
	if err != nil {
		return err
	}
	s.eraPoints.Clear()

	now := s.time.Now()
	prevStart, err := s.currentEraStart.Get()
	if err != nil {
		return err
	}
	if err := s.currentEraStart.Set(now); err != nil {
		return err
	}
	if prevStart == 0 || now <= prevStart {
		// first era, or a clock that has not advanced: nothing to pay
		return nil
	}
	duration := now - prevStart

	validators, err := s.currentElected.Get()
	if err != nil {
		return err
	}
	if len(validators) == 0 || points.Total == 0 {
		return nil
	}

	slot, err := s.slotStake.Get()
	if err != nil {
		return err
	}
	rewardedStake := new(big.Int).Mul(slot, big.NewInt(int64(len(validators))))
	issuance, err := s.issuance.TotalIssuance()
	if err != nil {
		return err
	}
	totalPayout, maxPayout := inflation.ComputeTotalPayout(s.config.RewardCurve, rewardedStake, issuance, duration)

	distributed := new(big.Int)
	for i, validator := range validators {
		if i >= len(points.Individual) || points.Individual[i] == 0 {
			continue
		}
		reward := new(big.Int).Mul(totalPayout, new(big.Int).SetUint64(uint64(points.Individual[i])))
		reward.Quo(reward, new(big.Int).SetUint64(uint64(points.Total)))
		paid, err := s.rewardValidator(validator, reward)
		if err != nil {
			return err
		}
		distributed.Add(distributed, paid)
	}

	if distributed.IsInt64() {
		metricPayoutTotals().Observe(distributed.Int64())
	}

	if rest := new(big.Int).Sub(maxPayout, distributed); rest.Sign() > 0 {
		if err := s.remainder.OnRewardRemainder(rest); err != nil {
			return err
		}
	}
	return nil
}

// rewardValidator pays one validator's era reward: commission off the top
// to the validator, the remainder pro-rata by exposure share. Returns the
// amount actually delivered.
func (s *Staking) rewardValidator(stash vesta.Address, reward *big.Int) (*big.Int, error) {
	prefs, err := s.validators.Get(stash)
	if err != nil {
		return nil, err
	}
	offTheTable := prefs.Commission.Mul(reward)
	share := new(big.Int).Sub(reward, offTheTable)

	distributed := new(big.Int)
	exposure, err := s.ExposureOf(stash)
	if err != nil {
		return nil, err
	}
	if exposure.Total.Sign() > 0 && share.Sign() > 0 {
		for _, nom := range exposure.Others {
			amount := new(big.Int).Mul(share, nom.Value)
			amount.Quo(amount, exposure.Total)
			if amount.Sign() == 0 {
				continue
			}
			if err := s.ledger.MakePayout(nom.Who, amount); err != nil {
				return nil, err
			}
			distributed.Add(distributed, amount)
		}
		own := new(big.Int).Mul(share, exposure.Own)
		own.Quo(own, exposure.Total)
		offTheTable.Add(offTheTable, own)
	}
	if offTheTable.Sign() > 0 {
		if err := s.ledger.MakePayout(stash, offTheTable); err != nil {
			return nil, err
		}
		distributed.Add(distributed, offTheTable)
	}
	return distributed, nil
}

// pruneBondedEras records the new era in the bonded history and drops
// entries older than the bonding duration, garbage-collecting the slash
// metadata of each pruned era and telling the session collaborator how far
// back identity records are still needed.
func (s *Staking) pruneBondedEras(era vesta.EraIndex, startSession vesta.SessionIndex) error {
	bonded, err := s.bondedEras.Get()
	if err != nil {
		return err
	}
	bonded = append(bonded, EraSession{Era: era, Session: startSession})

	if era > s.config.BondingDuration {
		firstKept := era - s.config.BondingDuration
		pruned := 0
		for pruned < len(bonded) && bonded[pruned].Era < firstKept {
			if err := s.slashing.ClearEraMetadata(bonded[pruned].Era); err != nil {
				return err
			}
			pruned++
		}
		if pruned > 0 {
			bonded = append(bonded[:0:0], bonded[pruned:]...)
			s.sessions.PruneHistoricalUpTo(bonded[0].Session)
		}
	}
	return s.bondedEras.Set(bonded)
}

// selectValidators runs the election and, on success, replaces the elected
// list, every exposure and the slot stake. A degraded election keeps the
// previous era's set untouched.
func (s *Staking) selectValidators() error {
	candidates, err := s.validatorList.All()
	if err != nil {
		return err
	}
	toElect, err := s.desiredValidatorCount()
	if err != nil {
		return err
	}
	minimum, err := s.minimumValidatorCount()
	if err != nil {
		return err
	}
	if minimum < 1 {
		minimum = 1
	}

	voters := make([]election.Voter, 0, len(candidates))
	for _, candidate := range candidates {
		voters = append(voters, election.Voter{
			Who:     candidate,
			Stake:   s.ledger.ActiveOf(candidate),
			Targets: []vesta.Address{candidate},
		})
	}
	if err := s.nominatorVotes(&voters); err != nil {
		return err
	}

	result, ok := election.Elect(candidates, voters, int(toElect), int(minimum))
	if !ok {
		logger.Warn("election degraded, keeping previous validator set",
			"candidates", len(candidates), "minimum", minimum)
		return nil
	}

	previous, err := s.currentElected.Get()
	if err != nil {
		return err
	}
	for _, old := range previous {
		if err := s.stakers.Remove(old); err != nil {
			return err
		}
	}

	var slot *big.Int
	for _, winner := range result.Elected {
		support := result.Supports[winner]
		exposure := &Exposure{
			Total: support.Total,
			Own:   support.Own,
		}
		for _, backer := range support.Others {
			exposure.Others = append(exposure.Others, IndividualExposure{Who: backer.Who, Value: backer.Value})
		}
		if err := s.stakers.Set(winner, exposure); err != nil {
			return err
		}
		if slot == nil || support.Total.Cmp(slot) < 0 {
			slot = support.Total
		}
	}
	if slot != nil {
		s.slotStake.Set(slot)
	}
	return s.currentElected.Set(result.Elected)
}

// nominatorVotes appends the filtered nominator votes. A target is dropped
// when its latest slashing span started after the nomination was
// submitted: stale approval following a slash must not count.
func (s *Staking) nominatorVotes(voters *[]election.Voter) error {
	return s.nominatorList.Iter(func(nominator vesta.Address) error {
		noms, err := s.nominators.Get(nominator)
		if err != nil {
			return err
		}
		if noms.Suppressed {
			return nil
		}
		targets := make([]vesta.Address, 0, len(noms.Targets))
		for _, target := range noms.Targets {
			lastStart, has, err := s.slashing.SpanLastStart(target)
			if err != nil {
				return err
			}
			if has && lastStart > noms.SubmittedIn {
				continue
			}
			targets = append(targets, target)
		}
		if len(targets) == 0 {
			return nil
		}
		*voters = append(*voters, election.Voter{
			Who:     nominator,
			Stake:   s.ledger.ActiveOf(nominator),
			Targets: targets,
		})
		return nil
	})
}

// applyUnappliedSlashes irreversibly applies every deferred slash whose
// computation era has fallen behind the defer window.
func (s *Staking) applyUnappliedSlashes(era vesta.EraIndex) error {
	has, err := s.earliestSlash.Has()
	if err != nil || !has {
		return err
	}
	earliest, err := s.earliestSlash.Get()
	if err != nil {
		return err
	}
	if era < s.config.SlashDeferDuration {
		return nil
	}
	applyThrough := era - s.config.SlashDeferDuration

	for e := earliest; e <= applyThrough; e++ {
		queue, err := s.slashing.Unapplied(e)
		if err != nil {
			return err
		}
		for _, un := range queue {
			if err := s.slashing.ApplySlash(un); err != nil {
				return err
			}
			metricSlashesApplied().Add(1)
		}
		if err := s.slashing.ClearEraMetadata(e); err != nil {
			return err
		}
	}
	if applyThrough+1 > earliest {
		return s.earliestSlash.Set(applyThrough + 1)
	}
	return nil
}

// updateStakeLimits refreshes every registered validator's stake limit
// from the workload oracle and enforces it against the elected set. A
// validator whose refreshed limit is zero loses its seat and records.
func (s *Staking) updateStakeLimits() ([]vesta.Address, error) {
	issuance, err := s.issuance.TotalIssuance()
	if err != nil {
		return nil, err
	}
	registered, err := s.validatorList.All()
	if err != nil {
		return nil, err
	}
	for _, stash := range registered {
		own, total, err := s.workloads.Workloads(stash)
		if err != nil {
			return nil, err
		}
		limit := new(big.Int)
		if total != 0 {
			// a network without workload backs no stake at all
			limit, _ = LimitOf(own, total, issuance)
		}
		if err := s.stakeLimits.Set(stash, limit); err != nil {
			return nil, err
		}
	}

	elected, err := s.currentElected.Get()
	if err != nil {
		return nil, err
	}
	final := make([]vesta.Address, 0, len(elected))
	for _, validator := range elected {
		limit, err := s.stakeLimitOf(validator)
		if err != nil {
			return nil, err
		}
		if limit == nil || limit.Sign() == 0 {
			logger.Info("validator lost its seat, zero stake limit", "stash", validator)
			if err := s.stakers.Remove(validator); err != nil {
				return nil, err
			}
			if err := s.stakeLimits.Remove(validator); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.enforceStakeLimit(validator, limit); err != nil {
			return nil, err
		}
		final = append(final, validator)
	}
	if err := s.currentElected.Set(final); err != nil {
		return nil, err
	}
	return final, nil
}
