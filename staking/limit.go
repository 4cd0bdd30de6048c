// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"math/big"

	"github.com/vestachain/vesta/staking/reverts"
	"github.com/vestachain/vesta/vesta"
)

// LimitOf derives a stash's stake limit from its workload share:
// issuance * own / total / 2, saturating at the u64 ceiling. The limit
// grows monotonically with the own workload. A network without any
// workload cannot back stake at all.
func LimitOf(ownWorkload, totalWorkload uint64, issuance *big.Int) (*big.Int, error) {
	if totalWorkload == 0 {
		return nil, reverts.ErrNoWorkloads
	}
	limit := new(big.Int).Mul(issuance, new(big.Int).SetUint64(ownWorkload))
	limit.Quo(limit, new(big.Int).SetUint64(totalWorkload))
	limit.Quo(limit, big.NewInt(2))
	if ceiling := new(big.Int).SetUint64(math.MaxUint64); limit.Cmp(ceiling) > 0 {
		limit.Set(ceiling)
	}
	return limit, nil
}

// refreshStakeLimit recomputes and stores the stash's stake limit from the
// workload oracle.
func (s *Staking) refreshStakeLimit(stash vesta.Address) (*big.Int, error) {
	own, total, err := s.workloads.Workloads(stash)
	if err != nil {
		return nil, err
	}
	issuance, err := s.issuance.TotalIssuance()
	if err != nil {
		return nil, err
	}
	limit, err := LimitOf(own, total, issuance)
	if err != nil {
		return nil, err
	}
	if err := s.stakeLimits.Set(stash, limit); err != nil {
		return nil, err
	}
	return limit, nil
}

// enforceStakeLimit caps the validator's exposure at the given limit. The
// validator's own stake is served first; nominators are admitted most
// recently registered first until the remaining budget runs out. Stake
// pushed out of the exposure is also removed from the owner's ledger, and
// a fully excluded nominator drops this validator from its targets.
func (s *Staking) enforceStakeLimit(stash vesta.Address, limit *big.Int) error {
	exposure, err := s.ExposureOf(stash)
	if err != nil {
		return err
	}
	if exposure.Total.Cmp(limit) <= 0 {
		return nil
	}

	own := new(big.Int).Set(exposure.Own)
	if own.Cmp(limit) >= 0 {
		own.Set(limit)
		if err := s.clampBond(stash, limit); err != nil {
			return err
		}
		// no budget remains for nominators, every one is evicted
		for _, nom := range exposure.Others {
			if err := s.evictNominator(nom.Who, stash, nom.Value); err != nil {
				return err
			}
		}
		exposure.Others = nil
	} else {
		budget := new(big.Int).Sub(limit, own)
		kept := make([]*big.Int, len(exposure.Others))
		for i := len(exposure.Others) - 1; i >= 0; i-- {
			nom := exposure.Others[i]
			admit := new(big.Int).Set(nom.Value)
			if admit.Cmp(budget) > 0 {
				admit.Set(budget)
			}
			budget.Sub(budget, admit)
			kept[i] = admit

			if excess := new(big.Int).Sub(nom.Value, admit); excess.Sign() > 0 {
				if err := s.reduceBond(nom.Who, excess); err != nil {
					return err
				}
			}
			if admit.Sign() == 0 {
				if err := s.removeTarget(nom.Who, stash); err != nil {
					return err
				}
			}
		}

		retained := exposure.Others[:0]
		for i, nom := range exposure.Others {
			if kept[i].Sign() > 0 {
				retained = append(retained, IndividualExposure{Who: nom.Who, Value: kept[i]})
			}
		}
		exposure.Others = retained
	}

	exposure.Own = own
	exposure.Total = new(big.Int).Set(own)
	for _, nom := range exposure.Others {
		exposure.Total.Add(exposure.Total, nom.Value)
	}
	if err := s.stakers.Set(stash, exposure); err != nil {
		return err
	}

	slot, err := s.slotStake.Get()
	if err != nil {
		return err
	}
	if limit.Cmp(slot) < 0 {
		s.slotStake.Set(limit)
	}
	return nil
}

// evictNominator removes a nominator's whole contribution to the given
// validator: the amount leaves its ledger and the validator leaves its
// target list.
func (s *Staking) evictNominator(nominator, validator vesta.Address, value *big.Int) error {
	if err := s.reduceBond(nominator, value); err != nil {
		return err
	}
	return s.removeTarget(nominator, validator)
}

// clampBond caps the stash's active bond at limit, shrinking the total by
// the same amount. The cap is absolute: the ledger may have grown since an
// exposure snapshot was taken, so a delta would undershoot.
func (s *Staking) clampBond(stash vesta.Address, limit *big.Int) error {
	controller, led, err := s.ledger.StashLedger(stash)
	if err != nil || led == nil {
		return err
	}
	if led.Active.Cmp(limit) <= 0 {
		return nil
	}
	delta := new(big.Int).Sub(led.Active, limit)
	led.Active.Set(limit)
	led.Total.Sub(led.Total, delta)
	return s.ledger.UpdateLedger(controller, led)
}

// reduceBond shrinks the stash's active bond (and total) by up to amount.
func (s *Staking) reduceBond(stash vesta.Address, amount *big.Int) error {
	controller, led, err := s.ledger.StashLedger(stash)
	if err != nil || led == nil {
		return err
	}
	delta := new(big.Int).Set(amount)
	if delta.Cmp(led.Active) > 0 {
		delta.Set(led.Active)
	}
	if delta.Sign() == 0 {
		return nil
	}
	led.Active.Sub(led.Active, delta)
	led.Total.Sub(led.Total, delta)
	return s.ledger.UpdateLedger(controller, led)
}

// removeTarget drops the validator from the nominator's target list,
// removing the nomination entirely if no targets remain.
func (s *Staking) removeTarget(nominator, validator vesta.Address) error {
	has, err := s.nominators.Has(nominator)
	if err != nil || !has {
		return err
	}
	noms, err := s.nominators.Get(nominator)
	if err != nil {
		return err
	}
	targets := noms.Targets[:0]
	for _, target := range noms.Targets {
		if target != validator {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return s.removeNominator(nominator)
	}
	noms.Targets = targets
	return s.nominators.Set(nominator, noms)
}
