// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vestachain/vesta/staking/slashing"
	"github.com/vestachain/vesta/vesta"
)

// OffenceDetails is one offence report handed over by the offence
// collaborator. The exposure is the offender's backing snapshot for the
// session the offence happened in; when nil, the current-era exposure is
// used.
type OffenceDetails struct {
	Offender  vesta.Address
	Exposure  *Exposure
	Reporters []vesta.Address
}

// OnOffence processes offence reports raised at the given session. Each
// offender is slashed by its fraction through the Slashing Engine; a
// report too old to map onto the bonded history is discarded. Offenders
// are chilled and their current slashing span ends, so a later return to
// validation starts a fresh span.
func (s *Staking) OnOffence(offenders []OffenceDetails, fractions []vesta.Perbill, slashSession vesta.SessionIndex) error {
	return s.atomically(func() error {
		slashEra, ok, err := s.findSlashEra(slashSession)
		if err != nil {
			return err
		}
		if !ok {
			// predates the retained bonded history, nothing left to punish
			logger.Info("old offence report discarded", "session", slashSession)
			metricOffences().AddWithLabel(1, map[string]string{"outcome": "discarded"})
			return nil
		}

		now, err := s.currentEra.Get()
		if err != nil {
			return err
		}
		windowStart := vesta.EraIndex(0)
		if now > s.config.BondingDuration {
			windowStart = now - s.config.BondingDuration
		}
		rewardFraction, err := s.slashRewardFraction()
		if err != nil {
			return err
		}
		invulnerables, err := s.invulnerables.Get()
		if err != nil {
			return err
		}
		exempt := make(map[vesta.Address]bool, len(invulnerables))
		for _, stash := range invulnerables {
			exempt[stash] = true
		}

		for i, offence := range offenders {
			if i >= len(fractions) {
				break
			}
			if exempt[offence.Offender] {
				metricOffences().AddWithLabel(1, map[string]string{"outcome": "invulnerable"})
				continue
			}

			exposure := offence.Exposure
			if exposure == nil {
				if exposure, err = s.ExposureOf(offence.Offender); err != nil {
					return err
				}
			}
			others := make([]slashing.NominatorExposure, 0, len(exposure.Others))
			for _, nom := range exposure.Others {
				others = append(others, slashing.NominatorExposure{Who: nom.Who, Value: nom.Value})
			}

			unapplied, err := s.slashing.ComputeSlash(&slashing.SlashParams{
				Stash:            offence.Offender,
				Fraction:         fractions[i],
				ExposureOwn:      exposure.Own,
				ExposureOthers:   others,
				SlashEra:         slashEra,
				WindowStart:      windowStart,
				Now:              now,
				RewardProportion: rewardFraction,
				Reporters:        offence.Reporters,
			})
			if err != nil {
				return err
			}
			if unapplied == nil {
				metricOffences().AddWithLabel(1, map[string]string{"outcome": "absorbed"})
				continue
			}
			metricSlashesComputed().Add(1)
			metricOffences().AddWithLabel(1, map[string]string{"outcome": "slashed"})
			logger.Info("offence slashed", "stash", offence.Offender,
				"era", slashEra, "fraction", uint32(fractions[i]))

			if err := s.chillStash(offence.Offender); err != nil {
				return err
			}
			if err := s.slashing.EndSpan(offence.Offender, now); err != nil {
				return err
			}
			forceNew, err := s.sessions.DisableValidator(offence.Offender)
			if err != nil {
				return err
			}
			if forceNew {
				if err := s.forceEra.Set(ForceNew); err != nil {
					return err
				}
			}

			if s.config.SlashDeferDuration == 0 {
				if err := s.slashing.ApplySlash(unapplied); err != nil {
					return err
				}
				metricSlashesApplied().Add(1)
				continue
			}
			if err := s.slashing.Defer(now, unapplied); err != nil {
				return err
			}
			if err := s.noteEarliestUnapplied(now); err != nil {
				return err
			}
		}
		return nil
	})
}

// findSlashEra maps an offence session onto the era it belongs to via the
// bonded history. Sessions older than the history cannot be punished.
func (s *Staking) findSlashEra(session vesta.SessionIndex) (vesta.EraIndex, bool, error) {
	bonded, err := s.bondedEras.Get()
	if err != nil {
		return 0, false, err
	}
	if len(bonded) == 0 || session < bonded[0].Session {
		return 0, false, nil
	}
	era := bonded[0].Era
	for _, entry := range bonded {
		if entry.Session > session {
			break
		}
		era = entry.Era
	}
	return era, true, nil
}

func (s *Staking) noteEarliestUnapplied(era vesta.EraIndex) error {
	has, err := s.earliestSlash.Has()
	if err != nil {
		return err
	}
	if has {
		earliest, err := s.earliestSlash.Get()
		if err != nil {
			return err
		}
		if earliest <= era {
			return nil
		}
	}
	return s.earliestSlash.Set(era)
}

// UnappliedSlashes returns the deferred slashes still queued for an era.
func (s *Staking) UnappliedSlashes(era vesta.EraIndex) ([]*slashing.UnappliedSlash, error) {
	return s.slashing.Unapplied(era)
}
