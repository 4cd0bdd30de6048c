// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vestachain/vesta/vesta"
)

// PointReward credits reward points to one validator stash.
type PointReward struct {
	Who    vesta.Address
	Points uint32
}

// RewardByIDs credits era reward points to validators by stash. Stashes
// outside the current elected list earn nothing.
func (s *Staking) RewardByIDs(rewards []PointReward) error {
	return s.atomically(func() error {
		elected, err := s.currentElected.Get()
		if err != nil {
			return err
		}
		index := make(map[vesta.Address]int, len(elected))
		for i, validator := range elected {
			index[validator] = i
		}

		points, err := s.eraPoints.Get()
		if err != nil {
			return err
		}
		for _, reward := range rewards {
			i, ok := index[reward.Who]
			if !ok {
				continue
			}
			for len(points.Individual) <= i {
				points.Individual = append(points.Individual, 0)
			}
			points.Individual[i] += reward.Points
			points.Total += reward.Points
		}
		return s.eraPoints.Set(points)
	})
}

// NoteAuthor credits the block producer.
func (s *Staking) NoteAuthor(author vesta.Address) error {
	return s.RewardByIDs([]PointReward{{Who: author, Points: PointsPerAuthor}})
}

// NoteUncle credits the block producer for referencing an uncle and the
// uncle's own producer for being referenced.
func (s *Staking) NoteUncle(author, uncleAuthor vesta.Address) error {
	return s.RewardByIDs([]PointReward{
		{Who: author, Points: PointsPerUncleRef},
		{Who: uncleAuthor, Points: PointsPerUncleAuthor},
	})
}

// EraPointsEarned returns the reward points accrued so far this era.
func (s *Staking) EraPointsEarned() (*EraPoints, error) {
	return s.eraPoints.Get()
}
