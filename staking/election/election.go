// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package election implements sequential Phragmén over the bonded stakes.
// All arithmetic is exact rational arithmetic, so the outcome is a pure
// function of the inputs regardless of platform.
package election

import (
	"math/big"
	"sort"

	"github.com/vestachain/vesta/vesta"
)

// Voter is one participant with a stake budget split across its targets.
// Validators appear as voters for themselves with a single self-target.
type Voter struct {
	Who     vesta.Address
	Stake   *big.Int
	Targets []vesta.Address
}

// IndividualExposure is one backer's portion behind a candidate.
type IndividualExposure struct {
	Who   vesta.Address
	Value *big.Int
}

// Support is the stake standing behind one elected candidate.
type Support struct {
	// Total is Own plus the sum of Others.
	Total *big.Int
	// Own is the candidate's self-bonded portion.
	Own *big.Int
	// Others lists third-party backers and their portions.
	Others []IndividualExposure
}

// Result is a complete election outcome.
type Result struct {
	// Elected lists the winners in the order they won their seats.
	Elected []vesta.Address
	// Supports maps each winner to the stake behind it.
	Supports map[vesta.Address]*Support
}

type candidate struct {
	who           vesta.Address
	score         *big.Rat
	approvalStake *big.Int
	elected       bool
}

type edge struct {
	candidate *candidate
	load      *big.Rat
	stake     *big.Int
}

type voter struct {
	who    vesta.Address
	budget *big.Int
	load   *big.Rat
	edges  []*edge
}

// Elect runs sequential Phragmén, filling up to toElect seats from the
// candidate list. It returns false when fewer than minElect candidates
// have any backing at all, in which case the caller keeps the previous
// validator set.
func Elect(candidates []vesta.Address, voters []Voter, toElect, minElect int) (*Result, bool) {
	if len(candidates) < minElect {
		return nil, false
	}

	cands := make([]*candidate, 0, len(candidates))
	byAddr := make(map[vesta.Address]*candidate, len(candidates))
	for _, who := range candidates {
		if _, dup := byAddr[who]; dup {
			continue
		}
		c := &candidate{who: who, score: new(big.Rat), approvalStake: new(big.Int)}
		cands = append(cands, c)
		byAddr[who] = c
	}

	vs := make([]*voter, 0, len(voters))
	for _, in := range voters {
		if in.Stake == nil || in.Stake.Sign() <= 0 {
			continue
		}
		v := &voter{who: in.Who, budget: new(big.Int).Set(in.Stake), load: new(big.Rat)}
		seen := make(map[vesta.Address]bool, len(in.Targets))
		for _, target := range in.Targets {
			c, ok := byAddr[target]
			if !ok || seen[target] {
				continue
			}
			seen[target] = true
			c.approvalStake.Add(c.approvalStake, v.budget)
			v.edges = append(v.edges, &edge{candidate: c, load: new(big.Rat), stake: new(big.Int)})
		}
		if len(v.edges) > 0 {
			vs = append(vs, v)
		}
	}

	elected := make([]*candidate, 0, toElect)
	for len(elected) < toElect {
		// score_c = (1 + sum over backers of load_v * budget_v) / approval_c
		for _, c := range cands {
			if !c.elected && c.approvalStake.Sign() > 0 {
				c.score = new(big.Rat).SetFrac(big.NewInt(1), c.approvalStake)
			}
		}
		for _, v := range vs {
			for _, e := range v.edges {
				c := e.candidate
				if c.elected || c.approvalStake.Sign() == 0 {
					continue
				}
				contrib := new(big.Rat).SetFrac(v.budget, c.approvalStake)
				contrib.Mul(contrib, v.load)
				c.score.Add(c.score, contrib)
			}
		}

		var winner *candidate
		for _, c := range cands {
			if c.elected || c.approvalStake.Sign() == 0 {
				continue
			}
			if winner == nil ||
				c.score.Cmp(winner.score) < 0 ||
				(c.score.Cmp(winner.score) == 0 && c.who.Compare(winner.who) < 0) {
				winner = c
			}
		}
		if winner == nil {
			break
		}
		winner.elected = true
		elected = append(elected, winner)

		// the winner's score becomes the new load of everyone backing it
		for _, v := range vs {
			for _, e := range v.edges {
				if e.candidate == winner {
					e.load.Sub(winner.score, v.load)
					v.load.Set(winner.score)
				}
			}
		}
	}

	if len(elected) < minElect {
		return nil, false
	}

	result := &Result{
		Elected:  make([]vesta.Address, 0, len(elected)),
		Supports: make(map[vesta.Address]*Support, len(elected)),
	}
	for _, c := range elected {
		result.Elected = append(result.Elected, c.who)
		result.Supports[c.who] = &Support{Total: new(big.Int), Own: new(big.Int)}
	}

	// distribute each voter's budget over its elected edges in proportion
	// to the edge loads; per voter the edge loads sum exactly to its load
	for _, v := range vs {
		if v.load.Sign() == 0 {
			continue
		}
		for _, e := range v.edges {
			if !e.candidate.elected || e.load.Sign() == 0 {
				continue
			}
			ratio := new(big.Rat).Quo(e.load, v.load)
			staked := new(big.Int).Mul(v.budget, ratio.Num())
			staked.Quo(staked, ratio.Denom())
			e.stake.Set(staked)

			sup := result.Supports[e.candidate.who]
			sup.Total.Add(sup.Total, staked)
			if v.who == e.candidate.who {
				sup.Own.Add(sup.Own, staked)
			} else {
				sup.Others = append(sup.Others, IndividualExposure{Who: v.who, Value: staked})
			}
		}
	}

	equalize(vs, result.Supports, equalizeIterations)
	return result, true
}

const equalizeIterations = 2

// equalize iteratively rebalances each voter's distribution across its
// winners so that backing totals level out. Self-bonded portions stay put.
func equalize(vs []*voter, supports map[vesta.Address]*Support, iterations int) {
	for i := 0; i < iterations; i++ {
		maxDiff := new(big.Int)
		for _, v := range vs {
			diff := equalizeVoter(v, supports)
			if diff.Cmp(maxDiff) > 0 {
				maxDiff = diff
			}
		}
		if maxDiff.Sign() == 0 {
			return
		}
	}
}

func equalizeVoter(v *voter, supports map[vesta.Address]*Support) *big.Int {
	var electedEdges []*edge
	for _, e := range v.edges {
		// the self edge never moves; only third-party backing is rebalanced
		if e.candidate.elected && e.candidate.who != v.who {
			electedEdges = append(electedEdges, e)
		}
	}
	if len(electedEdges) < 2 {
		return new(big.Int)
	}

	budget := new(big.Int)
	stakeUsed := new(big.Int)
	for _, e := range electedEdges {
		budget.Add(budget, e.stake)
		stakeUsed.Add(stakeUsed, e.stake)
	}
	if budget.Sign() == 0 {
		return new(big.Int)
	}

	var minStake, maxBackedStake *big.Int
	for _, e := range electedEdges {
		total := supports[e.candidate.who].Total
		if minStake == nil || total.Cmp(minStake) < 0 {
			minStake = total
		}
		if e.stake.Sign() > 0 && (maxBackedStake == nil || total.Cmp(maxBackedStake) > 0) {
			maxBackedStake = total
		}
	}
	difference := new(big.Int)
	if maxBackedStake != nil {
		difference.Sub(maxBackedStake, minStake)
		difference.Add(difference, new(big.Int).Sub(budget, stakeUsed))
		if difference.Sign() == 0 {
			return difference
		}
	} else {
		difference.Set(budget)
	}

	// withdraw this voter's stake from every backed winner
	for _, e := range electedEdges {
		sup := supports[e.candidate.who]
		sup.Total.Sub(sup.Total, e.stake)
		for idx, other := range sup.Others {
			if other.Who == v.who {
				sup.Others = append(sup.Others[:idx], sup.Others[idx+1:]...)
				break
			}
		}
		e.stake.SetInt64(0)
	}

	sort.SliceStable(electedEdges, func(i, j int) bool {
		ti := supports[electedEdges[i].candidate.who].Total
		tj := supports[electedEdges[j].candidate.who].Total
		return ti.Cmp(tj) < 0
	})

	// water-fill: find how many of the least-backed winners the budget can
	// raise to a common level
	cumulative := new(big.Int)
	lastIndex := len(electedEdges) - 1
	for idx, e := range electedEdges {
		total := supports[e.candidate.who].Total
		fill := new(big.Int).Mul(total, big.NewInt(int64(idx)))
		fill.Sub(fill, cumulative)
		if fill.Cmp(budget) > 0 {
			lastIndex = idx - 1
			break
		}
		cumulative.Add(cumulative, total)
	}

	splitWays := lastIndex + 1
	lastStake := supports[electedEdges[lastIndex].candidate.who].Total
	excess := new(big.Int).Add(budget, cumulative)
	excess.Sub(excess, new(big.Int).Mul(lastStake, big.NewInt(int64(splitWays))))

	for _, e := range electedEdges[:splitWays] {
		sup := supports[e.candidate.who]
		share := new(big.Int).Quo(excess, big.NewInt(int64(splitWays)))
		share.Add(share, lastStake)
		share.Sub(share, sup.Total)
		e.stake.Set(share)
		sup.Total.Add(sup.Total, share)
		sup.Others = append(sup.Others, IndividualExposure{Who: v.who, Value: new(big.Int).Set(share)})
	}
	return difference
}
