// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package inflation computes era payouts from the staked-ratio reward curve.
package inflation

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// Point is one vertex of a piecewise-linear curve. X is the fraction of
// issuance at stake, Y the annualized payout fraction at that point.
type Point struct {
	X vesta.Perbill
	Y vesta.Perbill
}

// PiecewiseLinear is a reward curve: payout fraction as a function of the
// staked fraction. Points must be sorted by ascending X.
type PiecewiseLinear struct {
	Points  []Point
	Maximum vesta.Perbill
}

// DefaultRewardCurve is the standard curve: rewards rise linearly up to the
// ideal 50% staked ratio, then fall away toward the long-run minimum.
var DefaultRewardCurve = &PiecewiseLinear{
	Points: []Point{
		{X: 0, Y: vesta.FromPercent(2)},
		{X: vesta.FromPercent(50), Y: vesta.FromPercent(10)},
		{X: vesta.FromPercent(100), Y: vesta.FromPercent(2)},
	},
	Maximum: vesta.FromPercent(10),
}

// Calculate evaluates the curve at the given staked fraction, interpolating
// linearly between the surrounding points.
func (p *PiecewiseLinear) Calculate(x vesta.Perbill) vesta.Perbill {
	if len(p.Points) == 0 {
		return 0
	}
	if x <= p.Points[0].X {
		return p.Points[0].Y
	}
	for i := 1; i < len(p.Points); i++ {
		left, right := p.Points[i-1], p.Points[i]
		if x > right.X {
			continue
		}
		// interpolate between left and right
		dx := uint64(x - left.X)
		span := uint64(right.X - left.X)
		if span == 0 {
			return right.Y
		}
		if right.Y >= left.Y {
			rise := uint64(right.Y - left.Y)
			return left.Y + vesta.Perbill(rise*dx/span)
		}
		fall := uint64(left.Y - right.Y)
		return left.Y - vesta.Perbill(fall*dx/span)
	}
	return p.Points[len(p.Points)-1].Y
}

// ComputeTotalPayout returns the validator payout for one era together with
// the era's maximum payout under the curve ceiling. The annualized amounts
// are scaled down by the era duration over a julian year.
func ComputeTotalPayout(curve *PiecewiseLinear, staked, issuance *big.Int, eraDurationMillis uint64) (payout, maxPayout *big.Int) {
	stakedFraction := vesta.FromRational(staked, issuance)
	annualized := curve.Calculate(stakedFraction)

	portion := new(big.Int).SetUint64(eraDurationMillis)

	payout = annualized.Mul(issuance)
	payout.Mul(payout, portion)
	payout.Quo(payout, new(big.Int).SetUint64(vesta.MillisecondsPerYear))

	maxPayout = curve.Maximum.Mul(issuance)
	maxPayout.Mul(maxPayout, portion)
	maxPayout.Quo(maxPayout, new(big.Int).SetUint64(vesta.MillisecondsPerYear))

	if payout.Cmp(maxPayout) > 0 {
		payout.Set(maxPayout)
	}
	return payout, maxPayout
}
