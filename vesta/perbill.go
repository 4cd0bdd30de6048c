// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesta

import "math/big"

// Perbill is a fixed-point fraction in the range [0, 1], expressed in parts
// per billion. All arithmetic is integer only. Every node must derive the
// exact same value from the same inputs, so floating point is never used.
type Perbill uint32

// PerbillOne is the representation of 1.0.
const PerbillOne Perbill = 1_000_000_000

var perbillDenominator = big.NewInt(int64(PerbillOne))

// FromPercent builds a Perbill from a percentage, capped at 100.
func FromPercent(p uint32) Perbill {
	if p > 100 {
		p = 100
	}
	return Perbill(p * 10_000_000)
}

// FromRational builds a Perbill approximating p/q, rounding down.
// A zero denominator or p >= q yields PerbillOne for p >= q > 0 and zero
// for q == 0.
func FromRational(p, q *big.Int) Perbill {
	if q.Sign() <= 0 || p.Sign() <= 0 {
		return 0
	}
	if p.Cmp(q) >= 0 {
		return PerbillOne
	}
	n := new(big.Int).Mul(p, perbillDenominator)
	n.Div(n, q)
	return Perbill(n.Uint64())
}

// FromRationalU64 is FromRational over native integers.
func FromRationalU64(p, q uint64) Perbill {
	return FromRational(new(big.Int).SetUint64(p), new(big.Int).SetUint64(q))
}

// Mul multiplies a balance by the fraction, rounding down.
func (p Perbill) Mul(v *big.Int) *big.Int {
	r := new(big.Int).Mul(v, big.NewInt(int64(p)))
	return r.Div(r, perbillDenominator)
}

// MulU64 multiplies a native integer by the fraction, rounding down.
func (p Perbill) MulU64(v uint64) uint64 {
	return p.Mul(new(big.Int).SetUint64(v)).Uint64()
}

// Sub returns p - o, saturating at zero.
func (p Perbill) Sub(o Perbill) Perbill {
	if o >= p {
		return 0
	}
	return p - o
}

// IsZero reports whether the fraction is zero.
func (p Perbill) IsZero() bool {
	return p == 0
}

// Rational returns the fraction as an exact big.Rat.
func (p Perbill) Rational() *big.Rat {
	return big.NewRat(int64(p), int64(PerbillOne))
}
