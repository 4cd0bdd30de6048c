// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesta

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPercent(t *testing.T) {
	assert.Equal(t, Perbill(0), FromPercent(0))
	assert.Equal(t, Perbill(250_000_000), FromPercent(25))
	assert.Equal(t, PerbillOne, FromPercent(100))
	assert.Equal(t, PerbillOne, FromPercent(150), "over 100% caps at one")
}

func TestFromRational(t *testing.T) {
	assert.Equal(t, FromPercent(50), FromRational(big.NewInt(1), big.NewInt(2)))
	assert.Equal(t, Perbill(0), FromRational(big.NewInt(0), big.NewInt(7)))
	assert.Equal(t, Perbill(0), FromRational(big.NewInt(7), big.NewInt(0)))
	assert.Equal(t, PerbillOne, FromRational(big.NewInt(9), big.NewInt(3)))
	// 1/3 rounds down
	assert.Equal(t, Perbill(333_333_333), FromRationalU64(1, 3))
}

func TestPerbillMul(t *testing.T) {
	assert.Equal(t, int64(250), FromPercent(25).Mul(big.NewInt(1000)).Int64())
	assert.Equal(t, int64(0), FromPercent(25).Mul(big.NewInt(3)).Int64(), "rounds down")
	assert.Equal(t, uint64(333), FromRationalU64(1, 3).MulU64(1000))

	// large balances must not overflow
	balance, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	expected, _ := new(big.Int).SetString("100000000000000000000000", 10)
	assert.Equal(t, expected.String(), FromPercent(10).Mul(balance).String())
}

func TestPerbillSub(t *testing.T) {
	assert.Equal(t, FromPercent(10), FromPercent(30).Sub(FromPercent(20)))
	assert.Equal(t, Perbill(0), FromPercent(20).Sub(FromPercent(30)), "saturates at zero")
	assert.True(t, Perbill(0).IsZero())
	assert.False(t, FromPercent(1).IsZero())
}
