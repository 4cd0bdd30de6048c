// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvstore

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// Uint256 is a wrapper for storage and retrieval of a single unsigned
// integer value at a fixed slot.
type Uint256 struct {
	context *Context
	pos     vesta.Bytes32
}

// NewUint256 creates the accessor at the given slot.
func NewUint256(context *Context, slot vesta.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

// Get loads the stored value, zero if unset.
func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set stores the value.
func (u *Uint256) Set(value *big.Int) {
	u.context.state.SetStorage(u.pos, vesta.BytesToBytes32(value.Bytes()))
}

// Add increases the stored value.
func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Add(storage, value)
	u.Set(storage)
	return nil
}

// Sub decreases the stored value.
func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Sub(storage, value)
	u.Set(storage)
	return nil
}
