// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vestachain/vesta/state"
	"github.com/vestachain/vesta/vesta"
)

// StateFunds is the payment collaborator backed directly by the account
// balances and staking locks of the state.
type StateFunds struct {
	state *state.State
}

// NewStateFunds creates the funds adapter over the state.
func NewStateFunds(st *state.State) *StateFunds {
	return &StateFunds{state: st}
}

// FreeBalance returns the account balance. Locked funds count toward it;
// a lock restricts transfers, not ownership.
func (f *StateFunds) FreeBalance(addr vesta.Address) (*big.Int, error) {
	return f.state.GetBalance(addr)
}

// Deposit credits the account.
func (f *StateFunds) Deposit(addr vesta.Address, amount *big.Int) error {
	balance, err := f.state.GetBalance(addr)
	if err != nil {
		return err
	}
	return f.state.SetBalance(addr, balance.Add(balance, amount))
}

// Slash debits up to amount from the account, returning the amount taken.
func (f *StateFunds) Slash(addr vesta.Address, amount *big.Int) (*big.Int, error) {
	balance, err := f.state.GetBalance(addr)
	if err != nil {
		return nil, err
	}
	taken := new(big.Int).Set(amount)
	if taken.Cmp(balance) > 0 {
		taken.Set(balance)
	}
	if err := f.state.SetBalance(addr, balance.Sub(balance, taken)); err != nil {
		return nil, err
	}
	return taken, nil
}

// SetLock replaces the staking lock on the account.
func (f *StateFunds) SetLock(addr vesta.Address, amount *big.Int) error {
	return f.state.SetStakingLock(addr, amount)
}

// RemoveLock releases the staking lock on the account.
func (f *StateFunds) RemoveLock(addr vesta.Address) error {
	return f.state.RemoveStakingLock(addr)
}
