// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/vestachain/vesta/stackedmap"
	"github.com/vestachain/vesta/vesta"
)

// State is the deterministic key-value state the staking module operates on.
// It models account balances, staking locks and arbitrary RLP-encoded
// storage slots. All access is single-threaded; checkpoints provide the
// validate-then-commit behavior dispatch operations require: no write
// survives a revert.
type State struct {
	sm *stackedmap.StackedMap
}

type (
	balanceKey vesta.Address
	lockKey    vesta.Address
	storageKey vesta.Bytes32
)

// New creates an empty state.
func New() *State {
	sm := stackedmap.New(func(any) (any, bool) { return nil, false })
	sm.Push() // base level holding committed values
	return &State{sm: sm}
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint handle for RevertTo/Commit.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint, dropping every write
// made since.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit folds all writes since the given checkpoint into the state,
// discarding the revert point.
func (s *State) Commit(checkpoint int) {
	s.sm.Collapse(checkpoint)
}

// GetBalance returns the free balance of the given account.
func (s *State) GetBalance(addr vesta.Address) (*big.Int, error) {
	if v, ok := s.sm.Get(balanceKey(addr)); ok {
		return new(big.Int).Set(v.(*big.Int)), nil
	}
	return new(big.Int), nil
}

// SetBalance sets the free balance of the given account.
func (s *State) SetBalance(addr vesta.Address, balance *big.Int) error {
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
	return nil
}

// GetStakingLock returns the amount locked for staking on the account.
func (s *State) GetStakingLock(addr vesta.Address) (*big.Int, error) {
	if v, ok := s.sm.Get(lockKey(addr)); ok {
		return new(big.Int).Set(v.(*big.Int)), nil
	}
	return new(big.Int), nil
}

// SetStakingLock locks the given amount of the account's balance for
// staking, replacing any previous lock.
func (s *State) SetStakingLock(addr vesta.Address, amount *big.Int) error {
	s.sm.Put(lockKey(addr), new(big.Int).Set(amount))
	return nil
}

// RemoveStakingLock releases the staking lock of the account.
func (s *State) RemoveStakingLock(addr vesta.Address) error {
	s.sm.Put(lockKey(addr), new(big.Int))
	return nil
}

// GetRawStorage returns the raw bytes stored at the given slot.
// A missing slot yields nil.
func (s *State) GetRawStorage(key vesta.Bytes32) ([]byte, error) {
	if v, ok := s.sm.Get(storageKey(key)); ok {
		return v.([]byte), nil
	}
	return nil, nil
}

// SetRawStorage stores raw bytes at the given slot. Storing a zero-length
// value deletes the slot.
func (s *State) SetRawStorage(key vesta.Bytes32, raw []byte) {
	if len(raw) == 0 {
		s.sm.Put(storageKey(key), []byte(nil))
		return
	}
	cpy := make([]byte, len(raw))
	copy(cpy, raw)
	s.sm.Put(storageKey(key), cpy)
}

// GetStorage returns the 32-byte value stored at the given slot.
func (s *State) GetStorage(key vesta.Bytes32) (vesta.Bytes32, error) {
	raw, err := s.GetRawStorage(key)
	if err != nil {
		return vesta.Bytes32{}, err
	}
	return vesta.BytesToBytes32(raw), nil
}

// SetStorage stores a 32-byte value at the given slot.
func (s *State) SetStorage(key, value vesta.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(key, nil)
		return
	}
	s.SetRawStorage(key, value.Bytes())
}

// EncodeStorage stores the encoded value produced by enc at the given slot.
func (s *State) EncodeStorage(key vesta.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return err
	}
	s.SetRawStorage(key, raw)
	return nil
}

// DecodeStorage passes the raw value at the given slot to dec.
func (s *State) DecodeStorage(key vesta.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(key)
	if err != nil {
		return err
	}
	return dec(raw)
}
