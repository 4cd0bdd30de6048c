// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vestachain/vesta/kvstore"
	"github.com/vestachain/vesta/staking/reverts"
	"github.com/vestachain/vesta/vesta"
)

var (
	slotBonded  = kvstore.NameToSlot("staking-bonded")
	slotLedgers = kvstore.NameToSlot("staking-ledgers")
	slotPayees  = kvstore.NameToSlot("staking-payees")
)

// Funds moves and locks account balances on behalf of the ledger store.
type Funds interface {
	// FreeBalance returns the spendable balance of the account.
	FreeBalance(vesta.Address) (*big.Int, error)
	// Deposit credits the account.
	Deposit(vesta.Address, *big.Int) error
	// Slash debits up to amount from the account, returning the amount taken.
	Slash(vesta.Address, *big.Int) (*big.Int, error)
	// SetLock replaces the staking lock on the account.
	SetLock(vesta.Address, *big.Int) error
	// RemoveLock releases the staking lock on the account.
	RemoveLock(vesta.Address) error
}

// Service owns the stash/controller binding and all locked-fund
// bookkeeping. No other component writes these tables.
type Service struct {
	bonded  *kvstore.Mapping[vesta.Address, vesta.Address]
	ledgers *kvstore.Mapping[vesta.Address, *StakingLedger]
	payees  *kvstore.Mapping[vesta.Address, RewardDestination]

	funds          Funds
	minimumBalance *big.Int
}

// New creates the ledger store.
func New(ctx *kvstore.Context, funds Funds, minimumBalance *big.Int) *Service {
	return &Service{
		bonded:  kvstore.NewMapping[vesta.Address, vesta.Address](ctx, slotBonded),
		ledgers: kvstore.NewMapping[vesta.Address, *StakingLedger](ctx, slotLedgers),
		payees:  kvstore.NewMapping[vesta.Address, RewardDestination](ctx, slotPayees),

		funds:          funds,
		minimumBalance: minimumBalance,
	}
}

// Bond locks value of the stash's balance under the given controller.
func (s *Service) Bond(stash, controller vesta.Address, value *big.Int, payee RewardDestination) error {
	if has, err := s.bonded.Has(stash); err != nil {
		return err
	} else if has {
		return reverts.ErrAlreadyBonded
	}
	if has, err := s.ledgers.Has(controller); err != nil {
		return err
	} else if has {
		return reverts.ErrAlreadyPaired
	}
	// reject a bond which is considered to be dust
	if value.Cmp(s.minimumBalance) < 0 {
		return reverts.ErrInsufficientValue
	}

	if err := s.bonded.Set(stash, controller); err != nil {
		return err
	}
	if err := s.payees.Set(stash, payee); err != nil {
		return err
	}

	stashBalance, err := s.funds.FreeBalance(stash)
	if err != nil {
		return err
	}
	bonded := new(big.Int).Set(value)
	if bonded.Cmp(stashBalance) > 0 {
		bonded.Set(stashBalance)
	}
	return s.UpdateLedger(controller, NewStakingLedger(stash, bonded))
}

// BondExtra moves additional free balance of the stash into the active
// bond, bounded by the free balance and the stake limit. A non-positive
// delta is a no-op.
func (s *Service) BondExtra(controller vesta.Address, maxAdditional, stakeLimit *big.Int) error {
	led, err := s.Ledger(controller)
	if err != nil {
		return err
	}

	stashBalance, err := s.funds.FreeBalance(led.Stash)
	if err != nil {
		return err
	}

	extra := new(big.Int).Sub(stashBalance, led.Total)
	if extra.Cmp(maxAdditional) > 0 {
		extra.Set(maxAdditional)
	}
	if stakeLimit != nil {
		headroom := new(big.Int).Sub(stakeLimit, led.Total)
		if extra.Cmp(headroom) > 0 {
			extra.Set(headroom)
		}
	}
	if extra.Sign() <= 0 {
		return nil
	}

	led.Total.Add(led.Total, extra)
	led.Active.Add(led.Active, extra)
	return s.UpdateLedger(controller, led)
}

// Unbond schedules up to value of the active bond to unlock after the
// bonding duration. If the remaining active bond falls below the minimum
// balance it is folded into the chunk entirely.
func (s *Service) Unbond(controller vesta.Address, value *big.Int, currentEra, bondingDuration vesta.EraIndex) error {
	led, err := s.Ledger(controller)
	if err != nil {
		return err
	}
	if len(led.Unlocking) >= vesta.MaxUnlockingChunks {
		return reverts.ErrNoMoreChunks
	}

	unbonding := new(big.Int).Set(value)
	if unbonding.Cmp(led.Active) > 0 {
		unbonding.Set(led.Active)
	}
	if unbonding.Sign() == 0 {
		return nil
	}

	led.Active.Sub(led.Active, unbonding)
	// avoid a dust balance being left in the staking system
	if led.Active.Cmp(s.minimumBalance) < 0 {
		unbonding.Add(unbonding, led.Active)
		led.Active.SetInt64(0)
	}

	led.Unlocking = append(led.Unlocking, UnlockChunk{
		Value: unbonding,
		Era:   currentEra + bondingDuration,
	})
	return s.UpdateLedger(controller, led)
}

// WithdrawUnbonded frees every chunk whose unlock era has passed. If the
// ledger ends up empty the stash's staking records are removed; the freed
// stash address is returned so the caller can purge the records it owns.
func (s *Service) WithdrawUnbonded(controller vesta.Address, currentEra vesta.EraIndex) (*vesta.Address, error) {
	led, err := s.Ledger(controller)
	if err != nil {
		return nil, err
	}
	led.Consolidate(currentEra)

	if len(led.Unlocking) == 0 && led.Active.Sign() == 0 {
		// all of the bond was scheduled and has now unlocked, the stash
		// can be removed entirely
		stash := led.Stash
		if err := s.KillStash(stash); err != nil {
			return nil, err
		}
		return &stash, nil
	}
	return nil, s.UpdateLedger(controller, led)
}

// SlashStash deducts up to amount from the stash's ledger and balance,
// returning the amount actually slashed. A stash without a ledger yields
// zero.
func (s *Service) SlashStash(stash vesta.Address, amount *big.Int) (*big.Int, error) {
	controller, ok, err := s.Controller(stash)
	if err != nil || !ok {
		return new(big.Int), err
	}
	led, err := s.Ledger(controller)
	if err != nil {
		if errors.Is(err, reverts.ErrNotController) {
			return new(big.Int), nil
		}
		return nil, err
	}

	slashed := led.Slash(amount, s.minimumBalance)
	if slashed.Sign() == 0 {
		return slashed, nil
	}
	if _, err := s.funds.Slash(stash, slashed); err != nil {
		return nil, err
	}
	return slashed, s.UpdateLedger(controller, led)
}

// SetController rebinds the stash to a new controller, moving the ledger.
func (s *Service) SetController(stash, controller vesta.Address) error {
	oldController, ok, err := s.Controller(stash)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotStash
	}
	if has, err := s.ledgers.Has(controller); err != nil {
		return err
	} else if has {
		return reverts.ErrAlreadyPaired
	}
	if controller == oldController {
		return nil
	}

	if err := s.bonded.Set(stash, controller); err != nil {
		return err
	}
	led, err := s.Ledger(oldController)
	if err != nil {
		return err
	}
	if err := s.ledgers.Remove(oldController); err != nil {
		return err
	}
	return s.ledgers.Set(controller, led)
}

// SetPayee replaces the reward destination of the controller's stash.
func (s *Service) SetPayee(controller vesta.Address, payee RewardDestination) error {
	led, err := s.Ledger(controller)
	if err != nil {
		return err
	}
	return s.payees.Set(led.Stash, payee)
}

// MakePayout delivers a reward to the stash per its reward destination.
// Staked re-bonds the amount on top of crediting the stash.
func (s *Service) MakePayout(stash vesta.Address, amount *big.Int) error {
	payee, err := s.payees.Get(stash)
	if err != nil {
		return err
	}
	switch payee {
	case DestinationController:
		controller, ok, err := s.Controller(stash)
		if err != nil || !ok {
			return err
		}
		return s.funds.Deposit(controller, amount)
	case DestinationStash:
		return s.funds.Deposit(stash, amount)
	default: // DestinationStaked
		controller, ok, err := s.Controller(stash)
		if err != nil || !ok {
			return err
		}
		led, err := s.Ledger(controller)
		if err != nil {
			return err
		}
		led.Active.Add(led.Active, amount)
		led.Total.Add(led.Total, amount)
		if err := s.funds.Deposit(stash, amount); err != nil {
			return err
		}
		return s.UpdateLedger(controller, led)
	}
}

// KillStash removes all ledger-store records of the stash and releases its
// staking lock.
func (s *Service) KillStash(stash vesta.Address) error {
	controller, ok, err := s.Controller(stash)
	if err != nil {
		return err
	}
	if ok {
		if err := s.ledgers.Remove(controller); err != nil {
			return err
		}
	}
	if err := s.bonded.Remove(stash); err != nil {
		return err
	}
	if err := s.payees.Remove(stash); err != nil {
		return err
	}
	return s.funds.RemoveLock(stash)
}

// UpdateLedger stores the ledger and refreshes the stash's staking lock to
// the ledger total.
func (s *Service) UpdateLedger(controller vesta.Address, led *StakingLedger) error {
	if err := s.funds.SetLock(led.Stash, led.Total); err != nil {
		return err
	}
	return s.ledgers.Set(controller, led)
}

// Ledger returns the controller's ledger, ErrNotController if absent.
func (s *Service) Ledger(controller vesta.Address) (*StakingLedger, error) {
	led, err := s.ledgers.Get(controller)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger")
	}
	if led.IsEmpty() {
		return nil, reverts.ErrNotController
	}
	return led, nil
}

// Controller returns the stash's controller, reporting existence.
func (s *Service) Controller(stash vesta.Address) (vesta.Address, bool, error) {
	has, err := s.bonded.Has(stash)
	if err != nil || !has {
		return vesta.Address{}, false, err
	}
	controller, err := s.bonded.Get(stash)
	if err != nil {
		return vesta.Address{}, false, err
	}
	return controller, true, nil
}

// StashLedger returns the ledger of the given stash, nil if unbonded.
func (s *Service) StashLedger(stash vesta.Address) (vesta.Address, *StakingLedger, error) {
	controller, ok, err := s.Controller(stash)
	if err != nil || !ok {
		return vesta.Address{}, nil, err
	}
	led, err := s.Ledger(controller)
	if err != nil {
		if errors.Is(err, reverts.ErrNotController) {
			return vesta.Address{}, nil, nil
		}
		return vesta.Address{}, nil, err
	}
	return controller, led, nil
}

// ActiveOf returns the stash's balance at stake right now, zero if the
// stash is not bonded. This is the slashable balance and the election
// stake.
func (s *Service) ActiveOf(stash vesta.Address) *big.Int {
	_, led, err := s.StashLedger(stash)
	if err != nil || led == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(led.Active)
}

// Payee returns the reward destination of the stash.
func (s *Service) Payee(stash vesta.Address) (RewardDestination, error) {
	return s.payees.Get(stash)
}
