// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing computes, defers and applies punishments for offences
// reported against validators and the nominators exposed to them.
package slashing

import (
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/vestachain/vesta/kvstore"
	"github.com/vestachain/vesta/staking/ledger"
	"github.com/vestachain/vesta/staking/reverts"
	"github.com/vestachain/vesta/vesta"
)

var (
	slotSpans     = kvstore.NameToSlot("staking-slashing-spans")
	slotRecords   = kvstore.NameToSlot("staking-span-records")
	slotUnapplied = kvstore.NameToSlot("staking-unapplied-slashes")
)

// NominatorExposure is one nominator's stake behind the offending validator.
type NominatorExposure struct {
	Who   vesta.Address
	Value *big.Int
}

// UnappliedSlash is a computed but not yet applied punishment.
type UnappliedSlash struct {
	// Validator is the offending stash.
	Validator vesta.Address
	// Own is the amount to slash off the validator's own stake.
	Own *big.Int
	// Others lists the amounts to slash off exposed nominators.
	Others []NominatorExposure
	// Reporters share the payout evenly.
	Reporters []vesta.Address
	// Payout is the total reporter reward funded from the slash.
	Payout *big.Int
}

// SlashParams are the inputs to one slash computation.
type SlashParams struct {
	// Stash is the offending validator.
	Stash vesta.Address
	// Fraction is the reported severity.
	Fraction vesta.Perbill
	// ExposureOwn is the validator's own stake in the offence era.
	ExposureOwn *big.Int
	// ExposureOthers are the nominator stakes in the offence era.
	ExposureOthers []NominatorExposure
	// SlashEra is the era the offence happened in.
	SlashEra vesta.EraIndex
	// WindowStart is the first era still within the bonding window.
	WindowStart vesta.EraIndex
	// Now is the active era.
	Now vesta.EraIndex
	// RewardProportion is the share of the slash paid to reporters.
	RewardProportion vesta.Perbill
	// Reporters are the accounts that reported the offence.
	Reporters []vesta.Address
}

// Funds credits reporter payouts.
type Funds interface {
	Deposit(vesta.Address, *big.Int) error
}

// Sink receives the slashed value that is not paid out to reporters.
type Sink interface {
	OnSlash(*big.Int) error
}

// Service owns the span histories, span records and the deferred slash
// queues.
type Service struct {
	spans     *kvstore.Mapping[vesta.Address, *SlashingSpans]
	records   *kvstore.Mapping[kvstore.BytesKey, *SpanRecord]
	unapplied *kvstore.Mapping[kvstore.BytesKey, []*UnappliedSlash]

	ledger *ledger.Service
	funds  Funds
	sink   Sink
}

// New creates the slashing service.
func New(ctx *kvstore.Context, led *ledger.Service, funds Funds, sink Sink) *Service {
	return &Service{
		spans:     kvstore.NewMapping[vesta.Address, *SlashingSpans](ctx, slotSpans),
		records:   kvstore.NewMapping[kvstore.BytesKey, *SpanRecord](ctx, slotRecords),
		unapplied: kvstore.NewMapping[kvstore.BytesKey, []*UnappliedSlash](ctx, slotUnapplied),

		ledger: led,
		funds:  funds,
		sink:   sink,
	}
}

func eraKey(era vesta.EraIndex) kvstore.BytesKey {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], era)
	return b[:]
}

func recordKey(stash vesta.Address, span SpanIndex) kvstore.BytesKey {
	key := make([]byte, 0, len(stash.Bytes())+4)
	key = append(key, stash.Bytes()...)
	return binary.BigEndian.AppendUint32(key, span)
}

func (s *Service) record(stash vesta.Address, span SpanIndex) (*SpanRecord, error) {
	rec, err := s.records.Get(recordKey(stash, span))
	if err != nil {
		return nil, err
	}
	if rec.PaidOut == nil {
		rec.PaidOut = new(big.Int)
	}
	return rec, nil
}

// ComputeSlash turns an offence report into an UnappliedSlash. It returns
// nil without error when no new punishment is due: the offence era lies
// outside the bonding window, an equal-or-worse slash was already recorded
// for the same span, or the computed total is zero.
func (s *Service) ComputeSlash(p *SlashParams) (*UnappliedSlash, error) {
	// outside the bonding window the funds are gone, nothing to punish
	if p.SlashEra < p.WindowStart || p.SlashEra > p.Now {
		return nil, nil
	}

	spans, err := s.fetchSpans(p.Stash, p.WindowStart)
	if err != nil {
		return nil, err
	}
	target, ok := spans.EraSpan(p.SlashEra)
	if !ok {
		return nil, nil
	}
	rec, err := s.record(p.Stash, target.Index)
	if err != nil {
		return nil, err
	}
	if p.Fraction <= rec.MaxFraction {
		// the span already absorbed an equal or worse punishment
		return nil, nil
	}
	prior := rec.MaxFraction

	// only the severity above the span's prior maximum is slashed
	own := incrementalSlash(p.ExposureOwn, p.Fraction, prior)

	total := new(big.Int).Set(own)
	others := make([]NominatorExposure, 0, len(p.ExposureOthers))
	for _, nom := range p.ExposureOthers {
		share, err := s.nominatorShare(nom, p, prior)
		if err != nil {
			return nil, err
		}
		if share.Sign() == 0 {
			continue
		}
		total.Add(total, share)
		others = append(others, NominatorExposure{Who: nom.Who, Value: share})
	}
	if total.Sign() == 0 {
		return nil, nil
	}

	payout := p.RewardProportion.Mul(total)

	rec.MaxFraction = p.Fraction
	rec.PaidOut.Add(rec.PaidOut, payout)
	if err := s.records.Set(recordKey(p.Stash, target.Index), rec); err != nil {
		return nil, err
	}
	if err := s.spans.Set(p.Stash, spans); err != nil {
		return nil, err
	}

	return &UnappliedSlash{
		Validator: p.Stash,
		Own:       own,
		Others:    others,
		Reporters: p.Reporters,
		Payout:    payout,
	}, nil
}

// nominatorShare computes one nominator's portion of the slash, reduced by
// whatever the nominator's own span already absorbed for an overlapping
// fault.
func (s *Service) nominatorShare(nom NominatorExposure, p *SlashParams, validatorPrior vesta.Perbill) (*big.Int, error) {
	spans, err := s.fetchSpans(nom.Who, p.WindowStart)
	if err != nil {
		return nil, err
	}
	target, ok := spans.EraSpan(p.SlashEra)
	if !ok {
		return new(big.Int), nil
	}
	rec, err := s.record(nom.Who, target.Index)
	if err != nil {
		return nil, err
	}
	if p.Fraction <= rec.MaxFraction {
		return new(big.Int), nil
	}

	prior := validatorPrior
	if rec.MaxFraction > prior {
		prior = rec.MaxFraction
	}
	share := incrementalSlash(nom.Value, p.Fraction, prior)

	rec.MaxFraction = p.Fraction
	if err := s.records.Set(recordKey(nom.Who, target.Index), rec); err != nil {
		return nil, err
	}
	if err := s.spans.Set(nom.Who, spans); err != nil {
		return nil, err
	}
	return share, nil
}

// incrementalSlash is fraction*value - prior*value, never negative. The
// difference of the two rounded products keeps repeated incremental slashes
// summing to exactly the full-fraction amount.
func incrementalSlash(value *big.Int, fraction, prior vesta.Perbill) *big.Int {
	amount := fraction.Mul(value)
	amount.Sub(amount, prior.Mul(value))
	if amount.Sign() < 0 {
		amount.SetInt64(0)
	}
	return amount
}

// fetchSpans loads the stash's span history, opening the first span at the
// window start if none exists, and prunes spans that fell out of the window
// together with their records.
func (s *Service) fetchSpans(stash vesta.Address, windowStart vesta.EraIndex) (*SlashingSpans, error) {
	has, err := s.spans.Has(stash)
	if err != nil {
		return nil, err
	}
	if !has {
		return NewSlashingSpans(windowStart), nil
	}
	spans, err := s.spans.Get(stash)
	if err != nil {
		return nil, err
	}
	if start, end, removed := spans.Prune(windowStart); removed {
		for idx := start; idx < end; idx++ {
			if err := s.records.Remove(recordKey(stash, idx)); err != nil {
				return nil, err
			}
		}
	}
	return spans, nil
}

// SpanLastStart returns the start era of the stash's current span,
// reporting whether the stash has any span history at all.
func (s *Service) SpanLastStart(stash vesta.Address) (vesta.EraIndex, bool, error) {
	has, err := s.spans.Has(stash)
	if err != nil || !has {
		return 0, false, err
	}
	spans, err := s.spans.Get(stash)
	if err != nil {
		return 0, false, err
	}
	return spans.LastStart, true, nil
}

// EndSpan closes the stash's current span as of the given era, typically
// after the stash was chilled by an offence and later resumes.
func (s *Service) EndSpan(stash vesta.Address, now vesta.EraIndex) error {
	has, err := s.spans.Has(stash)
	if err != nil || !has {
		return err
	}
	spans, err := s.spans.Get(stash)
	if err != nil {
		return err
	}
	if spans.EndSpan(now) {
		return s.spans.Set(stash, spans)
	}
	return nil
}

// ApplySlash irreversibly executes a computed slash: the ledger amounts are
// deducted, reporters receive the payout in an even split, and whatever is
// left flows to the sink. Remainders of the integer division among
// reporters are burned.
func (s *Service) ApplySlash(un *UnappliedSlash) error {
	total := new(big.Int)

	slashed, err := s.ledger.SlashStash(un.Validator, un.Own)
	if err != nil {
		return err
	}
	total.Add(total, slashed)

	for _, nom := range un.Others {
		slashed, err := s.ledger.SlashStash(nom.Who, nom.Value)
		if err != nil {
			return err
		}
		total.Add(total, slashed)
	}

	payout := new(big.Int).Set(un.Payout)
	if payout.Cmp(total) > 0 {
		payout.Set(total)
	}
	if payout.Sign() > 0 && len(un.Reporters) > 0 {
		per := new(big.Int).Quo(payout, big.NewInt(int64(len(un.Reporters))))
		if per.Sign() > 0 {
			for _, reporter := range un.Reporters {
				if err := s.funds.Deposit(reporter, per); err != nil {
					return err
				}
			}
		}
		// the division remainder is burned along with the payout share
		total.Sub(total, payout)
	}

	if total.Sign() > 0 {
		return s.sink.OnSlash(total)
	}
	return nil
}

// Defer appends the slash to the era's pending queue.
func (s *Service) Defer(era vesta.EraIndex, un *UnappliedSlash) error {
	queue, err := s.unapplied.Get(eraKey(era))
	if err != nil {
		return err
	}
	return s.unapplied.Set(eraKey(era), append(queue, un))
}

// Unapplied returns the era's pending queue.
func (s *Service) Unapplied(era vesta.EraIndex) ([]*UnappliedSlash, error) {
	return s.unapplied.Get(eraKey(era))
}

// CancelDeferred removes the pending slashes at the given indices of the
// era's queue. Indices refer to the queue before any removal; they must be
// unique and in range.
func (s *Service) CancelDeferred(era vesta.EraIndex, indices []uint32) error {
	sorted := append([]uint32(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	queue, err := s.unapplied.Get(eraKey(era))
	if err != nil {
		return err
	}

	for removed, index := range sorted {
		// each prior removal shifts later entries down by one
		if uint32(removed) > index {
			return errors.WithStack(reverts.ErrDuplicateIndex)
		}
		at := index - uint32(removed)
		if int(at) >= len(queue) {
			return errors.WithStack(reverts.ErrInvalidSlashIndex)
		}
		queue = append(queue[:at], queue[at+1:]...)
	}
	return s.unapplied.Set(eraKey(era), queue)
}

// ClearEraMetadata drops the pending queue of an era that fell outside the
// retained window.
func (s *Service) ClearEraMetadata(era vesta.EraIndex) error {
	return s.unapplied.Remove(eraKey(era))
}

// ClearStashMetadata purges the span history and span records of a fully
// unbonded stash.
func (s *Service) ClearStashMetadata(stash vesta.Address) error {
	has, err := s.spans.Has(stash)
	if err != nil || !has {
		return err
	}
	spans, err := s.spans.Get(stash)
	if err != nil {
		return err
	}
	for _, span := range spans.Spans() {
		if err := s.records.Remove(recordKey(stash, span.Index)); err != nil {
			return err
		}
	}
	return s.spans.Remove(stash)
}
