// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"math/big"

	"github.com/vestachain/vesta/vesta"
)

// SpanIndex identifies one slashing span of a stash.
type SpanIndex = uint32

// SlashingSpan is one resolved span: a half-open era range. An open span
// has no end yet.
type SlashingSpan struct {
	Index SpanIndex
	Start vesta.EraIndex
	End   vesta.EraIndex
	Open  bool
}

// Contains reports whether the era falls within the span.
func (s *SlashingSpan) Contains(era vesta.EraIndex) bool {
	return era >= s.Start && (s.Open || era < s.End)
}

// SlashingSpans is the compact per-stash span history: the open current
// span plus the lengths of closed spans, most recent first. Spans are
// disjoint and chronologically ordered.
type SlashingSpans struct {
	// SpanIndex is the index of the current (open) span.
	SpanIndex SpanIndex
	// LastStart is the start era of the current span.
	LastStart vesta.EraIndex
	// Prior holds the lengths of closed spans, most recent first.
	Prior []vesta.EraIndex
}

// NewSlashingSpans opens the first span of a stash at the given era.
func NewSlashingSpans(windowStart vesta.EraIndex) *SlashingSpans {
	return &SlashingSpans{LastStart: windowStart}
}

// Spans resolves the history into concrete spans, most recent first.
func (s *SlashingSpans) Spans() []SlashingSpan {
	all := make([]SlashingSpan, 0, len(s.Prior)+1)
	all = append(all, SlashingSpan{Index: s.SpanIndex, Start: s.LastStart, Open: true})
	last := s.LastStart
	index := s.SpanIndex
	for _, length := range s.Prior {
		index--
		span := SlashingSpan{Index: index, Start: last - length, End: last}
		all = append(all, span)
		last = span.Start
	}
	return all
}

// EraSpan returns the span containing the era, if any.
func (s *SlashingSpans) EraSpan(era vesta.EraIndex) (SlashingSpan, bool) {
	for _, span := range s.Spans() {
		if span.Contains(era) {
			return span, true
		}
	}
	return SlashingSpan{}, false
}

// EndSpan closes the current span as of the given era and opens the next
// one. Reports whether a new span was actually opened.
func (s *SlashingSpans) EndSpan(now vesta.EraIndex) bool {
	nextStart := now + 1
	if nextStart <= s.LastStart {
		return false
	}
	s.Prior = append([]vesta.EraIndex{nextStart - s.LastStart}, s.Prior...)
	s.LastStart = nextStart
	s.SpanIndex++
	return true
}

// Prune discards every closed span that ended at or before windowStart and
// returns the half-open range of removed span indexes. The current span is
// clamped so it never starts before the window.
func (s *SlashingSpans) Prune(windowStart vesta.EraIndex) (start, end SpanIndex, removed bool) {
	earliest := s.SpanIndex - SpanIndex(len(s.Prior))
	kept := -1
	for i, span := range s.Spans()[1:] {
		if span.End <= windowStart {
			kept = i
			break
		}
	}
	if kept >= 0 {
		newEarliest := s.SpanIndex - SpanIndex(kept)
		s.Prior = s.Prior[:kept:kept]
		start, end, removed = earliest, newEarliest, true
	}
	if s.LastStart < windowStart {
		s.LastStart = windowStart
	}
	return
}

// SpanRecord tracks the punishment already absorbed within one span of one
// stash. A later report for the same span only slashes the fraction above
// the recorded maximum.
type SpanRecord struct {
	// MaxFraction is the highest slash fraction applied in the span so far.
	MaxFraction vesta.Perbill
	// PaidOut accumulates reporter payouts funded from this span.
	PaidOut *big.Int
}
