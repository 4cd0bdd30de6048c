// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestachain/vesta/staking/inflation"
	"github.com/vestachain/vesta/staking/ledger"
	"github.com/vestachain/vesta/staking/reverts"
	"github.com/vestachain/vesta/state"
	"github.com/vestachain/vesta/vesta"
)

func addr(b byte) vesta.Address {
	return vesta.BytesToAddress([]byte{b})
}

type mockTime struct {
	now uint64
}

func (m *mockTime) Now() uint64 { return m.now }

type mockIssuance struct {
	total *big.Int
}

func (m *mockIssuance) TotalIssuance() (*big.Int, error) {
	return new(big.Int).Set(m.total), nil
}

type mockWorkloads struct {
	own   map[vesta.Address]uint64
	total uint64
}

func (m *mockWorkloads) Workloads(stash vesta.Address) (uint64, uint64, error) {
	return m.own[stash], m.total, nil
}

type mockSessions struct {
	disabled    []vesta.Address
	prunedUpTo  vesta.SessionIndex
	forceOnNext bool
}

func (m *mockSessions) DisableValidator(v vesta.Address) (bool, error) {
	m.disabled = append(m.disabled, v)
	return m.forceOnNext, nil
}

func (m *mockSessions) PruneHistoricalUpTo(session vesta.SessionIndex) {
	m.prunedUpTo = session
}

type mockRemainder struct {
	received *big.Int
}

func (m *mockRemainder) OnRewardRemainder(amount *big.Int) error {
	m.received.Add(m.received, amount)
	return nil
}

type mockSink struct {
	received *big.Int
}

func (m *mockSink) OnSlash(amount *big.Int) error {
	m.received.Add(m.received, amount)
	return nil
}

type harness struct {
	t   *testing.T
	st  *state.State
	stk *Staking

	time      *mockTime
	work      *mockWorkloads
	sessions  *mockSessions
	remainder *mockRemainder
	sink      *mockSink

	session vesta.SessionIndex
}

func newHarness(t *testing.T, config *Config) *harness {
	t.Helper()
	if config == nil {
		config = &Config{
			SessionsPerEra:     1,
			BondingDuration:    3,
			SlashDeferDuration: 2,
			ExistentialDeposit: big.NewInt(1),
			RewardCurve:        inflation.DefaultRewardCurve,
		}
	}
	h := &harness{
		t:         t,
		st:        state.New(),
		time:      &mockTime{now: 1000},
		work:      &mockWorkloads{own: make(map[vesta.Address]uint64), total: 4},
		sessions:  &mockSessions{},
		remainder: &mockRemainder{received: new(big.Int)},
		sink:      &mockSink{received: new(big.Int)},
	}
	h.stk = New(h.st, config, Options{
		Time:      h.time,
		Issuance:  &mockIssuance{total: big.NewInt(1_000_000)},
		Workloads: h.work,
		Sessions:  h.sessions,
		Remainder: h.remainder,
		SlashSink: h.sink,
	})
	require.NoError(t, h.stk.minValidators.Set(1))
	return h
}

func (h *harness) registerValidator(stash, controller vesta.Address, bond int64, commission vesta.Perbill) {
	h.t.Helper()
	require.NoError(h.t, h.st.SetBalance(stash, big.NewInt(bond*10)))
	require.NoError(h.t, h.stk.Bond(stash, controller, big.NewInt(bond), ledger.DestinationStaked))
	h.work.own[stash] = 1
	require.NoError(h.t, h.stk.Validate(controller, ValidatorPrefs{Commission: commission}))
}

func (h *harness) registerNominator(stash, controller vesta.Address, bond int64, targets ...vesta.Address) {
	h.t.Helper()
	require.NoError(h.t, h.st.SetBalance(stash, big.NewInt(bond*10)))
	require.NoError(h.t, h.stk.Bond(stash, controller, big.NewInt(bond), ledger.DestinationStaked))
	require.NoError(h.t, h.stk.Nominate(controller, targets))
}

// rollEra drives one session boundary, which with SessionsPerEra=1 rolls
// the era.
func (h *harness) rollEra() ([]vesta.Address, bool) {
	h.t.Helper()
	elected, rolled, err := h.stk.OnSessionEnd(h.session, h.session+1)
	require.NoError(h.t, err)
	h.session++
	return elected, rolled
}

func TestValidatePreconditions(t *testing.T) {
	h := newHarness(t, nil)
	stash, controller := addr(1), addr(2)
	require.NoError(t, h.st.SetBalance(stash, big.NewInt(1000)))
	require.NoError(t, h.stk.Bond(stash, controller, big.NewInt(1000), ledger.DestinationStaked))

	// no network workload at all
	h.work.total = 0
	assert.ErrorIs(t, h.stk.Validate(controller, ValidatorPrefs{}), reverts.ErrNoWorkloads)

	// no own workload: the limit is zero and candidacy is rejected
	h.work.total = 4
	assert.ErrorIs(t, h.stk.Validate(controller, ValidatorPrefs{}), reverts.ErrExceedLimit)

	h.work.own[stash] = 1
	assert.NoError(t, h.stk.Validate(controller, ValidatorPrefs{}))
}

func TestValidateTruncatesToLimit(t *testing.T) {
	h := newHarness(t, nil)
	stash, controller := addr(1), addr(2)
	require.NoError(t, h.st.SetBalance(stash, big.NewInt(10000)))
	require.NoError(t, h.stk.Bond(stash, controller, big.NewInt(1000), ledger.DestinationStaked))

	// limit = 1_000_000 * 1 / 1000 / 2 = 500, below the active bond
	h.work.own[stash] = 1
	h.work.total = 1000
	require.NoError(t, h.stk.Validate(controller, ValidatorPrefs{}))

	led, err := h.stk.Ledger(controller)
	require.NoError(t, err)
	assert.Equal(t, int64(500), led.Active.Int64())
	assert.Equal(t, int64(500), led.Total.Int64())

	has, err := h.stk.validators.Has(stash)
	require.NoError(t, err)
	assert.True(t, has)

	limit, hasLimit, err := h.stk.StakeLimitOf(stash)
	require.NoError(t, err)
	require.True(t, hasLimit)
	assert.Equal(t, int64(500), limit.Int64())
}

func TestStakeLimitSaturates(t *testing.T) {
	limit, err := LimitOf(1, 1, new(big.Int).Lsh(big.NewInt(1), 70))
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).SetUint64(math.MaxUint64), limit)

	limit, err = LimitOf(1, 4, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(125_000), limit.Int64())
}

func TestNominatePreconditions(t *testing.T) {
	h := newHarness(t, nil)
	stash, controller := addr(1), addr(2)
	require.NoError(t, h.st.SetBalance(stash, big.NewInt(1000)))
	require.NoError(t, h.stk.Bond(stash, controller, big.NewInt(100), ledger.DestinationStaked))

	assert.ErrorIs(t, h.stk.Nominate(controller, nil), reverts.ErrEmptyTargets)
	assert.ErrorIs(t, h.stk.Nominate(addr(9), []vesta.Address{addr(3)}), reverts.ErrNotController)

	targets := make([]vesta.Address, 0, 20)
	for i := byte(0); i < 20; i++ {
		targets = append(targets, addr(100+i))
	}
	require.NoError(t, h.stk.Nominate(controller, targets))
	noms, err := h.stk.nominators.Get(stash)
	require.NoError(t, err)
	assert.Len(t, noms.Targets, vesta.MaxNominations)
}

func TestEraRollElectsValidators(t *testing.T) {
	h := newHarness(t, nil)
	v1, v2, nom := addr(1), addr(2), addr(3)
	h.registerValidator(v1, addr(11), 100, 0)
	h.registerValidator(v2, addr(12), 50, 0)
	h.registerNominator(nom, addr(13), 60, v1, v2)

	elected, rolled := h.rollEra()
	require.True(t, rolled)
	assert.Equal(t, []vesta.Address{v1, v2}, elected)

	era, err := h.stk.CurrentEra()
	require.NoError(t, err)
	assert.Equal(t, vesta.EraIndex(1), era)

	// the nominator's 60 is equalized across both winners
	exposure, err := h.stk.ExposureOf(v1)
	require.NoError(t, err)
	assert.Equal(t, int64(105), exposure.Total.Int64())
	assert.Equal(t, int64(100), exposure.Own.Int64())
	exposure, err = h.stk.ExposureOf(v2)
	require.NoError(t, err)
	assert.Equal(t, int64(105), exposure.Total.Int64())
	assert.Equal(t, int64(50), exposure.Own.Int64())

	slot, err := h.stk.SlotStake()
	require.NoError(t, err)
	assert.Equal(t, int64(105), slot.Int64())

	// limits were refreshed from the workload oracle
	_, has, err := h.stk.StakeLimitOf(v1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestEraRollDegradedKeepsSet(t *testing.T) {
	h := newHarness(t, nil)
	v1 := addr(1)
	h.registerValidator(v1, addr(11), 100, 0)

	elected, rolled := h.rollEra()
	require.True(t, rolled)
	require.Equal(t, []vesta.Address{v1}, elected)

	// raising the minimum above the candidate count degrades the election
	require.NoError(t, h.stk.minValidators.Set(5))
	elected, rolled = h.rollEra()
	require.True(t, rolled)
	assert.Equal(t, []vesta.Address{v1}, elected, "prior set must be kept")
}

func TestForcing(t *testing.T) {
	config := &Config{
		SessionsPerEra:     100,
		BondingDuration:    3,
		SlashDeferDuration: 2,
		ExistentialDeposit: big.NewInt(1),
		RewardCurve:        inflation.DefaultRewardCurve,
	}
	h := newHarness(t, config)
	h.registerValidator(addr(1), addr(11), 100, 0)

	_, rolled := h.rollEra()
	assert.False(t, rolled, "era must not roll before sessions_per_era")

	require.NoError(t, h.stk.ForceNewEra())
	_, rolled = h.rollEra()
	assert.True(t, rolled)

	// ForceNew is consumed by the rollover
	_, rolled = h.rollEra()
	assert.False(t, rolled)

	require.NoError(t, h.stk.ForceNewEraAlways())
	_, rolled = h.rollEra()
	assert.True(t, rolled)
	_, rolled = h.rollEra()
	assert.True(t, rolled)

	require.NoError(t, h.stk.ForceNoEras())
	_, rolled = h.rollEra()
	assert.False(t, rolled)
}

func TestEraPayout(t *testing.T) {
	h := newHarness(t, nil)
	v, nom := addr(1), addr(3)
	commission := vesta.FromPercent(25)
	h.registerValidator(v, addr(11), 100, commission)
	h.registerNominator(nom, addr(13), 60, v)

	_, rolled := h.rollEra()
	require.True(t, rolled)

	exposure, err := h.stk.ExposureOf(v)
	require.NoError(t, err)
	require.Equal(t, int64(160), exposure.Total.Int64())

	require.NoError(t, h.stk.NoteAuthor(v))
	points, err := h.stk.EraPointsEarned()
	require.NoError(t, err)
	require.Equal(t, uint32(20), points.Total)

	vBefore, err := h.st.GetBalance(v)
	require.NoError(t, err)
	nomBefore, err := h.st.GetBalance(nom)
	require.NoError(t, err)

	h.time.now += vesta.MillisecondsPerYear
	_, rolled = h.rollEra()
	require.True(t, rolled)

	issuance := big.NewInt(1_000_000)
	slotStake := big.NewInt(160) // single winner, total backing 160
	totalPayout, maxPayout := inflation.ComputeTotalPayout(
		inflation.DefaultRewardCurve, slotStake, issuance, vesta.MillisecondsPerYear)
	require.True(t, totalPayout.Sign() > 0)

	// commission off the top, the rest pro-rata by exposure share
	offTheTable := commission.Mul(totalPayout)
	shared := new(big.Int).Sub(totalPayout, offTheTable)
	nomExpected := new(big.Int).Mul(shared, big.NewInt(60))
	nomExpected.Quo(nomExpected, big.NewInt(160))
	vExpected := new(big.Int).Mul(shared, big.NewInt(100))
	vExpected.Quo(vExpected, big.NewInt(160))
	vExpected.Add(vExpected, offTheTable)

	vAfter, err := h.st.GetBalance(v)
	require.NoError(t, err)
	nomAfter, err := h.st.GetBalance(nom)
	require.NoError(t, err)
	assert.Equal(t, vExpected.String(), new(big.Int).Sub(vAfter, vBefore).String())
	assert.Equal(t, nomExpected.String(), new(big.Int).Sub(nomAfter, nomBefore).String())

	distributed := new(big.Int).Add(vExpected, nomExpected)
	assert.Equal(t, new(big.Int).Sub(maxPayout, distributed).String(), h.remainder.received.String())

	// Staked destination re-bonds the reward
	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(big.NewInt(100), vExpected).String(), led.Active.String())

	// points reset after payout
	points, err = h.stk.EraPointsEarned()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), points.Total)
}

func TestRewardPointsOnlyForElected(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 100, 0)
	h.rollEra()

	require.NoError(t, h.stk.NoteAuthor(addr(9)))
	points, err := h.stk.EraPointsEarned()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), points.Total)

	require.NoError(t, h.stk.NoteUncle(v, addr(9)))
	points, err = h.stk.EraPointsEarned()
	require.NoError(t, err)
	assert.Equal(t, uint32(PointsPerUncleRef), points.Total)
}

func TestOffenceDeferredThenApplied(t *testing.T) {
	h := newHarness(t, nil)
	v, reporter := addr(1), addr(8)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra() // era 1, bonded (1, session 1)

	err := h.stk.OnOffence([]OffenceDetails{
		{Offender: v, Reporters: []vesta.Address{reporter}},
	}, []vesta.Perbill{vesta.FromPercent(25)}, 1)
	require.NoError(t, err)

	queue, err := h.stk.UnappliedSlashes(1)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, int64(250), queue[0].Own.Int64())

	// the offender is chilled and disabled
	has, err := h.stk.validators.Has(v)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, []vesta.Address{v}, h.sessions.disabled)

	// nothing applied before the defer window elapses
	h.rollEra() // era 2
	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), led.Total.Int64())

	h.rollEra() // era 3: 1 <= 3 - 2, the slash lands
	led, err = h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(750), led.Total.Int64())

	balance, err := h.st.GetBalance(reporter)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance.Int64(), "reporter earns 10% of the slash")
	assert.Equal(t, int64(225), h.sink.received.Int64())

	queue, err = h.stk.UnappliedSlashes(1)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestOffenceRepeatAbsorbed(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra()

	report := func() {
		err := h.stk.OnOffence([]OffenceDetails{{Offender: v}},
			[]vesta.Perbill{vesta.FromPercent(25)}, 1)
		require.NoError(t, err)
	}
	report()
	report()

	queue, err := h.stk.UnappliedSlashes(1)
	require.NoError(t, err)
	assert.Len(t, queue, 1, "the same fault must not be punished twice")
}

func TestOffenceCancelled(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra()

	err := h.stk.OnOffence([]OffenceDetails{{Offender: v}},
		[]vesta.Perbill{vesta.FromPercent(25)}, 1)
	require.NoError(t, err)

	require.NoError(t, h.stk.CancelDeferredSlash(1, []uint32{0}))

	h.rollEra()
	h.rollEra()
	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), led.Total.Int64(), "a cancelled slash must never land")
}

func TestOffenceImmediateWhenNoDefer(t *testing.T) {
	config := &Config{
		SessionsPerEra:     1,
		BondingDuration:    3,
		SlashDeferDuration: 0,
		ExistentialDeposit: big.NewInt(1),
		RewardCurve:        inflation.DefaultRewardCurve,
	}
	h := newHarness(t, config)
	v := addr(1)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra()

	err := h.stk.OnOffence([]OffenceDetails{{Offender: v}},
		[]vesta.Perbill{vesta.FromPercent(25)}, 1)
	require.NoError(t, err)

	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(750), led.Total.Int64())
}

func TestOffenceInvulnerable(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra()
	require.NoError(t, h.stk.SetInvulnerables([]vesta.Address{v}))

	err := h.stk.OnOffence([]OffenceDetails{{Offender: v}},
		[]vesta.Perbill{vesta.FromPercent(25)}, 1)
	require.NoError(t, err)

	queue, err := h.stk.UnappliedSlashes(1)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestOldOffenceDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 1000, 0)
	h.rollEra()

	// a session predating the bonded history cannot be punished
	err := h.stk.OnOffence([]OffenceDetails{{Offender: v}},
		[]vesta.Perbill{vesta.FromPercent(25)}, 0)
	require.NoError(t, err)

	queue, err := h.stk.UnappliedSlashes(1)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestStakeLimitEnforcement(t *testing.T) {
	h := newHarness(t, nil)
	v, a, b := addr(1), addr(2), addr(3)
	require.NoError(t, h.st.SetBalance(v, big.NewInt(40000)))
	require.NoError(t, h.st.SetBalance(a, big.NewInt(15000)))
	require.NoError(t, h.st.SetBalance(b, big.NewInt(10000)))
	require.NoError(t, h.stk.Bond(v, addr(11), big.NewInt(4000), ledger.DestinationStaked))
	require.NoError(t, h.stk.Bond(a, addr(12), big.NewInt(1500), ledger.DestinationStaked))
	require.NoError(t, h.stk.Bond(b, addr(13), big.NewInt(1000), ledger.DestinationStaked))

	// B nominated before A: exposure lists backers in registration order
	require.NoError(t, h.stk.Nominate(addr(13), []vesta.Address{v}))
	require.NoError(t, h.stk.Nominate(addr(12), []vesta.Address{v}))

	require.NoError(t, h.stk.stakers.Set(v, &Exposure{
		Total: big.NewInt(6500),
		Own:   big.NewInt(4000),
		Others: []IndividualExposure{
			{Who: b, Value: big.NewInt(1000)},
			{Who: a, Value: big.NewInt(1500)},
		},
	}))
	h.stk.slotStake.Set(big.NewInt(6500))

	require.NoError(t, h.stk.enforceStakeLimit(v, big.NewInt(5000)))

	exposure, err := h.stk.ExposureOf(v)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), exposure.Total.Int64())
	assert.Equal(t, int64(4000), exposure.Own.Int64())
	require.Len(t, exposure.Others, 1)
	assert.Equal(t, a, exposure.Others[0].Who)
	assert.Equal(t, int64(1000), exposure.Others[0].Value.Int64())

	// the truncated nominator keeps a shrunken ledger
	led, err := h.stk.Ledger(addr(12))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), led.Active.Int64())

	// the evicted nominator loses the contribution and the target
	led, err = h.stk.Ledger(addr(13))
	require.NoError(t, err)
	assert.Equal(t, int64(0), led.Active.Int64())
	has, err := h.stk.nominators.Has(b)
	require.NoError(t, err)
	assert.False(t, has)

	slot, err := h.stk.SlotStake()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), slot.Int64())
}

func TestStakeLimitTruncatesOwn(t *testing.T) {
	h := newHarness(t, nil)
	v, a := addr(1), addr(2)
	require.NoError(t, h.st.SetBalance(v, big.NewInt(40000)))
	require.NoError(t, h.st.SetBalance(a, big.NewInt(15000)))
	require.NoError(t, h.stk.Bond(v, addr(11), big.NewInt(4000), ledger.DestinationStaked))
	require.NoError(t, h.stk.Bond(a, addr(12), big.NewInt(1500), ledger.DestinationStaked))
	require.NoError(t, h.stk.Nominate(addr(12), []vesta.Address{v}))

	require.NoError(t, h.stk.stakers.Set(v, &Exposure{
		Total:  big.NewInt(5500),
		Own:    big.NewInt(4000),
		Others: []IndividualExposure{{Who: a, Value: big.NewInt(1500)}},
	}))
	h.stk.slotStake.Set(big.NewInt(5500))

	require.NoError(t, h.stk.enforceStakeLimit(v, big.NewInt(3000)))

	exposure, err := h.stk.ExposureOf(v)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), exposure.Total.Int64())
	assert.Equal(t, int64(3000), exposure.Own.Int64())
	assert.Empty(t, exposure.Others)

	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), led.Active.Int64())
	led, err = h.stk.Ledger(addr(12))
	require.NoError(t, err)
	assert.Equal(t, int64(0), led.Active.Int64())
}

func TestStakeLimitClampsGrownBond(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	require.NoError(t, h.st.SetBalance(v, big.NewInt(40000)))
	require.NoError(t, h.stk.Bond(v, addr(11), big.NewInt(4000), ledger.DestinationStaked))

	require.NoError(t, h.stk.stakers.Set(v, &Exposure{
		Total: big.NewInt(4000),
		Own:   big.NewInt(4000),
	}))
	h.stk.slotStake.Set(big.NewInt(4000))

	// the bond grows after the exposure snapshot was taken
	require.NoError(t, h.stk.BondExtra(addr(11), big.NewInt(2000)))

	require.NoError(t, h.stk.enforceStakeLimit(v, big.NewInt(3000)))

	// the ledger lands exactly on the limit, not limit plus the growth
	led, err := h.stk.Ledger(addr(11))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), led.Active.Int64())
	assert.Equal(t, int64(3000), led.Total.Int64())

	exposure, err := h.stk.ExposureOf(v)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), exposure.Own.Int64())
	assert.Equal(t, int64(3000), exposure.Total.Int64())
}

func TestZeroLimitLosesSeat(t *testing.T) {
	h := newHarness(t, nil)
	v1, v2 := addr(1), addr(2)
	h.registerValidator(v1, addr(11), 100, 0)
	h.registerValidator(v2, addr(12), 50, 0)

	elected, _ := h.rollEra()
	require.Len(t, elected, 2)

	// v2 stops providing workload: its refreshed limit drops to zero
	h.work.own[v2] = 0
	elected, _ = h.rollEra()
	assert.Equal(t, []vesta.Address{v1}, elected)

	_, has, err := h.stk.StakeLimitOf(v2)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestWithdrawPurgesStakingRecords(t *testing.T) {
	h := newHarness(t, nil)
	v := addr(1)
	h.registerValidator(v, addr(11), 100, 0)

	require.NoError(t, h.stk.Unbond(addr(11), big.NewInt(100)))
	for i := 0; i < 4; i++ {
		h.rollEra()
	}
	require.NoError(t, h.stk.WithdrawUnbonded(addr(11)))

	has, err := h.stk.validators.Has(v)
	require.NoError(t, err)
	assert.False(t, has)
	_, err = h.stk.Ledger(addr(11))
	assert.ErrorIs(t, err, reverts.ErrNotController)
}

func TestDispatchRevertsOnFailure(t *testing.T) {
	h := newHarness(t, nil)
	stash, controller := addr(1), addr(2)
	require.NoError(t, h.st.SetBalance(stash, big.NewInt(1000)))
	require.NoError(t, h.stk.Bond(stash, controller, big.NewInt(100), ledger.DestinationStaked))

	// a failing operation must leave no trace
	require.Error(t, h.stk.Bond(stash, addr(4), big.NewInt(100), ledger.DestinationStash))

	controllerGot, ok, err := h.stk.ledger.Controller(stash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, controller, controllerGot)

	payee, err := h.stk.ledger.Payee(stash)
	require.NoError(t, err)
	assert.Equal(t, ledger.DestinationStaked, payee)
}

func TestBondedErasPruned(t *testing.T) {
	h := newHarness(t, nil)
	h.registerValidator(addr(1), addr(11), 100, 0)

	for i := 0; i < 6; i++ {
		h.rollEra()
	}
	bonded, err := h.stk.bondedEras.Get()
	require.NoError(t, err)
	// era 6 keeps eras back to 6 - BondingDuration = 3
	require.Len(t, bonded, 4, "history is bounded by the bonding duration")
	assert.Equal(t, vesta.EraIndex(3), bonded[0].Era)
	assert.Equal(t, bonded[0].Session, h.sessions.prunedUpTo)
}
