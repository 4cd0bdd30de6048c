// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvstore_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestachain/vesta/kvstore"
	"github.com/vestachain/vesta/state"
	"github.com/vestachain/vesta/vesta"
)

func newContext() *kvstore.Context {
	return kvstore.NewContext(state.New())
}

func addr(b byte) vesta.Address {
	return vesta.BytesToAddress([]byte{b})
}

type record struct {
	Amount *big.Int
	Flag   bool
}

func TestMapping(t *testing.T) {
	ctx := newContext()
	m := kvstore.NewMapping[vesta.Address, *record](ctx, kvstore.NameToSlot("test-records"))

	// a missing key yields an allocated zero value
	got, err := m.Get(addr(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Amount)

	require.NoError(t, m.Set(addr(1), &record{Amount: big.NewInt(42), Flag: true}))
	got, err = m.Get(addr(1))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Amount.Int64())
	assert.True(t, got.Flag)

	has, err := m.Has(addr(1))
	require.NoError(t, err)
	assert.True(t, has)
	has, err = m.Has(addr(2))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.Remove(addr(1)))
	has, err = m.Has(addr(1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMappingTablesDoNotCollide(t *testing.T) {
	ctx := newContext()
	first := kvstore.NewMapping[vesta.Address, uint32](ctx, kvstore.NameToSlot("table-one"))
	second := kvstore.NewMapping[vesta.Address, uint32](ctx, kvstore.NameToSlot("table-two"))

	require.NoError(t, first.Set(addr(1), 7))
	has, err := second.Has(addr(1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestValue(t *testing.T) {
	ctx := newContext()
	v := kvstore.NewValue[[]vesta.Address](ctx, kvstore.NameToSlot("test-list"))

	got, err := v.Get()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, v.Set([]vesta.Address{addr(1), addr(2)}))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, []vesta.Address{addr(1), addr(2)}, got)

	has, err := v.Has()
	require.NoError(t, err)
	assert.True(t, has)

	v.Clear()
	has, err = v.Has()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUint256(t *testing.T) {
	ctx := newContext()
	u := kvstore.NewUint256(ctx, kvstore.NameToSlot("test-counter"))

	got, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int64())

	u.Set(big.NewInt(10))
	require.NoError(t, u.Add(big.NewInt(5)))
	require.NoError(t, u.Sub(big.NewInt(3)))
	got, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Int64())
}

func TestAddressList(t *testing.T) {
	ctx := newContext()
	list := kvstore.NewAddressList(ctx, "test-addresses")

	n, err := list.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, list.Add(addr(1)))
	require.NoError(t, list.Add(addr(2)))
	require.NoError(t, list.Add(addr(3)))
	require.NoError(t, list.Add(addr(2)), "re-adding is a no-op")

	n, err = list.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := list.All()
	require.NoError(t, err)
	assert.Equal(t, []vesta.Address{addr(1), addr(2), addr(3)}, all, "insertion order is kept")

	has, err := list.Contains(addr(2))
	require.NoError(t, err)
	assert.True(t, has)
	has, err = list.Contains(addr(9))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestAddressListRemove(t *testing.T) {
	ctx := newContext()
	list := kvstore.NewAddressList(ctx, "test-addresses")
	for i := byte(1); i <= 4; i++ {
		require.NoError(t, list.Add(addr(i)))
	}

	// middle
	require.NoError(t, list.Remove(addr(2)))
	all, err := list.All()
	require.NoError(t, err)
	assert.Equal(t, []vesta.Address{addr(1), addr(3), addr(4)}, all)

	// head
	require.NoError(t, list.Remove(addr(1)))
	// tail
	require.NoError(t, list.Remove(addr(4)))
	all, err = list.All()
	require.NoError(t, err)
	assert.Equal(t, []vesta.Address{addr(3)}, all)

	// non-member is a no-op
	require.NoError(t, list.Remove(addr(9)))

	require.NoError(t, list.Remove(addr(3)))
	n, err := list.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the emptied list accepts entries again
	require.NoError(t, list.Add(addr(5)))
	all, err = list.All()
	require.NoError(t, err)
	assert.Equal(t, []vesta.Address{addr(5)}, all)
}

func TestAddressListZeroAddress(t *testing.T) {
	ctx := newContext()
	list := kvstore.NewAddressList(ctx, "test-addresses")

	assert.Error(t, list.Add(vesta.Address{}))
	assert.NoError(t, list.Remove(vesta.Address{}))
}
