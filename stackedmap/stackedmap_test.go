// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vestachain/vesta/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key any) (any, bool) {
		v, ok := src[key.(string)]
		return v, ok
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 0, "", "", "foo", []any{"bar", true}},
		{func() { sm.Push() }, 1, "foo", "baz", "foo", []any{"baz", true}},
		{func() { sm.Push() }, 2, "foo", "qux", "foo", []any{"qux", true}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"baz", true}},
		{func() { sm.Pop() }, 0, "", "", "foo", []any{"bar", true}},

		{func() { sm.Push(); sm.Push() }, 2, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			v, ok := sm.Get(test.getKey)
			assert.Equal(test.getReturn, []any{v, ok})
		}
	}
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(key any) (any, bool) {
		return nil, false
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "c"},
		{"a1", "b1"},
		{"a2", "b2"},
	}

	sm.Push()
	for _, kv := range kvs {
		sm.Put(kv.k, kv.v)
	}
	for _, kv := range kvs[1:] {
		v, ok := sm.Get(kv.k)
		assert.True(ok)
		assert.Equal(kv.v, v)
	}

	sm.Pop()
	for _, kv := range kvs {
		_, ok := sm.Get(kv.k)
		assert.False(ok)
	}
}

func TestStackedMapCollapse(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(key any) (any, bool) {
		return nil, false
	})

	sm.Push() // base
	sm.Put("a", "base")

	checkpoint := sm.Push()
	sm.Put("a", "one")
	sm.Push()
	sm.Put("b", "two")

	sm.Collapse(checkpoint)
	assert.Equal(1, sm.Depth(), "collapse folds everything into the base")

	v, ok := sm.Get("a")
	assert.True(ok)
	assert.Equal("one", v, "the newest value wins")
	v, ok = sm.Get("b")
	assert.True(ok)
	assert.Equal("two", v)

	// collapsed writes survive a later revert of the base boundary
	next := sm.Push()
	sm.Put("a", "three")
	sm.PopTo(next)
	v, _ = sm.Get("a")
	assert.Equal("one", v)
}

func TestStackedMapCollapseThenPop(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(key any) (any, bool) {
		return nil, false
	})

	sm.Push()
	checkpoint := sm.Push()
	sm.Put("k", "v1")
	inner := sm.Push()
	sm.Put("k", "v2")
	sm.Collapse(inner)

	// the outer checkpoint is still revertable
	sm.PopTo(checkpoint)
	_, ok := sm.Get("k")
	assert.False(ok)
}
