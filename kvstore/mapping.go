// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvstore

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vestachain/vesta/vesta"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// BytesKey adapts raw bytes (e.g. composite keys) to the Key interface.
type BytesKey []byte

// Bytes implements Key.
func (b BytesKey) Bytes() []byte { return b }

// Mapping is a persistent key/value table. Values are RLP encoded and
// stored at blake2b-derived slots, so distinct tables never collide.
type Mapping[K Key, V any] struct {
	context *Context
	basePos vesta.Bytes32
}

// NewMapping creates a mapping rooted at the given slot.
func NewMapping[K Key, V any](context *Context, pos vesta.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get loads the value for the key. A missing key yields the zero value
// (allocated, for pointer types).
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	position := vesta.Blake2b(key.Bytes(), m.basePos.Bytes())
	err = m.context.state.DecodeStorage(position, func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value for the key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	position := vesta.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.state.EncodeStorage(position, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Has reports whether the key holds a stored value.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	position := vesta.Blake2b(key.Bytes(), m.basePos.Bytes())
	raw, err := m.context.state.GetRawStorage(position)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Remove deletes the key.
func (m *Mapping[K, V]) Remove(key K) error {
	position := vesta.Blake2b(key.Bytes(), m.basePos.Bytes())
	m.context.state.SetRawStorage(position, nil)
	return nil
}
