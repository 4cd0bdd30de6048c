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

// Value is a single RLP-encoded record at a fixed slot.
type Value[T any] struct {
	context *Context
	pos     vesta.Bytes32
}

// NewValue creates the accessor at the given slot.
func NewValue[T any](context *Context, slot vesta.Bytes32) *Value[T] {
	return &Value[T]{context: context, pos: slot}
}

// Get loads the stored record. A missing slot yields the zero value
// (allocated, for pointer types).
func (v *Value[T]) Get() (value T, err error) {
	err = v.context.state.DecodeStorage(v.pos, func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(T)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the record.
func (v *Value[T]) Set(value T) error {
	return v.context.state.EncodeStorage(v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Has reports whether a record is stored.
func (v *Value[T]) Has() (bool, error) {
	raw, err := v.context.state.GetRawStorage(v.pos)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Clear deletes the record.
func (v *Value[T]) Clear() {
	v.context.state.SetRawStorage(v.pos, nil)
}

// AddressValue is a single address at a fixed slot.
type AddressValue struct {
	context *Context
	pos     vesta.Bytes32
}

// NewAddressValue creates the accessor at the given slot.
func NewAddressValue(context *Context, slot vesta.Bytes32) *AddressValue {
	return &AddressValue{context: context, pos: slot}
}

// Get loads the stored address, zero if unset.
func (a *AddressValue) Get() (vesta.Address, error) {
	storage, err := a.context.state.GetStorage(a.pos)
	if err != nil {
		return vesta.Address{}, err
	}
	return vesta.BytesToAddress(storage.Bytes()), nil
}

// Set stores the address.
func (a *AddressValue) Set(addr vesta.Address) {
	a.context.state.SetStorage(a.pos, vesta.BytesToBytes32(addr.Bytes()))
}
