// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvstore

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vestachain/vesta/vesta"
)

// AddressList is a persistent doubly-linked list of addresses, in insertion
// (FIFO) order. It makes account sets enumerable with a deterministic order,
// which plain hashed mappings cannot provide.
type AddressList struct {
	head  *AddressValue
	tail  *AddressValue
	count *Uint256
	next  *Mapping[vesta.Address, vesta.Address]
	prev  *Mapping[vesta.Address, vesta.Address]
}

// NewAddressList creates a list rooted at slots derived from name.
func NewAddressList(context *Context, name string) *AddressList {
	headPos := NameToSlot(name + "-head")
	tailPos := NameToSlot(name + "-tail")
	countPos := NameToSlot(name + "-count")
	return &AddressList{
		head:  NewAddressValue(context, headPos),
		tail:  NewAddressValue(context, tailPos),
		count: NewUint256(context, countPos),
		next:  NewMapping[vesta.Address, vesta.Address](context, headPos),
		prev:  NewMapping[vesta.Address, vesta.Address](context, tailPos),
	}
}

// Contains reports membership of the address.
func (l *AddressList) Contains(address vesta.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	return l.isHead(address)
}

// Add appends an address to the end of the list. Adding an existing entry
// is a no-op.
func (l *AddressList) Add(address vesta.Address) error {
	if address.IsZero() {
		return errors.New("cannot add zero address")
	}
	if has, err := l.Contains(address); err != nil {
		return err
	} else if has {
		return nil
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, this entry becomes head & tail
		l.head.Set(address)
		l.tail.Set(address)
		return l.count.Add(big.NewInt(1))
	}

	if err := l.next.Set(oldTail, address); err != nil {
		return err
	}
	if err := l.prev.Set(address, oldTail); err != nil {
		return err
	}
	l.tail.Set(address)

	return l.count.Add(big.NewInt(1))
}

// Remove extracts an address from anywhere in the list, reconnecting
// adjacent nodes. Removing a non-member is a no-op.
func (l *AddressList) Remove(address vesta.Address) error {
	if address.IsZero() {
		return nil
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return err
	}

	if prev.IsZero() {
		isHead, err := l.isHead(address)
		if err != nil {
			return err
		}
		if !isHead {
			return nil // not in list
		}
	}

	if !prev.IsZero() {
		if err := l.next.Set(prev, next); err != nil {
			return err
		}
	} else {
		l.head.Set(next)
	}

	if !next.IsZero() {
		if err := l.prev.Set(next, prev); err != nil {
			return err
		}
	} else {
		l.tail.Set(prev)
	}

	if err := l.next.Remove(address); err != nil {
		return err
	}
	if err := l.prev.Remove(address); err != nil {
		return err
	}

	return l.count.Sub(big.NewInt(1))
}

// Len returns the number of entries.
func (l *AddressList) Len() (int, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// Iter walks the list in insertion order, invoking the callback for every
// entry. The callback must not mutate the list.
func (l *AddressList) Iter(fn func(vesta.Address) error) error {
	cur, err := l.head.Get()
	if err != nil {
		return err
	}
	for !cur.IsZero() {
		if err := fn(cur); err != nil {
			return err
		}
		cur, err = l.next.Get(cur)
		if err != nil {
			return err
		}
	}
	return nil
}

// All returns every entry in insertion order.
func (l *AddressList) All() ([]vesta.Address, error) {
	var out []vesta.Address
	err := l.Iter(func(a vesta.Address) error {
		out = append(out, a)
		return nil
	})
	return out, err
}

func (l *AddressList) isHead(address vesta.Address) (bool, error) {
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == address, nil
}
