// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvstore

import (
	"github.com/vestachain/vesta/state"
	"github.com/vestachain/vesta/vesta"
)

// Context bundles the state a group of typed accessors operates on.
type Context struct {
	state *state.State
}

// NewContext creates a storage context over the given state.
func NewContext(state *state.State) *Context {
	return &Context{state: state}
}

// State exposes the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// NameToSlot derives a storage slot from a table name.
func NameToSlot(name string) vesta.Bytes32 {
	return vesta.BytesToBytes32([]byte(name))
}
