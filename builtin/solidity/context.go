// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity provides typed storage variables for native contracts.
// Every variable lives at a slot derived from its name, so adding fields in a
// later logic version never shifts existing ones.
package solidity

import (
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
)

// Context is the storage a contract reads and writes: an address in a state.
type Context struct {
	address sxp.Address
	state   *state.State
}

func NewContext(address sxp.Address, state *state.State) *Context {
	return &Context{address: address, state: state}
}

func (c *Context) Address() sxp.Address { return c.address }
func (c *Context) State() *state.State  { return c.state }

// Slot returns the storage position of the variable called name.
func Slot(name string) sxp.Bytes32 {
	return sxp.Keccak256([]byte(name))
}

// Derive returns the position of key under base, as mappings lay out their entries.
func Derive(base sxp.Bytes32, key []byte) sxp.Bytes32 {
	return sxp.Blake2b(key, base.Bytes())
}
