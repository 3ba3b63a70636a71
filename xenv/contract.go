// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"fmt"
	"sort"

	"github.com/swipegov/sxpgov/abi"
	"github.com/swipegov/sxpgov/state"
	"github.com/swipegov/sxpgov/sxp"
)

// Handler implements a native method. The returned values are abi encoded
// as the method outputs.
type Handler func(env *Environment) ([]any, error)

// NativeMethod binds a handler to its abi declaration.
type NativeMethod struct {
	ABI *abi.Method
	Run Handler
}

// Resolver returns the implementation a proxy at self forwards unknown calls to.
type Resolver func(st *state.State, self sxp.Address) (sxp.Address, error)

// Contract is a set of native methods bound to addresses by a code tag.
type Contract struct {
	code     string
	layout   string
	schema   uint64
	methods  map[abi.MethodID]*NativeMethod
	resolver Resolver
}

// NewContract creates an empty contract. layout names the storage family the
// contract reads and writes, schema its version within the family.
func NewContract(code, layout string, schema uint64) *Contract {
	return &Contract{
		code:    code,
		layout:  layout,
		schema:  schema,
		methods: make(map[abi.MethodID]*NativeMethod),
	}
}

// Code returns the code tag bound into state.
func (c *Contract) Code() string { return c.code }

// Layout returns the storage layout family.
func (c *Contract) Layout() string { return c.layout }

// Schema returns the storage schema version.
func (c *Contract) Schema() uint64 { return c.schema }

// Register adds a method parsed from decl. It panics on malformed or duplicate declarations.
func (c *Contract) Register(decl string, run Handler) *Contract {
	m := abi.MustParseMethod(decl)
	if _, dup := c.methods[m.ID()]; dup {
		panic(fmt.Sprintf("%s: duplicated method %s", c.code, m.Sig()))
	}
	c.methods[m.ID()] = &NativeMethod{ABI: m, Run: run}
	return c
}

// WithResolver turns the contract into a proxy forwarding unknown methods.
func (c *Contract) WithResolver(r Resolver) *Contract {
	c.resolver = r
	return c
}

// Resolver returns the proxy resolver, nil for plain contracts.
func (c *Contract) Resolver() Resolver { return c.resolver }

// Method looks up a method by id.
func (c *Contract) Method(id abi.MethodID) (*NativeMethod, bool) {
	m, ok := c.methods[id]
	return m, ok
}

// MethodByName looks up a method by name or by full signature. A bare name
// shared by overloads matches nothing.
func (c *Contract) MethodByName(name string) (*NativeMethod, bool) {
	var found *NativeMethod
	for _, m := range c.methods {
		if m.ABI.Sig() == name {
			return m, true
		}
		if m.ABI.Name() == name {
			if found != nil {
				return nil, false
			}
			found = m
		}
	}
	return found, found != nil
}

// Methods returns all methods sorted by signature.
func (c *Contract) Methods() []*NativeMethod {
	list := make([]*NativeMethod, 0, len(c.methods))
	for _, m := range c.methods {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ABI.Sig() < list[j].ABI.Sig()
	})
	return list
}
