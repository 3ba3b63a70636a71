// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/swipegov/sxpgov/sxp"
)

// Address is an address variable.
type Address struct {
	ctx *Context
	pos sxp.Bytes32
}

func NewAddress(ctx *Context, pos sxp.Bytes32) *Address {
	return &Address{ctx: ctx, pos: pos}
}

func (a *Address) Get() (sxp.Address, error) {
	storage, err := a.ctx.state.GetStorage(a.ctx.address, a.pos)
	if err != nil {
		return sxp.Address{}, err
	}
	return sxp.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr sxp.Address) {
	a.ctx.state.SetStorage(a.ctx.address, a.pos, sxp.BytesToBytes32(addr.Bytes()))
}

// Bool is a boolean variable.
type Bool struct {
	ctx *Context
	pos sxp.Bytes32
}

func NewBool(ctx *Context, pos sxp.Bytes32) *Bool {
	return &Bool{ctx: ctx, pos: pos}
}

func (b *Bool) Get() (bool, error) {
	storage, err := b.ctx.state.GetStorage(b.ctx.address, b.pos)
	if err != nil {
		return false, err
	}
	return !storage.IsZero(), nil
}

func (b *Bool) Set(v bool) {
	var storage sxp.Bytes32
	if v {
		storage[31] = 1
	}
	b.ctx.state.SetStorage(b.ctx.address, b.pos, storage)
}
