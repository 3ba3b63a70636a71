// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/swipegov/sxpgov/builtin/reverts"
	"github.com/swipegov/sxpgov/sxp"
)

// Uint256 is an unsigned 256 bit integer variable. Arithmetic reverts on overflow
// and underflow instead of wrapping.
type Uint256 struct {
	ctx *Context
	pos sxp.Bytes32
}

func NewUint256(ctx *Context, pos sxp.Bytes32) *Uint256 {
	return &Uint256{ctx: ctx, pos: pos}
}

func (u *Uint256) load() (*uint256.Int, error) {
	storage, err := u.ctx.state.GetStorage(u.ctx.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(storage[:]), nil
}

func (u *Uint256) store(v *uint256.Int) {
	u.ctx.state.SetStorage(u.ctx.address, u.pos, sxp.Bytes32(v.Bytes32()))
}

// Get returns the value.
func (u *Uint256) Get() (*big.Int, error) {
	v, err := u.load()
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

// Set stores value, which must be within [0, 2^256).
func (u *Uint256) Set(value *big.Int) error {
	v, err := toUint256(value)
	if err != nil {
		return err
	}
	u.store(v)
	return nil
}

// Add adds value and returns the new value.
func (u *Uint256) Add(value *big.Int) (*big.Int, error) {
	return u.apply(value, (*uint256.Int).AddOverflow, "overflow")
}

// Sub subtracts value and returns the new value.
func (u *Uint256) Sub(value *big.Int) (*big.Int, error) {
	return u.apply(value, (*uint256.Int).SubOverflow, "underflow")
}

func (u *Uint256) apply(
	value *big.Int,
	op func(z, x, y *uint256.Int) (*uint256.Int, bool),
	failure string,
) (*big.Int, error) {
	delta, err := toUint256(value)
	if err != nil {
		return nil, err
	}
	current, err := u.load()
	if err != nil {
		return nil, err
	}
	result, failed := op(new(uint256.Int), current, delta)
	if failed {
		return nil, reverts.NewInvariant("uint256 %s", failure)
	}
	u.store(result)
	return result.ToBig(), nil
}

func toUint256(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, reverts.NewValidation("negative uint256")
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return nil, reverts.NewValidation("uint256 out of range")
	}
	return v, nil
}

// Uint64 is an unsigned integer variable used for block numbers, durations and counters.
type Uint64 struct {
	ctx *Context
	pos sxp.Bytes32
}

func NewUint64(ctx *Context, pos sxp.Bytes32) *Uint64 {
	return &Uint64{ctx: ctx, pos: pos}
}

func (u *Uint64) Get() (uint64, error) {
	storage, err := u.ctx.state.GetStorage(u.ctx.address, u.pos)
	if err != nil {
		return 0, err
	}
	return new(uint256.Int).SetBytes32(storage[:]).Uint64(), nil
}

func (u *Uint64) Set(value uint64) {
	u.ctx.state.SetStorage(u.ctx.address, u.pos, sxp.Bytes32(uint256.NewInt(value).Bytes32()))
}

// Increment adds one and returns the new value.
func (u *Uint64) Increment() (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	v++
	u.Set(v)
	return v, nil
}
