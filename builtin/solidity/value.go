// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/swipegov/sxpgov/sxp"
)

// Value is a variable of any rlp encodable type, such as a string or a struct.
// A variable never written reads as the zero value of V.
type Value[V any] struct {
	ctx *Context
	pos sxp.Bytes32
}

func NewValue[V any](ctx *Context, pos sxp.Bytes32) *Value[V] {
	return &Value[V]{ctx: ctx, pos: pos}
}

func (v *Value[V]) Get() (value V, err error) {
	err = v.ctx.state.DecodeStorage(v.ctx.address, v.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (v *Value[V]) Set(value V) error {
	return v.ctx.state.EncodeStorage(v.ctx.address, v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Clear resets the variable to its zero value.
func (v *Value[V]) Clear() {
	v.ctx.state.SetRawStorage(v.ctx.address, v.pos, nil)
}
