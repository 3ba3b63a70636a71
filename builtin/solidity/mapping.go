// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"

	"github.com/swipegov/sxpgov/sxp"
)

// Key is a mapping key.
type Key interface {
	Bytes() []byte
}

// Uint64Key is an integer mapping key, e.g. a proposal id.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity.
// Entries are rlp encoded at Derive(basePos, key).
type Mapping[K Key, V any] struct {
	ctx     *Context
	basePos sxp.Bytes32
}

func NewMapping[K Key, V any](ctx *Context, pos sxp.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, basePos: pos}
}

func (m *Mapping[K, V]) entry(key K) *Value[V] {
	return NewValue[V](m.ctx, Derive(m.basePos, key.Bytes()))
}

// Get returns the value at key, the zero value if absent.
func (m *Mapping[K, V]) Get(key K) (V, error) {
	return m.entry(key).Get()
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.entry(key).Set(value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.entry(key).Clear()
}
