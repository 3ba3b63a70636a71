// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/sxp"
)

// Array is an append friendly dynamic array. The length lives at the base
// position, elements at positions derived from their index.
type Array[V any] struct {
	length   *Uint64
	elements *Mapping[Uint64Key, V]
}

func NewArray[V any](ctx *Context, pos sxp.Bytes32) *Array[V] {
	return &Array[V]{
		length:   NewUint64(ctx, pos),
		elements: NewMapping[Uint64Key, V](ctx, pos),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

// Get returns the element at index, which must be below Len.
func (a *Array[V]) Get(index uint64) (v V, err error) {
	n, err := a.length.Get()
	if err != nil {
		return v, err
	}
	if index >= n {
		return v, errors.Errorf("array index %d out of range [0, %d)", index, n)
	}
	return a.elements.Get(Uint64Key(index))
}

// Set overwrites the element at index, which must be below Len.
func (a *Array[V]) Set(index uint64, v V) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if index >= n {
		return errors.Errorf("array index %d out of range [0, %d)", index, n)
	}
	return a.elements.Set(Uint64Key(index), v)
}

// Push appends v.
func (a *Array[V]) Push(v V) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if err := a.elements.Set(Uint64Key(n), v); err != nil {
		return err
	}
	a.length.Set(n + 1)
	return nil
}
