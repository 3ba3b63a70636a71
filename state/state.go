// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages per-address storage slots, native balances and code bindings.
// Changes are kept in revertible layers and flushed to a kv.Store by Stage.
package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/swipegov/sxpgov/cache"
	"github.com/swipegov/sxpgov/kv"
	"github.com/swipegov/sxpgov/stackedmap"
	"github.com/swipegov/sxpgov/sxp"
)

const (
	storageBucket = kv.Bucket("s")
	balanceBucket = kv.Bucket("b")
	codeBucket    = kv.Bucket("c")

	defaultCacheSize = 8192
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	storageKey struct {
		addr sxp.Address
		key  sxp.Bytes32
	}
	balanceKey sxp.Address
	codeKey    sxp.Address
)

// State manages the world state.
type State struct {
	storage kv.Store
	balance kv.Store
	code    kv.Store
	cache   *cache.LRU
	sm      *stackedmap.StackedMap[any, any]
}

// New create state object on top of the given store.
func New(store kv.Store) *State {
	c, _ := cache.NewLRU(defaultCacheSize)
	s := &State{
		storage: storageBucket.NewStore(store),
		balance: balanceBucket.NewStore(store),
		code:    codeBucket.NewStore(store),
		cache:   c,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.load)
}

// load implements stackedmap.Getter, reading through the cache.
func (s *State) load(key any) (any, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(key any) (any, error) {
		switch k := key.(type) {
		case storageKey:
			metricStateAccess().AddWithLabel(1, map[string]string{"type": "storage", "source": "store"})
			raw, err := s.read(s.storage, append(k.addr.Bytes(), k.key.Bytes()...))
			return rlp.RawValue(raw), err
		case balanceKey:
			metricStateAccess().AddWithLabel(1, map[string]string{"type": "balance", "source": "store"})
			raw, err := s.read(s.balance, k[:])
			return new(big.Int).SetBytes(raw), err
		case codeKey:
			metricStateAccess().AddWithLabel(1, map[string]string{"type": "code", "source": "store"})
			return s.read(s.code, k[:])
		}
		panic(fmt.Errorf("unexpected key type %+v", key))
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *State) read(store kv.Getter, key []byte) ([]byte, error) {
	raw, err := store.Get(key)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// GetBalance returns native balance for the given address.
func (s *State) GetBalance(addr sxp.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set native balance for the given address.
func (s *State) SetBalance(addr sxp.Address, balance *big.Int) {
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
}

// GetCode returns the code binding of the given address, empty if none.
func (s *State) GetCode(addr sxp.Address) ([]byte, error) {
	v, _, err := s.sm.Get(codeKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// SetCode binds code to the given address.
func (s *State) SetCode(addr sxp.Address, code []byte) {
	s.sm.Put(codeKey(addr), append([]byte(nil), code...))
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr sxp.Address, key sxp.Bytes32) (sxp.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return sxp.Bytes32{}, err
	}
	if len(raw) == 0 {
		return sxp.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return sxp.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return sxp.Blake2b(raw), nil
	}
	return sxp.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr sxp.Address, key, value sxp.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr sxp.Address, key sxp.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr sxp.Address, key sxp.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr sxp.Address, key sxp.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr sxp.Address, key sxp.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}
