// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/kv"
)

// Stage is the set of changes accumulated by a State, ready to be written.
type Stage struct {
	state   *State
	changes map[any]any
	order   []any
}

// Stage collects the latest value of every key changed since the last commit.
func (s *State) Stage() *Stage {
	stage := &Stage{state: s, changes: make(map[any]any)}
	s.sm.Journal(func(key, value any) bool {
		if _, ok := stage.changes[key]; !ok {
			stage.order = append(stage.order, key)
		}
		stage.changes[key] = value
		return true
	})
	return stage
}

// Len returns the count of changed keys.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Commit writes all changes in one batch per bucket and resets the revision
// layers of the state. The read cache is refreshed with the committed values.
func (st *Stage) Commit() error {
	s := st.state
	batches := map[kv.Store]kv.Batch{
		s.storage: s.storage.NewBatch(),
		s.balance: s.balance.NewBatch(),
		s.code:    s.code.NewBatch(),
	}

	write := func(store kv.Store, key, value []byte) error {
		if len(value) == 0 {
			return batches[store].Delete(key)
		}
		return batches[store].Put(key, value)
	}

	for _, key := range st.order {
		value := st.changes[key]
		var err error
		switch k := key.(type) {
		case storageKey:
			err = write(s.storage, append(k.addr.Bytes(), k.key.Bytes()...), value.(rlp.RawValue))
		case balanceKey:
			err = write(s.balance, k[:], value.(*big.Int).Bytes())
		case codeKey:
			err = write(s.code, k[:], value.([]byte))
		}
		if err != nil {
			return &Error{errors.Wrap(err, "stage")}
		}
	}

	for _, batch := range batches {
		if batch.Len() == 0 {
			continue
		}
		if err := batch.Write(); err != nil {
			return &Error{errors.Wrap(err, "commit")}
		}
	}
	metricStateWrites().Add(int64(len(st.order)))

	for key, value := range st.changes {
		s.cache.Add(key, value)
	}
	s.reset()
	return nil
}
