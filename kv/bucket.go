// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

// NewStore creates a bucket store from the source store.
// Keys seen through the returned store carry no bucket prefix.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.b.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error) { return s.src.Has(s.b.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, value []byte) error { return s.src.Put(s.b.key(key), value) }
func (s *bucketStore) Delete(key []byte) error { return s.src.Delete(s.b.key(key)) }
func (s *bucketStore) NewBatch() Batch { return &bucketBatch{s.b, s.src.NewBatch()} }

func (s *bucketStore) Iterate(r Range) Iterator {
	r.Start = s.b.key(r.Start)
	if len(r.Limit) == 0 {
		r.Limit = util.BytesPrefix([]byte(s.b)).Limit
	} else {
		r.Limit = s.b.key(r.Limit)
	}
	return &bucketIterator{s.src.Iterate(r), len(s.b)}
}

type bucketBatch struct {
	b     Bucket
	batch Batch
}

func (bb *bucketBatch) Put(key, value []byte) error { return bb.batch.Put(bb.b.key(key), value) }
func (bb *bucketBatch) Delete(key []byte) error { return bb.batch.Delete(bb.b.key(key)) }
func (bb *bucketBatch) Len() int { return bb.batch.Len() }
func (bb *bucketBatch) Write() error { return bb.batch.Write() }

type bucketIterator struct {
	Iterator
	prefixLen int
}

// Key strips the bucket prefix.
func (it *bucketIterator) Key() []byte {
	return it.Iterator.Key()[it.prefixLen:]
}
