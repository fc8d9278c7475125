// Copyright 2018 The go-n3ro Authors
// This file is part of the go-n3ro library.
//
// The go-n3ro library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-n3ro library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-n3ro library. If not, see <http://www.gnu.org/licenses/>.
// Package state provides a journaled write overlay above the persistent
// key-value store. An action writes into the overlay and either commits all of
// its writes in one batch or reverts every one of them.
package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
)

// ErrNotFound is returned by Get for keys that are absent or staged for
// deletion.
var ErrNotFound = errors.New("not found")

// defaultCacheSize is the number of committed records kept in the read cache.
const defaultCacheSize = 4096

type revision struct {
	id           int
	journalIndex int
}

type dirtyValue struct {
	data    []byte
	deleted bool
}

// StateDB buffers reads and writes of protocol records. It implements
// ethdb.KeyValueReader and ethdb.KeyValueWriter so the rawdb accessors work
// on it unchanged.
//
// StateDB is not safe for concurrent use.
type StateDB struct {
	db    ethdb.KeyValueStore
	cache *lru.Cache // committed key -> value

	dirty map[string]dirtyValue

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state overlay on top of db.
func New(db ethdb.KeyValueStore, cacheSize int) (*StateDB, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:      db,
		cache:   cache,
		dirty:   make(map[string]dirtyValue),
		journal: newJournal(),
	}, nil
}

// Database returns the backing store.
func (s *StateDB) Database() ethdb.KeyValueStore {
	return s.db
}

// Has retrieves if a key is present in the overlay or the backing store.
func (s *StateDB) Has(key []byte) (bool, error) {
	if v, ok := s.dirty[string(key)]; ok {
		return !v.deleted, nil
	}
	if s.cache.Contains(string(key)) {
		return true, nil
	}
	return s.db.Has(key)
}

// Get retrieves the value of key, preferring uncommitted writes.
func (s *StateDB) Get(key []byte) ([]byte, error) {
	if v, ok := s.dirty[string(key)]; ok {
		if v.deleted {
			return nil, ErrNotFound
		}
		return common.CopyBytes(v.data), nil
	}
	if cached, ok := s.cache.Get(string(key)); ok {
		return common.CopyBytes(cached.([]byte)), nil
	}
	data, err := s.db.Get(key)
	if err != nil {
		// Backends report missing keys with their own errors.
		if ok, herr := s.db.Has(key); herr == nil && !ok {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.Add(string(key), common.CopyBytes(data))
	return data, nil
}

// Put stages a write.
func (s *StateDB) Put(key []byte, value []byte) error {
	s.set(string(key), dirtyValue{data: common.CopyBytes(value)})
	return nil
}

// Delete stages a removal.
func (s *StateDB) Delete(key []byte) error {
	s.set(string(key), dirtyValue{deleted: true})
	return nil
}

func (s *StateDB) set(key string, val dirtyValue) {
	prev, prevSet := s.dirty[key]
	s.journal.append(storeChange{key: key, prev: prev, prevSet: prevSet})
	s.dirty[key] = val
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// DirtyKeys returns the number of keys with uncommitted changes.
func (s *StateDB) DirtyKeys() int {
	return len(s.journal.dirties)
}

// Commit flushes every staged write to the backing store in a single batch and
// clears the journal. On a write error the staged writes remain in place.
func (s *StateDB) Commit() error {
	if len(s.dirty) == 0 {
		s.reset()
		return nil
	}
	batch := s.db.NewBatch()
	for key, val := range s.dirty {
		var err error
		if val.deleted {
			err = batch.Delete([]byte(key))
		} else {
			err = batch.Put([]byte(key), val.data)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Trace("Committed state changes", "keys", len(s.dirty), "size", batch.ValueSize())

	for key, val := range s.dirty {
		if val.deleted {
			s.cache.Remove(key)
		} else {
			s.cache.Add(key, val.data)
		}
	}
	s.reset()
	return nil
}

// Discard drops every uncommitted change.
func (s *StateDB) Discard() {
	s.reset()
}

func (s *StateDB) reset() {
	s.dirty = make(map[string]dirtyValue)
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
}
