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
package state

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)

	// dirtied returns the key modified by this journal entry.
	dirtied() string
}

// journal contains the list of state modifications applied since the last state
// commit. These are tracked to be able to be reverted in case of an action
// failure.
type journal struct {
	entries []journalEntry // Current changes tracked by the journal
	dirties map[string]int // Dirty keys and the number of changes
}

// newJournal create a new initialized journal.
func newJournal() *journal {
	return &journal{
		dirties: make(map[string]int),
	}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	j.dirties[entry.dirtied()]++
}

// revert undoes a batch of journalled modifications along with any reverted
// dirty handling too.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		// Undo the changes made by the operation
		j.entries[i].revert(statedb)

		// Drop any dirty tracking induced by the change
		key := j.entries[i].dirtied()
		if j.dirties[key]--; j.dirties[key] == 0 {
			delete(j.dirties, key)
		}
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

// storeChange records the overlay slot of a key before a put or delete.
type storeChange struct {
	key     string
	prev    dirtyValue
	prevSet bool // whether the key was already in the overlay
}

func (ch storeChange) revert(s *StateDB) {
	if ch.prevSet {
		s.dirty[ch.key] = ch.prev
	} else {
		delete(s.dirty, ch.key)
	}
}

func (ch storeChange) dirtied() string {
	return ch.key
}
