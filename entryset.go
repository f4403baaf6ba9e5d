// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fskit

import "hash/fnv"

// nameHash is the 64-bit FNV-1a hash of a child name (§4.2). Callers that
// already know it (the path walker, mid-descent) can skip re-hashing by
// calling FindByHash directly.
func nameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// EntrySet is a directory's mapping from child name to child Entry: a hash
// table keyed by nameHash, with the name itself carried on the child and
// compared on collision (§4.2). It is not independently locked; it is
// mutated only while the owning directory Entry's lock is held.
//
// Entries are also kept in a slot slice in insertion order so that a
// readdir cursor (§4.7) can refer to a stable position — removing a child
// tombstones its slot in place rather than shifting later slots, exactly as memfs's
// inode.entries does for its Dirent.Offset invariant.
type EntrySet struct {
	slots []*Entry          // nil slot = unused/reusable
	index map[uint64][]int  // nameHash -> candidate slot indices
	count int
}

func newEntrySet() *EntrySet {
	return &EntrySet{
		index: make(map[uint64][]int),
	}
}

// Size returns the number of live (non-tombstoned) children.
func (s *EntrySet) Size() int { return s.count }

// FindByName looks up a child by name, hashing it first.
func (s *EntrySet) FindByName(name string) (*Entry, bool) {
	return s.FindByHash(nameHash(name), name)
}

// FindByHash looks up a child given a precomputed hash and the name to
// disambiguate collisions, for callers (the path walker) that already
// know the hash.
func (s *EntrySet) FindByHash(hash uint64, name string) (*Entry, bool) {
	for _, i := range s.index[hash] {
		e := s.slots[i]
		if e != nil && e.name == name {
			return e, true
		}
	}
	return nil, false
}

// InsertUnique adds a child under name. It panics if name is already
// present; callers must check with FindByName first (the core's
// create/mkdir/mknod/symlink/rename paths all resolve-then-insert under a
// single write lock, so this can never race with itself).
func (s *EntrySet) InsertUnique(name string, e *Entry) {
	if _, ok := s.FindByName(name); ok {
		panic("fskit: duplicate child name: " + name)
	}

	e.name = name
	hash := nameHash(name)

	// Reuse a tombstoned slot if one exists.
	for i, slot := range s.slots {
		if slot == nil {
			s.slots[i] = e
			s.index[hash] = append(s.index[hash], i)
			s.count++
			return
		}
	}

	i := len(s.slots)
	s.slots = append(s.slots, e)
	s.index[hash] = append(s.index[hash], i)
	s.count++
}

// RemoveByHash tombstones the slot holding the child named name with the
// given precomputed hash. It is a no-op if no such child exists.
func (s *EntrySet) RemoveByHash(hash uint64, name string) {
	candidates := s.index[hash]
	for j, i := range candidates {
		if s.slots[i] != nil && s.slots[i].name == name {
			s.slots[i] = nil
			s.index[hash] = append(candidates[:j], candidates[j+1:]...)
			s.count--
			return
		}
	}
}

// Remove tombstones the slot holding the child named name.
func (s *EntrySet) Remove(name string) {
	s.RemoveByHash(nameHash(name), name)
}

// Each calls f for every live child, in stable slot order (the order
// readdir reports them in). f must not mutate the EntrySet.
func (s *EntrySet) Each(f func(name string, e *Entry)) {
	for _, e := range s.slots {
		if e != nil {
			f(e.name, e)
		}
	}
}

// slotAt returns the live entry at slot index i, or nil if i is out of
// range or tombstoned. Used by the readdir cursor (§4.7).
func (s *EntrySet) slotAt(i int) *Entry {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}

func (s *EntrySet) numSlots() int { return len(s.slots) }
