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

import (
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(id uint64) *Entry {
	var clock timeutil.SimulatedClock
	return newEntry(&clock, id, KindFile, 0644, 0, 0)
}

func TestEntrySet_InsertAndFind(t *testing.T) {
	cases := []struct {
		name string
		id   uint64
	}{
		{"a", 1},
		{"bb", 2},
		{"ccc", 3},
		{"", 4},
	}

	s := newEntrySet()
	for _, c := range cases {
		s.InsertUnique(c.name, testEntry(c.id))
	}

	require.Equal(t, len(cases), s.Size())

	for _, c := range cases {
		e, ok := s.FindByName(c.name)
		require.True(t, ok, "name %q", c.name)
		assert.Equal(t, c.id, e.FileID())
	}

	_, ok := s.FindByName("missing")
	assert.False(t, ok)
}

func TestEntrySet_DuplicateInsertPanics(t *testing.T) {
	s := newEntrySet()
	s.InsertUnique("x", testEntry(1))

	assert.Panics(t, func() {
		s.InsertUnique("x", testEntry(2))
	})
}

func TestEntrySet_RemoveTombstonesSlotInPlace(t *testing.T) {
	s := newEntrySet()
	s.InsertUnique("a", testEntry(1))
	s.InsertUnique("b", testEntry(2))
	s.InsertUnique("c", testEntry(3))

	s.Remove("b")
	require.Equal(t, 2, s.Size())

	_, ok := s.FindByName("b")
	assert.False(t, ok)

	// "c" keeps its slot index rather than shifting down, so a readdir
	// cursor pointing past "b" still lands on "c".
	assert.Equal(t, 3, s.numSlots())
	assert.Equal(t, "c", s.slotAt(2).Name())
}

func TestEntrySet_InsertReusesTombstonedSlot(t *testing.T) {
	s := newEntrySet()
	s.InsertUnique("a", testEntry(1))
	s.InsertUnique("b", testEntry(2))
	s.Remove("a")

	s.InsertUnique("z", testEntry(3))

	require.Equal(t, 2, s.Size())
	assert.Equal(t, 2, s.numSlots(), "reused the tombstoned slot 0 instead of growing")
	assert.Equal(t, "z", s.slotAt(0).Name())
}

func TestEntrySet_Each_SkipsTombstones(t *testing.T) {
	s := newEntrySet()
	s.InsertUnique("a", testEntry(1))
	s.InsertUnique("b", testEntry(2))
	s.InsertUnique("c", testEntry(3))
	s.Remove("b")

	var seen []string
	s.Each(func(name string, e *Entry) {
		seen = append(seen, name)
	})

	assert.ElementsMatch(t, []string{"a", "c"}, seen)
}

func TestNameHash_Deterministic(t *testing.T) {
	assert.Equal(t, nameHash("taco"), nameHash("taco"))
	assert.NotEqual(t, nameHash("taco"), nameHash("burrito"))
}
