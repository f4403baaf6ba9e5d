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
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestHandle(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type HandleTest struct {
	clock timeutil.SimulatedClock
	dir   *Entry
}

var _ SetUpInterface = &HandleTest{}

func init() { RegisterTestSuite(&HandleTest{}) }

func (t *HandleTest) SetUp(ti *TestInfo) {
	t.dir = newEntry(&t.clock, RootFileID, KindDir, 0755, 0, 0)
}

func (t *HandleTest) addChild(id uint64, name string, kind Kind) *Entry {
	child := newEntry(&t.clock, id, kind, 0644, 0, 0)
	t.dir.children.InsertUnique(name, child)
	return child
}

////////////////////////////////////////////////////////////////////////
// FileHandle
////////////////////////////////////////////////////////////////////////

func (t *HandleTest) FileHandleCarriesWhatItWasOpenedWith() {
	e := newEntry(&t.clock, 5, KindFile, 0644, 0, 0)
	h := newFileHandle(e, "/foo", 0x2, "appdata")

	ExpectEq(e, h.Entry())
	ExpectEq(uint64(5), h.FileID())
	ExpectEq("/foo", h.Path())
	ExpectEq(0x2, h.Flags())
	ExpectEq("appdata", h.AppData())
}

func (t *HandleTest) SetAppDataReplacesIt() {
	e := newEntry(&t.clock, 5, KindFile, 0644, 0, 0)
	h := newFileHandle(e, "/foo", 0, nil)

	h.SetAppData("new")
	ExpectEq("new", h.AppData())
}

////////////////////////////////////////////////////////////////////////
// DirHandle / dirListingAt / Next
////////////////////////////////////////////////////////////////////////

func (t *HandleTest) DirListingAtYieldsDotThenDotDotFirst() {
	name, kind, id, next, ok := dirListingAt(t.dir, 0)
	AssertTrue(ok)
	ExpectEq(".", name)
	ExpectEq(KindDir, kind)
	ExpectEq(t.dir.FileID(), id)
	ExpectEq(1, next)

	name, kind, id, next, ok = dirListingAt(t.dir, 1)
	AssertTrue(ok)
	ExpectEq("..", name)
	ExpectEq(t.dir.FileID(), id) // root is its own parent
	ExpectEq(2, next)
}

func (t *HandleTest) DirListingAtDotDotFollowsParentWhenSet() {
	parent := newEntry(&t.clock, 2, KindDir, 0755, 0, 0)
	t.dir.parent = parent

	_, _, id, _, ok := dirListingAt(t.dir, 1)
	AssertTrue(ok)
	ExpectEq(parent.FileID(), id)
}

func (t *HandleTest) DirListingAtSkipsTombstonedSlots() {
	t.addChild(10, "a", KindFile)
	t.addChild(11, "b", KindFile)
	t.addChild(12, "c", KindFile)
	t.dir.children.Remove("b")

	name, _, id, next, ok := dirListingAt(t.dir, 2)
	AssertTrue(ok)
	ExpectEq("a", name)
	ExpectEq(uint64(10), id)
	ExpectEq(3, next)

	// Resuming at the tombstoned slot's position lands on "c", not "b".
	name, _, id, _, ok = dirListingAt(t.dir, 3)
	AssertTrue(ok)
	ExpectEq("c", name)
	ExpectEq(uint64(12), id)
}

func (t *HandleTest) DirListingAtPastEndReportsNotOk() {
	_, _, _, _, ok := dirListingAt(t.dir, 2)
	ExpectFalse(ok)
}

func (t *HandleTest) NextReturnsDotDotDotThenChildrenWithoutRepeats() {
	t.addChild(10, "a", KindFile)
	t.addChild(11, "b", KindFile)

	h := newDirHandle(t.dir, "/", nil)

	first := h.Next(t.dir, 3)
	AssertEq(3, len(first))
	ExpectEq(".", first[0].Name)
	ExpectEq("..", first[1].Name)
	ExpectEq("a", first[2].Name)

	second := h.Next(t.dir, 3)
	AssertEq(1, len(second))
	ExpectEq("b", second[0].Name)

	third := h.Next(t.dir, 3)
	ExpectEq(0, len(third))
}

func (t *HandleTest) NextSkipsATombstoneAcrossCallBoundaries() {
	t.addChild(10, "a", KindFile)
	t.addChild(11, "b", KindFile)
	t.addChild(12, "c", KindFile)
	t.dir.children.Remove("b")

	h := newDirHandle(t.dir, "/", nil)
	h.Next(t.dir, 2) // consume "." and ".."

	batch := h.Next(t.dir, 1)
	AssertEq(1, len(batch))
	ExpectEq("a", batch[0].Name)

	batch = h.Next(t.dir, 1)
	AssertEq(1, len(batch))
	ExpectEq("c", batch[0].Name)
}

func (t *HandleTest) RewindTellAndSeekRoundTrip() {
	t.addChild(10, "a", KindFile)
	h := newDirHandle(t.dir, "/", nil)

	h.Next(t.dir, 2)
	pos := h.Tell()
	ExpectEq(2, pos)

	h.Next(t.dir, 1)
	ExpectEq(3, h.Tell())

	h.Seek(pos)
	batch := h.Next(t.dir, 1)
	AssertEq(1, len(batch))
	ExpectEq("a", batch[0].Name)

	h.Rewind()
	ExpectEq(0, h.Tell())
}
