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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

// expectPanics runs f and asserts it panics with a message containing
// substr, without depending on any particular matcher library support for
// recover-based assertions.
func expectPanics(substr string, f func()) (panicked bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		panicked = true
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, substr) {
			panic(r)
		}
	}()
	f()
	return
}

func TestEntry(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type EntryTest struct {
	clock timeutil.SimulatedClock
	e     *Entry
}

var _ SetUpInterface = &EntryTest{}

func init() { RegisterTestSuite(&EntryTest{}) }

func (t *EntryTest) SetUp(ti *TestInfo) {
	t.clock.SetTime(time.Date(2015, 4, 5, 2, 15, 0, 0, time.Local))
	t.e = newEntry(&t.clock, 17, KindFile, 0640, 500, 600)
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *EntryTest) NewEntrySeedsTimestampsAndLinkCount() {
	ExpectEq(1, t.e.LinkCount())
	ExpectEq(0, t.e.OpenCount())

	atime, mtime, ctime := t.e.Times()
	ExpectTrue(t.clock.Now().Equal(atime))
	ExpectTrue(t.clock.Now().Equal(mtime))
	ExpectTrue(t.clock.Now().Equal(ctime))
}

func (t *EntryTest) NewDirEntryGetsLinkCountTwoAndChildren() {
	dir := newEntry(&t.clock, 18, KindDir, os.ModeDir|0755, 0, 0)
	ExpectEq(2, dir.LinkCount())
	ExpectNe(nil, dir.children)
}

func (t *EntryTest) SetModePreservesTypeBitsAndBumpsCtime() {
	t.e.mode = os.ModeSymlink | 0640
	before := t.clock.Now()
	t.clock.AdvanceTime(time.Second)

	t.e.SetMode(0600)

	ExpectEq(os.ModeSymlink|0600, t.e.Mode())
	_, _, ctime := t.e.Times()
	ExpectTrue(ctime.After(before))
}

func (t *EntryTest) SetOwnerBumpsCtime() {
	before := t.clock.Now()
	t.clock.AdvanceTime(time.Second)

	t.e.SetOwner(1, 2)

	uid, gid := t.e.Owner()
	ExpectEq(1, uid)
	ExpectEq(2, gid)

	_, _, ctime := t.e.Times()
	ExpectTrue(ctime.After(before))
}

func (t *EntryTest) TouchMtimeBumpsCtimeToo() {
	t.clock.AdvanceTime(time.Second)
	t.e.touchMtime()

	_, mtime, ctime := t.e.Times()
	ExpectTrue(mtime.Equal(ctime))
}

func (t *EntryTest) TouchAtimeLeavesMtimeAndCtimeAlone() {
	origAtime, origMtime, origCtime := t.e.Times()
	t.clock.AdvanceTime(time.Second)
	t.e.touchAtime()

	atime, mtime, ctime := t.e.Times()
	ExpectTrue(atime.After(origAtime))
	ExpectTrue(mtime.Equal(origMtime))
	ExpectTrue(ctime.Equal(origCtime))
}

func (t *EntryTest) CheckInvariants_NegativeLinkCountPanics() {
	t.e.linkCount = -1
	ExpectTrue(expectPanics("negative link count", t.e.checkInvariants))
}

func (t *EntryTest) CheckInvariants_NegativeOpenCountPanics() {
	t.e.openCount = -1
	ExpectTrue(expectPanics("negative open count", t.e.checkInvariants))
}

func (t *EntryTest) CheckInvariants_DirWithNilChildrenPanics() {
	t.e.kind = KindDir
	t.e.children = nil
	ExpectTrue(expectPanics("nil children", t.e.checkInvariants))
}

func (t *EntryTest) CheckInvariants_NonDirWithChildrenPanics() {
	t.e.children = newEntrySet()
	ExpectTrue(expectPanics("non-directory", t.e.checkInvariants))
}

func (t *EntryTest) CheckInvariants_NonSymlinkWithTargetPanics() {
	t.e.symlinkTarget = "/foo"
	ExpectTrue(expectPanics("symlink target", t.e.checkInvariants))
}

////////////////////////////////////////////////////////////////////////
// Permission checks
////////////////////////////////////////////////////////////////////////

func (t *EntryTest) RootAlwaysPasses() {
	t.e.mode = 0000
	ExpectTrue(t.e.isReadable(0, 999))
	ExpectTrue(t.e.isWritable(0, 999))
	ExpectTrue(t.e.isSearchable(0, 999))
}

func (t *EntryTest) OwnerChecksOwnerBits() {
	t.e.mode = 0640 // rw-r-----
	t.e.owner = 500
	t.e.group = 600

	ExpectTrue(t.e.isReadable(500, 999))
	ExpectTrue(t.e.isWritable(500, 999))
	ExpectFalse(t.e.isSearchable(500, 999))
}

func (t *EntryTest) GroupChecksGroupBits() {
	t.e.mode = 0640
	t.e.owner = 500
	t.e.group = 600

	ExpectTrue(t.e.isReadable(999, 600))
	ExpectFalse(t.e.isWritable(999, 600))
}

func (t *EntryTest) OtherChecksOtherBits() {
	t.e.mode = 0644
	t.e.owner = 500
	t.e.group = 600

	ExpectTrue(t.e.isReadable(999, 999))
	ExpectFalse(t.e.isWritable(999, 999))
}

func (t *EntryTest) OwnerDoesNotFallBackToOtherBitsWhenOwnerBitsOff() {
	// Non-standard but legal: an owner with no owner-triad permission still
	// only checks the owner triad, not other's, per POSIX's strict
	// owner > group > other precedence.
	t.e.mode = 0044
	t.e.owner = 500
	t.e.group = 600

	ExpectFalse(t.e.isReadable(500, 999))
}
