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
	"context"
	"testing"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestDestroy(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type DestroyTest struct {
	c *Core
}

var _ SetUpInterface = &DestroyTest{}

func init() { RegisterTestSuite(&DestroyTest{}) }

func (t *DestroyTest) SetUp(ti *TestInfo) {
	t.c = NewCore(nil, nil, nil)
}

func (t *DestroyTest) makeFile(path string) *Entry {
	parent, base, err := t.c.resolveParent(context.Background(), path, 0, 0, nil)
	AssertEq(nil, err)
	child, err := t.c.allocateChild(parent, base, KindFile, 0644, 0, 0)
	AssertEq(nil, err)
	parent.unlockWrite()
	return child
}

func (t *DestroyTest) makeDir(path string) *Entry {
	parent, base, err := t.c.resolveParent(context.Background(), path, 0, 0, nil)
	AssertEq(nil, err)
	child, err := t.c.allocateChild(parent, base, KindDir, 0755, 0, 0)
	AssertEq(nil, err)
	parent.unlockWrite()
	return child
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *DestroyTest) TryDestroyLeavesLockedEntryAloneWhileLinksRemain() {
	e := t.makeFile("/f")
	e.lockWrite()

	destroyed, err := t.c.tryDestroy(context.Background(), "/f", e)
	AssertEq(nil, err)
	ExpectFalse(destroyed)
	ExpectEq(KindFile, e.Kind())

	e.unlockWrite()
}

func (t *DestroyTest) TryDestroyLeavesLockedEntryAloneWhileOpenCountPositive() {
	e := t.makeFile("/f")
	e.lockWrite()
	e.linkCount = 0
	e.openCount = 1

	destroyed, err := t.c.tryDestroy(context.Background(), "/f", e)
	AssertEq(nil, err)
	ExpectFalse(destroyed)

	e.unlockWrite()
}

func (t *DestroyTest) TryDestroyTearsDownAndUnlocksWhenUnreferenced() {
	e := t.makeFile("/f")
	e.lockWrite()
	e.linkCount = 0

	id := e.FileID()
	destroyed, err := t.c.tryDestroy(context.Background(), "/f", e)
	AssertEq(nil, err)
	ExpectTrue(destroyed)
	ExpectEq(KindDead, e.Kind())

	_, ok := t.c.entryByID(id)
	ExpectFalse(ok)

	// The entry is unlocked; a further write lock attempt must not block.
	e.lockWrite()
	e.unlockWrite()
}

func (t *DestroyTest) RunDetachOnceOnlyFiresTheRouteOnce() {
	count := 0
	_, err := t.c.Routes().Declare(RouteAny, OpDetach, func(ctx context.Context, core *Core, args *RouteArgs) error {
		count++
		return nil
	}, Concurrent)
	AssertEq(nil, err)

	e := t.makeFile("/f")
	e.lockWrite()
	defer e.unlockWrite()

	AssertEq(nil, t.c.runDetachOnce(context.Background(), "/f", e))
	AssertEq(nil, t.c.runDetachOnce(context.Background(), "/f", e))
	ExpectEq(1, count)
}

func (t *DestroyTest) RunDetachOnceToleratesNoMatchingRoute() {
	e := t.makeFile("/f")
	e.lockWrite()
	defer e.unlockWrite()

	ExpectEq(nil, t.c.runDetachOnce(context.Background(), "/f", e))
	ExpectTrue(e.detached)
}

func (t *DestroyTest) RunDetachOncePropagatesRouteError() {
	_, err := t.c.Routes().Declare(RouteAny, OpDetach, func(ctx context.Context, core *Core, args *RouteArgs) error {
		return EIO
	}, Concurrent)
	AssertEq(nil, err)

	e := t.makeFile("/f")
	e.lockWrite()
	defer e.unlockWrite()

	err = t.c.runDetachOnce(context.Background(), "/f", e)
	ExpectEq(EIO, err)
	ExpectFalse(e.detached)
}

func (t *DestroyTest) DetachChildrenDeregistersEveryChild() {
	t.makeFile("/a")
	t.makeFile("/b")

	root, err := t.c.resolve(context.Background(), "/", 0, 0, true, nil)
	AssertEq(nil, err)
	defer root.unlockWrite()

	aID, _ := root.children.FindByName("a")
	bID, _ := root.children.FindByName("b")

	AssertEq(nil, t.c.detachChildren(context.Background(), "/", root))

	_, ok := t.c.entryByID(aID.FileID())
	ExpectFalse(ok)
	_, ok = t.c.entryByID(bID.FileID())
	ExpectFalse(ok)
}

func (t *DestroyTest) DetachAllLeavesTheNamedDirectoryItselfIntact() {
	t.makeDir("/keep-root")
	t.makeFile("/keep-root/child")

	AssertEq(nil, t.c.DetachAll("/"))

	// Root is still registered and resolvable.
	e, err := t.c.resolve(context.Background(), "/", 0, 0, false, nil)
	AssertEq(nil, err)
	e.unlockRead()

	_, ok := t.c.entryByID(RootFileID)
	ExpectTrue(ok)
}

func (t *DestroyTest) DetachAllRejectsNonDirectory() {
	t.makeFile("/f")
	err := t.c.DetachAll("/f")
	ExpectEq(ENOTDIR, err)
}

func (t *DestroyTest) JoinPathHandlesRootAndNestedDirs() {
	ExpectEq("/foo", joinPath("/", "foo"))
	ExpectEq("/foo/bar", joinPath("/foo", "bar"))
}
