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
	"os"
)

// Mkdir implements the mkdir(path, mode, uid, gid) verb (§4.5): the
// parent must be writable and searchable; the new directory gets
// link_count=2, and the parent gains one link for the new directory's "..".
func (c *Core) Mkdir(ctx context.Context, path string, mode os.FileMode, uid, gid uint64) error {
	parent, base, err := c.resolveParent(ctx, path, uid, gid, nil)
	if err != nil {
		return err
	}
	defer parent.unlockWrite()

	if !parent.isWritable(uid, gid) || !parent.isSearchable(uid, gid) {
		return EACCES
	}
	if _, ok := parent.children.FindByName(base); ok {
		return EEXIST
	}

	child, err := c.allocateChild(parent, base, KindDir, mode|os.ModeDir, uid, gid)
	if err != nil {
		return err
	}
	child.lockWrite()

	args := &RouteArgs{Entry: child, UID: uid, GID: gid, Mode: mode}
	if _, err := c.routes.dispatch(ctx, c, OpMkdir, path, args); err != nil {
		c.rollbackCreate(parent, child)
		child.unlockWrite()
		return err
	}

	child.appData = args.InodeData
	parent.linkCount++
	child.unlockWrite()
	return nil
}

// Rmdir implements the rmdir(path, uid, gid) verb (§4.5): the directory
// must be empty (no children beyond the synthesized "."/".."), the detach
// route runs, the entry is spliced out of its parent and orphaned, the
// parent loses a link (its ".." reference), and destruction is attempted.
func (c *Core) Rmdir(ctx context.Context, path string, uid, gid uint64) error {
	parent, base, err := c.resolveParent(ctx, path, uid, gid, nil)
	if err != nil {
		return err
	}
	defer parent.unlockWrite()

	if !parent.isWritable(uid, gid) || !parent.isSearchable(uid, gid) {
		return EACCES
	}

	target, ok := parent.children.FindByName(base)
	if !ok {
		return ENOENT
	}
	if target.kind != KindDir {
		return ENOTDIR
	}

	target.lockWrite()

	if target.children.Size() > 0 {
		target.unlockWrite()
		return ENOTEMPTY
	}

	if err := c.runDetachOnce(ctx, path, target); err != nil {
		target.unlockWrite()
		return err
	}

	parent.children.Remove(base)
	target.deletionInProgress = true
	target.parent = nil
	target.linkCount = 0
	parent.linkCount--
	parent.touchMtime()

	destroyed, err := c.tryDestroy(ctx, path, target)
	if err != nil {
		target.unlockWrite()
		return err
	}
	if !destroyed {
		target.unlockWrite()
	}
	return nil
}
