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

import "context"

// Rename implements the rename(old, new, uid, gid) verb (§4.5). Both
// parent directories must be searchable and writable; the source must
// exist; an existing destination must be "compatible" (both regular
// files, or both empty directories) and is atomically unlinked. Lock
// order: the two parent directories are acquired in ascending file_id
// order (§5: file_id substitutes for the original's raw pointer order,
// since Go pointers are not a stable comparison key under a moving
// collector), then source and destination entries, also by file_id.
func (c *Core) Rename(ctx context.Context, oldPath, newPath string, uid, gid uint64) error {
	oldDir, oldBase, err := splitDirBase(oldPath)
	if err != nil {
		return err
	}
	newDir, newBase, err := splitDirBase(newPath)
	if err != nil {
		return err
	}

	if oldDir == newDir {
		parent, err := c.resolve(ctx, oldDir, uid, gid, true, nil)
		if err != nil {
			return err
		}
		defer parent.unlockWrite()
		return c.renameWithinParent(ctx, parent, oldPath, oldBase, newPath, newBase, uid, gid)
	}

	oldParent, newParent, err := c.resolveRenameParents(ctx, oldDir, newDir, uid, gid)
	if err != nil {
		return err
	}
	defer oldParent.unlockWrite()
	defer newParent.unlockWrite()

	return c.renameAcrossParents(ctx, oldParent, oldPath, oldBase, newParent, newPath, newBase, uid, gid)
}

// resolveRenameParents locates two distinct parent directories and
// returns them both write-locked, locked in ascending file_id order
// regardless of which path is "old" and which is "new", so two
// concurrent renames crossing the same pair of directories can never
// deadlock against each other.
func (c *Core) resolveRenameParents(ctx context.Context, oldDir, newDir string, uid, gid uint64) (oldParent, newParent *Entry, err error) {
	probe, err := c.resolve(ctx, oldDir, uid, gid, false, nil)
	if err != nil {
		return nil, nil, err
	}
	oldID := probe.FileID()
	probe.unlockRead()

	probe, err = c.resolve(ctx, newDir, uid, gid, false, nil)
	if err != nil {
		return nil, nil, err
	}
	newID := probe.FileID()
	probe.unlockRead()

	firstPath, secondPath := oldDir, newDir
	if newID < oldID {
		firstPath, secondPath = newDir, oldDir
	}

	first, err := c.resolve(ctx, firstPath, uid, gid, true, nil)
	if err != nil {
		return nil, nil, err
	}
	second, err := c.resolve(ctx, secondPath, uid, gid, true, nil)
	if err != nil {
		first.unlockWrite()
		return nil, nil, err
	}

	if firstPath == oldDir {
		return first, second, nil
	}
	return second, first, nil
}

func renameCheckDest(src, dst *Entry) error {
	if dst.kind == KindDir && src.kind != KindDir {
		return EISDIR
	}
	if dst.kind != KindDir && src.kind == KindDir {
		return ENOTDIR
	}
	if dst.kind == KindDir && dst.children.Size() > 0 {
		return ENOTEMPTY
	}
	return nil
}

// renameWithinParent handles old and new sharing a single parent
// directory, held write-locked once by the caller.
func (c *Core) renameWithinParent(ctx context.Context, parent *Entry, oldPath, oldBase, newPath, newBase string, uid, gid uint64) error {
	if !parent.isWritable(uid, gid) || !parent.isSearchable(uid, gid) {
		return EACCES
	}

	src, ok := parent.children.FindByName(oldBase)
	if !ok {
		return ENOENT
	}
	if oldBase == newBase {
		return nil
	}

	dst, dstOk := parent.children.FindByName(newBase)

	dstLocked := lockEntriesByID(src, dst, dstOk)
	defer func() {
		src.unlockWrite()
		if dstLocked {
			dst.unlockWrite()
		}
	}()

	if dstOk {
		if err := renameCheckDest(src, dst); err != nil {
			return err
		}
	}

	args := &RouteArgs{Entry: src, UID: uid, GID: gid, NewPath: newPath}
	if dstOk {
		args.NewEntry = dst
	}
	if _, err := c.routes.dispatch(ctx, c, OpRename, oldPath, args); err != nil {
		return err
	}

	if dstOk {
		destroyed, err := c.replaceDestination(ctx, newPath, parent, newBase, dst)
		if err != nil {
			return err
		}
		dstLocked = !destroyed // tryDestroy already unlocked dst on success
	}

	parent.children.Remove(oldBase)
	src.name = newBase
	parent.children.InsertUnique(newBase, src)
	src.touchCtime()
	parent.touchMtime()

	return nil
}

// renameAcrossParents handles old and new having distinct parents, both
// already write-locked by the caller in a deadlock-safe order.
func (c *Core) renameAcrossParents(ctx context.Context, oldParent *Entry, oldPath, oldBase string, newParent *Entry, newPath, newBase string, uid, gid uint64) error {
	if !oldParent.isWritable(uid, gid) || !oldParent.isSearchable(uid, gid) {
		return EACCES
	}
	if !newParent.isWritable(uid, gid) || !newParent.isSearchable(uid, gid) {
		return EACCES
	}

	src, ok := oldParent.children.FindByName(oldBase)
	if !ok {
		return ENOENT
	}

	dst, dstOk := newParent.children.FindByName(newBase)

	dstLocked := lockEntriesByID(src, dst, dstOk)
	defer func() {
		src.unlockWrite()
		if dstLocked {
			dst.unlockWrite()
		}
	}()

	if dstOk {
		if err := renameCheckDest(src, dst); err != nil {
			return err
		}
	}

	args := &RouteArgs{Entry: src, UID: uid, GID: gid, NewPath: newPath}
	if dstOk {
		args.NewEntry = dst
	}
	if _, err := c.routes.dispatch(ctx, c, OpRename, oldPath, args); err != nil {
		return err
	}

	if dstOk {
		destroyed, err := c.replaceDestination(ctx, newPath, newParent, newBase, dst)
		if err != nil {
			return err
		}
		dstLocked = !destroyed
	}

	oldParent.children.Remove(oldBase)
	src.name = newBase
	src.parent = newParent
	newParent.children.InsertUnique(newBase, src)
	src.touchCtime()
	oldParent.touchMtime()
	newParent.touchMtime()

	if src.kind == KindDir {
		oldParent.linkCount--
		newParent.linkCount++
	}

	return nil
}

// replaceDestination atomically unlinks an existing destination entry
// (dst), already write-locked, as part of a rename overwrite. It reports
// whether dst was destroyed outright (in which case tryDestroy has
// already unlocked it) or merely orphaned pending outstanding handles (in
// which case it is still locked and the caller must unlock it).
func (c *Core) replaceDestination(ctx context.Context, path string, parent *Entry, base string, dst *Entry) (destroyed bool, err error) {
	if err := c.runDetachOnce(ctx, path, dst); err != nil {
		return false, err
	}

	parent.children.Remove(base)
	dst.parent = nil
	dst.deletionInProgress = true
	dst.linkCount = 0

	return c.tryDestroy(ctx, path, dst)
}

// lockEntriesByID locks src (and dst, if present) write, ordered by
// file_id so two renames racing over the same pair of entries from
// opposite directions cannot deadlock. It reports whether dst was locked
// (always equal to dstOk).
func lockEntriesByID(src, dst *Entry, dstOk bool) bool {
	if !dstOk {
		src.lockWrite()
		return false
	}
	if dst.FileID() < src.FileID() {
		dst.lockWrite()
		src.lockWrite()
	} else {
		src.lockWrite()
		dst.lockWrite()
	}
	return true
}
