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

	"golang.org/x/sys/unix"
)

// Create implements the create(path, mode, uid, gid) verb (§4.5): POSIX
// creat(2), i.e. open with O_CREAT|O_WRONLY|O_TRUNC.
func (c *Core) Create(ctx context.Context, path string, mode os.FileMode, uid, gid uint64) (*FileHandle, error) {
	return c.Open(ctx, path, unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, mode, uid, gid)
}

// Open implements the open(path, flags, mode, uid, gid) verb (§4.5).
func (c *Core) Open(ctx context.Context, path string, flags int, mode os.FileMode, uid, gid uint64) (*FileHandle, error) {
	if flags&unix.O_CREAT != 0 {
		return c.openCreate(ctx, path, flags, mode, uid, gid)
	}

	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return nil, err
	}
	return c.finishOpenExisting(ctx, path, e, flags, uid, gid)
}

// openCreate handles the O_CREAT branch: either gets a structurally new
// entry (running the create route) or, if the name already exists, falls
// through to a normal open of it (running the open route), honoring
// O_EXCL in between.
func (c *Core) openCreate(ctx context.Context, path string, flags int, mode os.FileMode, uid, gid uint64) (*FileHandle, error) {
	parent, base, err := c.resolveParent(ctx, path, uid, gid, nil)
	if err != nil {
		return nil, err
	}

	if !parent.isWritable(uid, gid) || !parent.isSearchable(uid, gid) {
		parent.unlockWrite()
		return nil, EACCES
	}

	existing, ok := parent.children.FindByName(base)
	if ok {
		if flags&unix.O_EXCL != 0 {
			parent.unlockWrite()
			return nil, EEXIST
		}
		if existing.kind == KindDir {
			parent.unlockWrite()
			return nil, EISDIR
		}

		existing.lockWrite()
		parent.unlockWrite()
		return c.finishOpenExisting(ctx, path, existing, flags, uid, gid)
	}

	child, err := c.allocateChild(parent, base, KindFile, mode, uid, gid)
	if err != nil {
		parent.unlockWrite()
		return nil, err
	}
	child.lockWrite()

	args := &RouteArgs{Entry: child, UID: uid, GID: gid, Flags: flags, Mode: mode}
	if _, err := c.routes.dispatch(ctx, c, OpCreate, path, args); err != nil {
		c.rollbackCreate(parent, child)
		child.unlockWrite()
		parent.unlockWrite()
		return nil, err
	}
	parent.unlockWrite()

	child.appData = args.InodeData
	child.openCount++
	h := newFileHandle(child, path, flags, args.HandleData)
	child.unlockWrite()
	return h, nil
}

// finishOpenExisting runs the access check, the O_TRUNC trunc route (if
// requested) and the open route against an already-resolved, write-locked
// entry, and bumps open_count on success. It unlocks e in every case.
func (c *Core) finishOpenExisting(ctx context.Context, path string, e *Entry, flags int, uid, gid uint64) (*FileHandle, error) {
	if e.kind == KindDir && flags&unix.O_ACCMODE != unix.O_RDONLY {
		e.unlockWrite()
		return nil, EISDIR
	}

	if !checkAccMode(e, uid, gid, flags) {
		e.unlockWrite()
		return nil, EACCES
	}

	if flags&unix.O_TRUNC != 0 && e.kind == KindFile {
		args := &RouteArgs{Entry: e, UID: uid, GID: gid, NewSize: 0}
		if _, err := c.routes.dispatch(ctx, c, OpTrunc, path, args); err != nil {
			e.unlockWrite()
			return nil, err
		}
		e.size = 0
		e.touchMtime()
	}

	args := &RouteArgs{Entry: e, UID: uid, GID: gid, Flags: flags}
	if _, err := c.routes.dispatch(ctx, c, OpOpen, path, args); err != nil {
		e.unlockWrite()
		return nil, err
	}

	e.openCount++
	h := newFileHandle(e, path, flags, args.HandleData)
	e.unlockWrite()
	return h, nil
}

// checkAccMode reports whether (uid, gid) satisfies the read/write
// permission bits flags' O_ACCMODE portion demands.
func checkAccMode(e *Entry, uid, gid uint64, flags int) bool {
	switch flags & unix.O_ACCMODE {
	case unix.O_RDONLY:
		return e.isReadable(uid, gid)
	case unix.O_WRONLY:
		return e.isWritable(uid, gid)
	case unix.O_RDWR:
		return e.isReadable(uid, gid) && e.isWritable(uid, gid)
	default:
		return false
	}
}

// Close implements the close(handle) verb (§4.5): runs the close route,
// decrements open_count, and attempts destruction.
func (c *Core) Close(ctx context.Context, h *FileHandle) error {
	e := h.Entry()
	e.lockWrite()

	args := &RouteArgs{Entry: e, HandleData: h.AppData()}
	if _, err := c.routes.dispatch(ctx, c, OpClose, h.Path(), args); err != nil {
		e.unlockWrite()
		return err
	}

	e.openCount--

	destroyed, err := c.tryDestroy(ctx, h.Path(), e)
	if err != nil {
		e.unlockWrite()
		return err
	}
	if !destroyed {
		e.unlockWrite()
	}
	return nil
}
