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

	"golang.org/x/sys/unix"
)

// Read implements the read(handle, buf, len, off) verb (§4.5): buf is
// filled up to len(buf) bytes starting at off; n is how many the route
// actually reported.
func (c *Core) Read(ctx context.Context, h *FileHandle, buf []byte, off int64) (n int, err error) {
	if h.Flags()&unix.O_ACCMODE == unix.O_WRONLY {
		return 0, EACCES
	}

	e := h.Entry()
	e.lockRead()
	defer e.unlockRead()

	args := &RouteArgs{Entry: e, Data: buf, Offset: off, HandleData: h.AppData()}
	matched, err := c.routes.dispatch(ctx, c, OpRead, h.Path(), args)
	if err != nil {
		return 0, err
	}
	if !matched {
		return 0, nil
	}

	e.touchAtime()
	return args.N, nil
}

// Write implements the write(handle, buf, len, off) verb (§4.5): on
// success the entry's size grows to max(size, off+n) and mtime updates.
func (c *Core) Write(ctx context.Context, h *FileHandle, buf []byte, off int64) (n int, err error) {
	accMode := h.Flags() & unix.O_ACCMODE
	if accMode != unix.O_WRONLY && accMode != unix.O_RDWR {
		return 0, EACCES
	}

	e := h.Entry()
	e.lockWrite()
	defer e.unlockWrite()

	args := &RouteArgs{Entry: e, Data: buf, Offset: off, HandleData: h.AppData()}
	matched, err := c.routes.dispatch(ctx, c, OpWrite, h.Path(), args)
	if err != nil {
		return 0, err
	}
	if !matched {
		return 0, nil
	}

	newSize := uint64(off) + uint64(args.N)
	if newSize > e.size {
		e.size = newSize
	}
	e.touchMtime()

	return args.N, nil
}

// FTrunc implements the trunc(path, size, uid, gid) verb's core-level
// counterpart for an already-open handle (ftruncate): runs the trunc
// route, then sets the entry's reported size.
func (c *Core) FTrunc(ctx context.Context, h *FileHandle, newSize uint64) error {
	e := h.Entry()
	e.lockWrite()
	defer e.unlockWrite()

	return c.truncLocked(ctx, h.Path(), e, newSize)
}

// Trunc implements truncate(path, size, uid, gid): resolves path and
// truncates the found entry.
func (c *Core) Trunc(ctx context.Context, path string, newSize uint64, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if e.kind != KindFile {
		return EISDIR
	}
	if !e.isWritable(uid, gid) {
		return EACCES
	}

	return c.truncLocked(ctx, path, e, newSize)
}

// truncLocked requires e held write-locked.
func (c *Core) truncLocked(ctx context.Context, path string, e *Entry, newSize uint64) error {
	args := &RouteArgs{Entry: e, NewSize: newSize}
	if _, err := c.routes.dispatch(ctx, c, OpTrunc, path, args); err != nil {
		return err
	}

	e.size = newSize
	e.touchMtime()
	return nil
}
