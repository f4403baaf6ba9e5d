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
	"time"

	"golang.org/x/sys/unix"
)

// Stat is the POSIX attribute structure materialized from an Entry by
// Stat/FStat (§4.5).
type Stat struct {
	FileID    uint64
	Kind      Kind
	Mode      os.FileMode
	UID, GID  uint64
	Size      uint64
	Blocks    uint64
	BlockSize uint32
	LinkCount int
	Dev       uint32 // FilesystemType, a fixed magic number (§6.4)
	Rdev      Dev
	Atime     time.Time
	Mtime     time.Time
	Ctime     time.Time
}

const statBlockSize = 512

func statFromEntry(e *Entry) Stat {
	atime, mtime, ctime := e.Times()
	blocks := (e.Size() + statBlockSize - 1) / statBlockSize

	return Stat{
		FileID:    e.FileID(),
		Kind:      e.Kind(),
		Mode:      e.Mode(),
		UID:       e.owner,
		GID:       e.group,
		Size:      e.Size(),
		Blocks:    blocks,
		BlockSize: 4096,
		LinkCount: e.LinkCount(),
		Dev:       FilesystemType,
		Rdev:      e.DevNumbers(),
		Atime:     atime,
		Mtime:     mtime,
		Ctime:     ctime,
	}
}

// Stat implements stat(path, uid, gid) (§4.5).
func (c *Core) Stat(ctx context.Context, path string, uid, gid uint64) (Stat, error) {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return Stat{}, err
	}
	defer e.unlockRead()

	args := &RouteArgs{Entry: e, UID: uid, GID: gid}
	if _, err := c.routes.dispatch(ctx, c, OpStat, path, args); err != nil {
		return Stat{}, err
	}

	return statFromEntry(e), nil
}

// FStat implements fstat(handle) (§4.5).
func (c *Core) FStat(ctx context.Context, h *FileHandle) (Stat, error) {
	e := h.Entry()
	e.lockRead()
	defer e.unlockRead()

	args := &RouteArgs{Entry: e, HandleData: h.AppData()}
	if _, err := c.routes.dispatch(ctx, c, OpStat, h.Path(), args); err != nil {
		return Stat{}, err
	}

	return statFromEntry(e), nil
}

// Statvfs is the filesystem-wide attribute structure returned by Statvfs
// (§4.5).
type Statvfs struct {
	Fsid     uint32 // FilesystemType
	NameMax  uint32 // FilesystemNameMax
	Files    int64  // core.FileCount()
}

// Statvfs implements statvfs() (§4.5): no per-file-size accounting exists
// in an in-memory core with no persistence, so every field but f_fsid,
// f_namemax and f_files is left zero.
func (c *Core) Statvfs(ctx context.Context) Statvfs {
	return Statvfs{
		Fsid:    FilesystemType,
		NameMax: FilesystemNameMax,
		Files:   c.FileCount(),
	}
}

// Access implements access(path, uid, gid, mode) (§4.5): mode is a
// combination of unix.R_OK/W_OK/X_OK, checked against the resolved
// entry's owner/group/other bits; uid 0 always passes.
func (c *Core) Access(ctx context.Context, path string, uid, gid uint64, mode uint32) error {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return err
	}
	defer e.unlockRead()

	if mode&unix.R_OK != 0 && !e.isReadable(uid, gid) {
		return EACCES
	}
	if mode&unix.W_OK != 0 && !e.isWritable(uid, gid) {
		return EACCES
	}
	if mode&unix.X_OK != 0 && !e.isSearchable(uid, gid) {
		return EACCES
	}
	return nil
}

// Sync implements sync(path) (§4.5): the core holds no dirty buffers
// (there is no persistence, per Non-goals), so this is a pure
// route-dispatch passthrough.
func (c *Core) Sync(ctx context.Context, path string, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return err
	}
	defer e.unlockRead()

	args := &RouteArgs{Entry: e, UID: uid, GID: gid}
	_, err = c.routes.dispatch(ctx, c, OpSync, path, args)
	return err
}

// FSync implements sync(handle) (§4.5), the handle-based counterpart to
// Sync.
func (c *Core) FSync(ctx context.Context, h *FileHandle) error {
	e := h.Entry()
	e.lockRead()
	defer e.unlockRead()

	args := &RouteArgs{Entry: e, HandleData: h.AppData()}
	_, err := c.routes.dispatch(ctx, c, OpSync, h.Path(), args)
	return err
}
