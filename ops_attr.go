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
)

// canChangeAttrs reports whether (uid, gid) may chmod/chown/utime an
// entry: ownership or the privileged uid (§4.5: "requires ownership or
// privileged caller").
func canChangeAttrs(e *Entry, uid uint64) bool {
	return uid == 0 || uid == e.owner
}

// Chmod implements chmod(path, mode, uid, gid) (§4.5).
func (c *Core) Chmod(ctx context.Context, path string, mode os.FileMode, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if !canChangeAttrs(e, uid) {
		return EPERM
	}

	e.SetMode(mode)
	return nil
}

// Chown implements chown(path, uid, gid, caller_uid, caller_gid) (§4.5).
// Passing an id of ^uint64(0) leaves that field unchanged, mirroring
// POSIX chown's "-1 means don't change" convention.
func (c *Core) Chown(ctx context.Context, path string, newUID, newGID uint64, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if !canChangeAttrs(e, uid) {
		return EPERM
	}

	curUID, curGID := e.Owner()
	if newUID == ^uint64(0) {
		newUID = curUID
	}
	if newGID == ^uint64(0) {
		newGID = curGID
	}
	e.SetOwner(newUID, newGID)
	return nil
}

// Utime implements utime(path, atime, mtime, uid, gid) (§4.5). A nil
// pointer leaves that timestamp unchanged.
func (c *Core) Utime(ctx context.Context, path string, atime, mtime *time.Time, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if !canChangeAttrs(e, uid) {
		return EPERM
	}

	e.SetTimes(atime, mtime)
	return nil
}
