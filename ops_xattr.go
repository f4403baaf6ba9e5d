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
	"sort"

	"golang.org/x/sys/unix"
)

// GetXattr implements getxattr(path, name, uid, gid, out) (§4.5): if out
// is nil (a size query), only the required length is returned.
func (c *Core) GetXattr(ctx context.Context, path, name string, uid, gid uint64, out []byte) (int, error) {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return 0, err
	}
	defer e.unlockRead()

	if !e.isReadable(uid, gid) {
		return 0, EACCES
	}

	val, ok := e.xattrs[name]
	if !ok {
		return 0, ENODATA
	}
	if out == nil {
		return len(val), nil
	}
	return copy(out, val), nil
}

// SetXattr implements setxattr(path, name, value, flags, uid, gid)
// (§4.5): flags honors POSIX XATTR_CREATE/XATTR_REPLACE.
func (c *Core) SetXattr(ctx context.Context, path, name string, value []byte, flags int, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if !e.isWritable(uid, gid) {
		return EACCES
	}

	_, exists := e.xattrs[name]
	if flags&unix.XATTR_CREATE != 0 && exists {
		return EEXIST
	}
	if flags&unix.XATTR_REPLACE != 0 && !exists {
		return ENODATA
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	e.xattrs[name] = stored
	e.touchCtime()
	return nil
}

// ListXattr implements listxattr(path, uid, gid) (§4.5), returning names
// in a stable (sorted) order.
func (c *Core) ListXattr(ctx context.Context, path string, uid, gid uint64) ([]string, error) {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return nil, err
	}
	defer e.unlockRead()

	if !e.isReadable(uid, gid) {
		return nil, EACCES
	}

	names := make([]string, 0, len(e.xattrs))
	for name := range e.xattrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RemoveXattr implements removexattr(path, name, uid, gid) (§4.5).
func (c *Core) RemoveXattr(ctx context.Context, path, name string, uid, gid uint64) error {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if !e.isWritable(uid, gid) {
		return EACCES
	}
	if _, ok := e.xattrs[name]; !ok {
		return ENODATA
	}

	delete(e.xattrs, name)
	e.touchCtime()
	return nil
}
