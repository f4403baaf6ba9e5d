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

// Symlink implements the symlink(target, linkpath, uid, gid) verb
// (§4.5): symlink_target is stored unchanged, with no path validation.
func (c *Core) Symlink(ctx context.Context, target, linkpath string, uid, gid uint64) error {
	parent, base, err := c.resolveParent(ctx, linkpath, uid, gid, nil)
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

	child, err := c.allocateChild(parent, base, KindSymlink, os.ModeSymlink|0777, uid, gid)
	if err != nil {
		return err
	}
	child.symlinkTarget = target
	child.lockWrite()

	args := &RouteArgs{Entry: child, UID: uid, GID: gid, Target: target}
	if _, err := c.routes.dispatch(ctx, c, OpSymlink, linkpath, args); err != nil {
		c.rollbackCreate(parent, child)
		child.unlockWrite()
		return err
	}

	child.appData = args.InodeData
	child.unlockWrite()
	return nil
}

// Readlink implements readlink(path, uid, gid, out, cap) (§4.5): up to
// cap bytes of symlink_target are copied into out, and the byte count
// (without a terminator) is returned.
func (c *Core) Readlink(ctx context.Context, path string, uid, gid uint64, out []byte) (int, error) {
	e, err := c.resolve(ctx, path, uid, gid, false, nil)
	if err != nil {
		return 0, err
	}
	defer e.unlockRead()

	if e.kind != KindSymlink {
		return 0, EINVAL
	}

	n := copy(out, e.symlinkTarget)
	return n, nil
}
