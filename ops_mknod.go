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

// kindForMode maps the os.FileMode type bits of mode to the Kind this port
// creates for mknod (modeFromDeviceKind below converts raw unix.S_IF*
// values into those bits).
func kindForMode(mode os.FileMode) Kind {
	switch {
	case mode&os.ModeNamedPipe != 0:
		return KindFifo
	case mode&os.ModeSocket != 0:
		return KindSocket
	case mode&os.ModeCharDevice != 0:
		return KindCharDevice
	case mode&os.ModeDevice != 0:
		return KindBlockDevice
	default:
		return KindFile
	}
}

// Mknod implements the mknod(path, mode, dev, uid, gid) verb (§4.5): the
// entry kind is determined by mode's type bits (regular, fifo, socket,
// char or block device).
func (c *Core) Mknod(ctx context.Context, path string, mode os.FileMode, dev Dev, uid, gid uint64) error {
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

	kind := kindForMode(mode)
	child, err := c.allocateChild(parent, base, kind, mode, uid, gid)
	if err != nil {
		return err
	}
	child.dev = dev
	child.lockWrite()

	args := &RouteArgs{Entry: child, UID: uid, GID: gid, Mode: mode, Dev: dev}
	if _, err := c.routes.dispatch(ctx, c, OpMknod, path, args); err != nil {
		c.rollbackCreate(parent, child)
		child.unlockWrite()
		return err
	}

	child.appData = args.InodeData
	child.unlockWrite()
	return nil
}

// modeFromDeviceKind is a small helper for drivers translating a raw
// unix.S_IF* value into the os.FileMode type bits Mknod expects.
func modeFromDeviceKind(raw uint32) os.FileMode {
	switch raw & unix.S_IFMT {
	case unix.S_IFIFO:
		return os.ModeNamedPipe
	case unix.S_IFSOCK:
		return os.ModeSocket
	case unix.S_IFCHR:
		return os.ModeCharDevice | os.ModeDevice
	case unix.S_IFBLK:
		return os.ModeDevice
	default:
		return 0
	}
}
