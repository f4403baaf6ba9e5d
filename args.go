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

// OpKind identifies the operation a route is bound to (§4.3). Exactly one
// dispatch is made per op per affected path.
type OpKind int

const (
	OpCreate OpKind = iota
	OpMknod
	OpMkdir
	OpOpen
	OpClose
	OpRead
	OpWrite
	OpTrunc
	OpReaddir
	OpDetach
	OpStat
	OpSync
	OpRename
	OpSymlink
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpMknod:
		return "mknod"
	case OpMkdir:
		return "mkdir"
	case OpOpen:
		return "open"
	case OpClose:
		return "close"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpTrunc:
		return "trunc"
	case OpReaddir:
		return "readdir"
	case OpDetach:
		return "detach"
	case OpStat:
		return "stat"
	case OpSync:
		return "sync"
	case OpRename:
		return "rename"
	case OpSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// RouteArgs is the tagged dispatch struct a RouteCallback receives (§9
// design notes: "model as a tagged-variant dispatch struct carrying the
// op-specific inputs and two output slots"). Only the fields relevant to
// Op are meaningful for any given call; the rest are zero.
type RouteArgs struct {
	Op   OpKind
	Path string

	// Entry is the inode the operation targets (nil for e.g. a rename's
	// not-yet-existing destination).
	Entry *Entry

	UID, GID uint64

	Flags int         // open/create
	Mode  os.FileMode  // create/mknod/mkdir
	Dev   Dev          // mknod

	// Data is the read/write buffer: for OpRead, the callback fills it
	// (up to len(Data)) and reports how much in N; for OpWrite, it holds
	// the bytes the caller is writing.
	Data   []byte
	Offset int64
	N      int // out: bytes actually read/written

	NewSize uint64 // trunc: size being set

	NewPath   string // rename: destination path
	NewEntry  *Entry // rename: destination entry, if one existed and was replaced

	Target string // symlink: link target text

	// Dirent is the entry about to be reported by a readdir dispatch. The
	// route may mutate it in place (e.g. to override Kind) or set Omit to
	// drop it from the batch readdir returns, per the "omit" operation
	// (§4.7); the cursor still advances past an omitted entry.
	Dirent *DirEntry
	Omit   bool

	// InodeData and HandleData are the two output slots the original
	// names inode_data/handle_data. A callback sets InodeData to attach
	// state to the Entry.AppData and HandleData to attach state to the
	// Handle being created (create/mknod/mkdir/open).
	InodeData  interface{}
	HandleData interface{}
}

// RouteCallback is the signature every registered route implements. It
// returns the POSIX error to fail the enclosing operation with, or nil on
// success. ctx carries the reqtrace span the dispatcher opened (§1.1) and
// whatever values the caller attached.
type RouteCallback func(ctx context.Context, core *Core, args *RouteArgs) error
