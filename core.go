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
	"fmt"
	"os"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

// RootFileID is the reserved inode number of the root directory (§6.4).
const RootFileID = 1

// FilesystemType is the fixed magic number this filesystem reports from
// stat/statvfs (§6.4, FSKIT_FILESYSTEM_TYPE).
const FilesystemType = 0x19880119

// FilesystemNameMax is the maximum byte length of a path component
// (§6.4, FSKIT_FILESYSTEM_NAMEMAX).
const FilesystemNameMax = 255

// Core is the root of an in-memory filesystem tree (§3.2). Create one with
// NewCore, register routes on it, then drive it with the operation verbs
// (Create, Open, Mkdir, ...).
type Core struct {
	clock timeutil.Clock
	alloc InodeAllocator

	// mu guards root, idIndex and fileCount. It may be acquired while the
	// caller holds entry locks (allocateChild, tryDestroy), but no entry lock
	// is ever acquired while mu is held.
	mu syncutil.InvariantMutex

	root *Entry // GUARDED_BY(mu)

	// idIndex maps every live file_id to its Entry, for collision checks
	// in the allocator and for fstat-by-handle lookups.
	idIndex map[uint64]*Entry // GUARDED_BY(mu)

	fileCount int64 // GUARDED_BY(mu); exposed via Statvfs

	routes *RouteTable

	// AppCoreState is opaque consumer-owned state (§3.2 app_core_state).
	AppCoreState interface{}
}

// NewCore constructs a Core with a fresh root directory (mode 0755) and
// registers it under RootFileID. Pass nil for alloc to use the default
// randomized allocator.
func NewCore(clock timeutil.Clock, alloc InodeAllocator, appState interface{}) *Core {
	if clock == nil {
		clock = timeutil.RealClock()
	}
	if alloc == nil {
		alloc = NewRandomInodeAllocator()
	}

	root := newEntry(clock, RootFileID, KindDir, os.ModeDir|0755, 0, 0)

	c := &Core{
		clock:        clock,
		alloc:        alloc,
		root:         root,
		idIndex:      map[uint64]*Entry{RootFileID: root},
		routes:       newRouteTable(),
		AppCoreState: appState,
	}
	atomicStoreFileCount(c, 1)

	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

func (c *Core) checkInvariants() {
	if c.root == nil {
		panic("nil root")
	}
	if _, ok := c.idIndex[RootFileID]; !ok {
		panic("root missing from idIndex")
	}
}

// Routes returns the Core's route table, for Declare{Op} calls.
func (c *Core) Routes() *RouteTable { return c.routes }

// FileCount returns the number of live inodes, for Statvfs's f_files field
// (§4.5, §8 invariant 4).
func (c *Core) FileCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fileCount
}

func atomicStoreFileCount(c *Core, n int64) { c.fileCount = n }

// allocateEntry mints a fresh file_id, constructs an Entry of the given
// kind, and registers it in idIndex. Requires c.mu held for writing.
func (c *Core) allocateEntry(kind Kind, mode os.FileMode, uid, gid uint64) (*Entry, error) {
	id, err := c.alloc.Next(func(candidate uint64) bool {
		_, taken := c.idIndex[candidate]
		return taken
	})
	if err != nil {
		return nil, err
	}

	e := newEntry(c.clock, id, kind, mode, uid, gid)
	c.idIndex[id] = e
	c.fileCount++
	return e, nil
}

// allocateChild mints a new Entry of the given kind and inserts it into
// parent's EntrySet under base, wiring the parent back-pointer and
// bumping parent's mtime. parent must be held write-locked by the caller;
// the returned child is unlocked and not yet in idIndex under a
// concurrent reader's nose until this returns (c.mu brackets the
// registration).
func (c *Core) allocateChild(
	parent *Entry, base string, kind Kind, mode os.FileMode, uid, gid uint64) (*Entry, error) {
	c.mu.Lock()
	child, err := c.allocateEntry(kind, mode, uid, gid)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	child.parent = parent
	parent.children.InsertUnique(base, child)
	parent.touchMtime()

	return child, nil
}

// rollbackCreate undoes allocateChild after a create/mknod/mkdir/symlink
// route rejects the new entry, before anyone else could have observed it
// (open_count is still 0). parent must still be held write-locked.
func (c *Core) rollbackCreate(parent, child *Entry) {
	parent.children.Remove(child.name)

	c.mu.Lock()
	c.forgetEntry(child)
	c.mu.Unlock()

	c.routes.forgetEntry(child)
}

// forgetEntry removes an entry from idIndex once it has been destroyed
// (§4.8). Requires c.mu held for writing.
func (c *Core) forgetEntry(e *Entry) {
	delete(c.idIndex, e.fileID)
	c.fileCount--
}

// entryByID looks up a live entry by file_id, used for fstat/close/soft
// refs where a caller already holds a handle instead of a path.
func (c *Core) entryByID(id uint64) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.idIndex[id]
	return e, ok
}

////////////////////////////////////////////////////////////////////////
// Lifecycle (§6.1)
////////////////////////////////////////////////////////////////////////

// LibraryInit performs process-wide setup. Unlike the C original, this
// port folds all random state into each Core (§9 design notes: "no
// process-wide singleton"), so there is nothing global left to initialize
// beyond the debug logger (§1.1). Flags must already have been parsed;
// the logger's initialization panics otherwise.
func LibraryInit() error {
	getLogger()
	return nil
}

// LibraryShutdown is the symmetric counterpart to LibraryInit. It is a
// no-op today, kept so callers can bracket a process's fskit usage the way
// the original fskit_library_init/fskit_library_shutdown pair does.
func LibraryShutdown() error { return nil }

// CoreInit constructs a Core and stashes appState on it, mirroring
// fskit_core_init(core, app_state) from the original C API: NewCore is the
// idiomatic Go constructor; CoreInit exists for callers translating a
// driver written against the original's two-phase (allocate, then init)
// convention.
func CoreInit(core *Core, appState interface{}) {
	core.AppCoreState = appState
}

// CoreDestroy detaches every entry reachable from the root (via
// DetachAll), then returns the consumer's app_core_state so the caller can
// dispose of it (fskit_core_destroy).
func CoreDestroy(core *Core) (appState interface{}) {
	core.DetachAll("/")
	return core.AppCoreState
}

func (c *Core) String() string {
	return fmt.Sprintf("fskit.Core{root=%d, files=%d}", c.root.fileID, c.FileCount())
}
