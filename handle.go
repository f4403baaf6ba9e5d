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
	"sync"
)

// handle is the state shared by FileHandle and DirHandle (§3.3): a
// reference to the Entry it was opened against, the file_id cached at
// open time, the flags and path the open was made with, the per-open
// app_data the open route returned, and its own reader-writer lock,
// independent of the Entry's.
type handle struct {
	mu sync.RWMutex

	entry   *Entry
	fileID  uint64
	path    string
	flags   int
	appData interface{}
}

func newHandle(e *Entry, path string, flags int, appData interface{}) handle {
	return handle{
		entry:   e,
		fileID:  e.FileID(),
		path:    path,
		flags:   flags,
		appData: appData,
	}
}

func (h *handle) Entry() *Entry      { return h.entry }
func (h *handle) FileID() uint64     { return h.fileID }
func (h *handle) Path() string       { return h.path }
func (h *handle) Flags() int         { return h.flags }
func (h *handle) AppData() interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.appData
}
func (h *handle) SetAppData(d interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appData = d
}

func (h *handle) Lock()    { h.mu.Lock() }
func (h *handle) Unlock()  { h.mu.Unlock() }
func (h *handle) RLock()   { h.mu.RLock() }
func (h *handle) RUnlock() { h.mu.RUnlock() }

// FileHandle is returned by create/open and consumed by read/write/trunc/
// close (§3.3).
type FileHandle struct {
	handle
}

func newFileHandle(e *Entry, path string, flags int, appData interface{}) *FileHandle {
	return &FileHandle{handle: newHandle(e, path, flags, appData)}
}

// dirCursor indexes into a directory's listing as readdir sees it: 0 and 1
// are the synthetic "." and ".." entries (§4.7); 2+ map to consecutive
// EntrySet slots (which may be tombstoned and so skipped).
type dirCursor struct {
	pos int
}

func (c *dirCursor) rewind() { c.pos = 0 }

// DirHandle is returned by opendir and consumed by readdir/rewinddir/
// telldir/seekdir/closedir (§3.3, §4.7).
type DirHandle struct {
	handle
	cursor dirCursor
}

func newDirHandle(e *Entry, path string, appData interface{}) *DirHandle {
	return &DirHandle{handle: newHandle(e, path, 0, appData)}
}

// Tell returns the handle's current cursor position, for telldir.
func (h *DirHandle) Tell() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor.pos
}

// Seek sets the handle's cursor position, for seekdir. The caller is
// trusted to pass back a value previously obtained from Tell; arbitrary
// positions are accepted (a position past the end simply yields no further
// entries).
func (h *DirHandle) Seek(pos int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor.pos = pos
}

// Rewind resets the cursor to the start of the listing, for rewinddir.
func (h *DirHandle) Rewind() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor.rewind()
}

// Next advances the cursor past min(n, remaining) entries and returns the
// DirEntry values it crossed, synthetic "." and ".." first (§4.7). dir must
// be held at least read-locked by the caller; Next does not lock it.
func (h *DirHandle) Next(dir *Entry, n int) []DirEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []DirEntry
	for len(out) < n {
		name, kind, fileID, next, ok := dirListingAt(dir, h.cursor.pos)
		if !ok {
			break
		}
		out = append(out, DirEntry{Name: name, Kind: kind, FileID: fileID})
		h.cursor.pos = next
	}
	return out
}

// dirListingAt returns the name/kind/file_id of the first live entry in
// dir's readdir order at or after position i, where 0 is "." and 1 is ".."
// and i>=2 indexes dir's EntrySet slots directly; tombstoned slots are
// skipped over. next is the position the cursor should resume at to see
// the entry immediately following the one returned.
func dirListingAt(dir *Entry, i int) (name string, kind Kind, fileID uint64, next int, ok bool) {
	if i == 0 {
		return ".", KindDir, dir.FileID(), 1, true
	}
	if i == 1 {
		parentID := dir.FileID()
		if dir.parent != nil {
			parentID = dir.parent.FileID()
		}
		return "..", KindDir, parentID, 2, true
	}

	for slot := i - 2; slot < dir.children.numSlots(); slot++ {
		child := dir.children.slotAt(slot)
		if child == nil {
			continue
		}
		return child.name, child.kind, child.fileID, slot + 3, true
	}
	return "", 0, 0, 0, false
}
