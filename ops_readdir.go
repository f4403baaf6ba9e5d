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

import "context"

// Opendir implements opendir(path, uid, gid) (§4.5, §4.7): resolves the
// directory, checks search/read access, runs the open route, and returns
// a handle with a cursor at the start of the listing.
func (c *Core) Opendir(ctx context.Context, path string, uid, gid uint64) (*DirHandle, error) {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return nil, err
	}
	defer e.unlockWrite()

	if e.kind != KindDir {
		return nil, ENOTDIR
	}
	if !e.isSearchable(uid, gid) || !e.isReadable(uid, gid) {
		return nil, EACCES
	}

	args := &RouteArgs{Entry: e, UID: uid, GID: gid}
	if _, err := c.routes.dispatch(ctx, c, OpOpen, path, args); err != nil {
		return nil, err
	}

	e.openCount++
	return newDirHandle(e, path, args.HandleData), nil
}

// Readdir implements readdir(handle, n) (§4.5, §4.7): returns up to n
// entries starting at the handle's cursor, "." and ".." first, running
// the readdir route per entry and honoring Omit.
func (c *Core) Readdir(ctx context.Context, h *DirHandle, n int) ([]DirEntry, error) {
	dir := h.Entry()
	dir.lockRead()
	defer dir.unlockRead()

	var out []DirEntry
	for len(out) < n {
		batch := h.Next(dir, n-len(out))
		if len(batch) == 0 {
			break
		}

		for i := range batch {
			args := &RouteArgs{Entry: dir, Dirent: &batch[i]}
			matched, err := c.routes.dispatch(ctx, c, OpReaddir, h.Path(), args)
			if err != nil {
				return out, err
			}
			if matched && args.Omit {
				continue
			}
			out = append(out, batch[i])
		}
	}

	return out, nil
}

// Rewinddir implements rewinddir(handle) (§4.7).
func (c *Core) Rewinddir(h *DirHandle) {
	h.Rewind()
}

// Telldir implements telldir(handle) (§4.7).
func (c *Core) Telldir(h *DirHandle) int {
	return h.Tell()
}

// Seekdir implements seekdir(handle, pos) (§4.7).
func (c *Core) Seekdir(h *DirHandle, pos int) {
	h.Seek(pos)
}

// Listdir implements listdir(path, uid, gid) (§4.5): a convenience that
// opens, fully drains, and closes a directory in one call, for callers
// that don't need a persistent cursor.
func (c *Core) Listdir(ctx context.Context, path string, uid, gid uint64) ([]DirEntry, error) {
	h, err := c.Opendir(ctx, path, uid, gid)
	if err != nil {
		return nil, err
	}

	var all []DirEntry
	for {
		batch, err := c.Readdir(ctx, h, 64)
		if err != nil {
			c.Closedir(ctx, h)
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}

	if err := c.Closedir(ctx, h); err != nil {
		return nil, err
	}
	return all, nil
}

// Closedir implements closedir(handle) (§4.5): runs the close route,
// decrements open_count, and attempts destruction.
func (c *Core) Closedir(ctx context.Context, h *DirHandle) error {
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
