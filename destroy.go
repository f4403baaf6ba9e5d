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

// tryDestroy implements the destruction protocol (§4.8). e must already be
// held write-locked by the caller, and (for unlink/rmdir) already spliced
// out of its parent's EntrySet.
//
// If e still has outstanding links or opens, tryDestroy leaves it locked
// and returns (false, nil); the caller remains responsible for unlocking
// it. Otherwise it runs the detach route (skipped if already run for this
// entry), transitions e to KindDead, deregisters it from core, unlocks it
// itself, and returns (true, nil): the caller's reference is the last one
// and may now be dropped. On a detach-route error, e is left locked and
// (false, err) is returned.
func (c *Core) tryDestroy(ctx context.Context, path string, e *Entry) (destroyed bool, err error) {
	if e.kind == KindDead {
		logInternalError("tryDestroy called twice for file_id=%d path=%q: "+
			"caller retained a reference past destruction", e.fileID, path)
		return false, EIO
	}

	if e.linkCount > 0 || e.openCount > 0 {
		return false, nil
	}

	if e.kind == KindDir {
		if err := c.detachChildren(ctx, path, e); err != nil {
			return false, err
		}
	}

	if err := c.runDetachOnce(ctx, path, e); err != nil {
		return false, err
	}

	e.kind = KindDead
	e.children = nil
	e.symlinkTarget = ""
	e.appData = nil

	c.mu.Lock()
	c.forgetEntry(e)
	c.mu.Unlock()

	c.routes.forgetEntry(e)

	e.unlockWrite()
	return true, nil
}

// runDetachOnce invokes the detach route for e exactly once across e's
// lifetime (§4.8's "even if called more than once" guard), recording that
// it has run via e.detached. It is a no-op, successfully, if no detach
// route matches path.
func (c *Core) runDetachOnce(ctx context.Context, path string, e *Entry) error {
	if e.detached {
		return nil
	}

	args := &RouteArgs{Entry: e, InodeData: e.appData}
	_, err := c.routes.dispatch(ctx, c, OpDetach, path, args)
	if err != nil {
		return err
	}

	e.detached = true
	return nil
}

// detachChildren recursively runs the detach route over every live child
// of a directory about to be destroyed, post-order, ignoring link_count
// and open_count (§4.8: "for directories, recursively detach all children
// first"). It does not remove children from e's EntrySet: tryDestroy clears
// e.children wholesale once this returns, while DetachAll leaves the dead
// children in place.
func (c *Core) detachChildren(ctx context.Context, dirPath string, e *Entry) error {
	var children []*Entry
	e.children.Each(func(name string, child *Entry) {
		children = append(children, child)
	})

	for _, child := range children {
		childPath := joinPath(dirPath, child.name)

		child.lockWrite()
		if child.kind == KindDir {
			if err := c.detachChildren(ctx, childPath, child); err != nil {
				child.unlockWrite()
				return err
			}
		}
		if err := c.runDetachOnce(ctx, childPath, child); err != nil {
			child.unlockWrite()
			return err
		}
		child.kind = KindDead
		child.children = nil
		child.deletionInProgress = true

		c.mu.Lock()
		c.forgetEntry(child)
		c.mu.Unlock()
		c.routes.forgetEntry(child)

		child.unlockWrite()
	}

	return nil
}

// joinPath appends name to dir, which is "/" for the root or otherwise has
// no trailing slash (the form every Entry.name-bearing path in this
// package is kept in).
func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// DetachAll recursively detaches every descendant of the directory at
// path, ignoring link_count/open_count entirely (§4.5: "detach_all"). It
// is used by CoreDestroy for driver shutdown, where no caller is waiting
// to unlink anything first. path itself (the root, in CoreDestroy's case)
// is left intact; only what hangs beneath it is torn down, so a Core can
// call this against "/" without deregistering its own root entry.
func (c *Core) DetachAll(path string) error {
	e, err := c.resolve(context.Background(), path, 0, 0, true, nil)
	if err != nil {
		return err
	}
	defer e.unlockWrite()

	if e.kind != KindDir {
		return ENOTDIR
	}

	return c.detachChildren(context.Background(), sanitizePath(path), e)
}
