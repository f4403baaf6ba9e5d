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
	"strings"
)

// stepHook is run on every entry visited while resolving a path, including
// the root (§4.4). Returning true asks the walker to tombstone the entry:
// it will be spliced out of its parent's EntrySet under the parent's write
// lock. Per-step hooks force the parent to be held write-locked during
// descent regardless of the resolution's own lock mode, since splicing
// requires it.
type stepHook func(e *Entry) (remove bool)

// sanitizePath strips a trailing slash, except on root, per §4.4 ("treat
// /x/ as /x/.", which after trailing-slash stripping resolves identically
// to /x since "." components are skipped below).
func sanitizePath(path string) string {
	if path != "/" && strings.HasSuffix(path, "/") {
		return strings.TrimRight(path, "/")
	}
	return path
}

// splitPath breaks an absolute path into non-"."  components, validating
// each against FilesystemNameMax and rejecting ".." (§4.4: "the core does
// not traverse parents").
func splitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, EINVAL
	}

	raw := strings.Split(path, "/")
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if n == "" || n == "." {
			continue
		}
		if n == ".." {
			return nil, EINVAL
		}
		if len(n) > FilesystemNameMax {
			return nil, ENAMETOOLONG
		}
		names = append(names, n)
	}

	return names, nil
}

// resolve walks from the root to the named path, applying hook (if
// non-nil) to every entry visited including the root, and returns the
// final entry locked in the requested mode. On error, every lock taken
// during the walk has already been released.
func (c *Core) resolve(
	ctx context.Context,
	path string,
	uid, gid uint64,
	write bool,
	hook stepHook) (*Entry, error) {
	path = sanitizePath(path)
	names, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	root := c.root
	c.mu.RUnlock()

	descendWrite := write || hook != nil
	root.lock(descendWrite)

	if hook != nil {
		if hook(root) {
			c.spliceTombstone(nil, root)
		}
	}

	if len(names) == 0 {
		if !write && descendWrite {
			// Caller asked for a read lock but we had to descend
			// write-locked for the hook; downgrade before returning.
			root.unlockWrite()
			root.lockRead()
		}
		return root, nil
	}

	cur := root
	for i, name := range names {
		last := i == len(names)-1

		if cur.kind != KindDir {
			cur.unlock(descendWrite)
			return nil, ENOTDIR
		}
		if !cur.isSearchable(uid, gid) {
			cur.unlock(descendWrite)
			return nil, EACCES
		}

		child, ok := cur.children.FindByName(name)

		var childWriteLock bool
		if last {
			childWriteLock = write || hook != nil
		} else {
			childWriteLock = descendWrite
		}

		if !ok {
			cur.unlock(descendWrite)
			return nil, ENOENT
		}

		child.lock(childWriteLock)

		if child.deletionInProgress || child.kind == KindDead {
			child.unlock(childWriteLock)
			cur.unlock(descendWrite)
			return nil, ENOENT
		}

		if hook != nil {
			if hook(child) {
				// child is locked write (childWriteLock is true whenever
				// hook != nil, see above); splice it out of cur, which is
				// also held write-locked.
				c.spliceTombstone(cur, child)
				child.unlock(childWriteLock)
				cur.unlock(descendWrite)
				return nil, ENOENT
			}
		}

		cur.unlock(descendWrite)
		cur = child
		descendWrite = childWriteLock
	}

	if !write && descendWrite {
		cur.unlockWrite()
		cur.lockRead()
	}

	return cur, nil
}

// splitDirBase computes dirname(path) and basename(path) without touching
// any lock, for callers that need the two path strings up front (e.g.
// rename, which must decide a lock order across two parents before
// resolving either).
func splitDirBase(path string) (dir, base string, err error) {
	path = sanitizePath(path)
	names, err := splitPath(path)
	if err != nil {
		return "", "", err
	}
	if len(names) == 0 {
		return "", "", EINVAL // can't use the root as a basename
	}

	dir = "/" + strings.Join(names[:len(names)-1], "/")
	return dir, names[len(names)-1], nil
}

// resolveParent resolves dirname(path) and returns it write-locked, along
// with the basename, for operations that insert or remove a child
// (create/mkdir/mknod/symlink/unlink/rmdir).
func (c *Core) resolveParent(
	ctx context.Context,
	path string,
	uid, gid uint64,
	hook stepHook) (parent *Entry, base string, err error) {
	dir, base, err := splitDirBase(path)
	if err != nil {
		return nil, "", err
	}

	parent, err = c.resolve(ctx, dir, uid, gid, true, hook)
	if err != nil {
		return nil, "", err
	}

	return parent, base, nil
}

// spliceTombstone is invoked by resolve when a step hook asks for an
// entry's removal. parent is nil only when e is the root (which can never
// actually be spliced; the hook's removal request is then ignored, since
// there is nowhere to splice root from).
func (c *Core) spliceTombstone(parent, e *Entry) {
	if parent == nil {
		return
	}
	parent.children.Remove(e.name)
	e.deletionInProgress = true
}
