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

// Unlink implements the unlink(path, uid, gid) verb (§4.5): the target
// must not be a directory; the detach route runs, the entry is spliced
// out of its parent, link_count drops by one, deletion_in_progress is set
// once link_count reaches zero, and destruction is attempted.
func (c *Core) Unlink(ctx context.Context, path string, uid, gid uint64) error {
	parent, base, err := c.resolveParent(ctx, path, uid, gid, nil)
	if err != nil {
		return err
	}
	defer parent.unlockWrite()

	if !parent.isWritable(uid, gid) || !parent.isSearchable(uid, gid) {
		return EACCES
	}

	target, ok := parent.children.FindByName(base)
	if !ok {
		return ENOENT
	}
	if target.kind == KindDir {
		return EISDIR
	}

	target.lockWrite()

	if err := c.runDetachOnce(ctx, path, target); err != nil {
		target.unlockWrite()
		return err
	}

	parent.children.Remove(base)
	parent.touchMtime()
	target.parent = nil
	target.linkCount--
	if target.linkCount == 0 {
		target.deletionInProgress = true
	}

	destroyed, err := c.tryDestroy(ctx, path, target)
	if err != nil {
		target.unlockWrite()
		return err
	}
	if !destroyed {
		target.unlockWrite()
	}
	return nil
}
