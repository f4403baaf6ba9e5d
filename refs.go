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

// EntryRef resolves path and bumps the entry's open_count by one without
// producing a handle (§4.6's "soft ref": a reference an in-core component
// can hold onto — e.g. a directory listing snapshot — distinct from the
// handle layer). The returned entry is unlocked.
func (c *Core) EntryRef(ctx context.Context, path string, uid, gid uint64) (*Entry, error) {
	e, err := c.resolve(ctx, path, uid, gid, true, nil)
	if err != nil {
		return nil, err
	}

	e.openCount++
	e.unlockWrite()
	return e, nil
}

// EntryRefEntry bumps e's open_count directly, for a caller that already
// holds e write-locked (mirrors fskit_entry_ref_entry: "always succeeds").
func (c *Core) EntryRefEntry(e *Entry) {
	e.openCount++
}

// EntryUnref drops a soft ref taken via EntryRef or EntryRefEntry and
// attempts destruction if this was the last reference (§4.6). e must not
// be locked by the caller.
func (c *Core) EntryUnref(ctx context.Context, path string, e *Entry) error {
	e.lockWrite()

	e.openCount--

	destroyed, err := c.tryDestroy(ctx, path, e)
	if err != nil {
		e.unlockWrite()
		return err
	}
	if !destroyed {
		e.unlockWrite()
	}
	return nil
}
