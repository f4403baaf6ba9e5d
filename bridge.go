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

// BridgeFlags controls how a driver built on Bridge relaxes the core's
// normal permission checks (§6.2): three orthogonal bits a kernel-facing
// driver typically derives from its own mount options.
type BridgeFlags struct {
	// BypassOwnerChecks lets the filesystem process itself act as uid 0
	// for every call it makes, regardless of the caller's real uid/gid.
	BypassOwnerChecks bool

	// NoPermissionChecks disables permission checks entirely (every
	// isReadable/isWritable/isSearchable check in this package is
	// bypassed); intended for single-user or test-only mounts.
	NoPermissionChecks bool

	// StatAbsent asks the driver to still invoke the stat route even
	// when path resolution fails to find an entry, so a stat route can
	// synthesize attributes for paths the core's tree doesn't contain
	// (e.g. a virtual /proc-style entry a driver wants to paper over).
	StatAbsent bool
}

// Bridge is the contract this port expects an external kernel-bridge
// driver to implement against a Core (§6.2). It is deliberately
// unimplemented here — translating a real wire protocol (FUSE, 9P, NFS,
// ...) into these calls is out of scope for this library — but gives a
// future driver package a concrete interface to satisfy rather than
// reverse-engineering the expected call shape from Core's methods
// directly.
type Bridge interface {
	// Mount is called once before the driver starts handling requests.
	Mount(ctx context.Context, core *Core, flags BridgeFlags) error

	// Unmount is called once as the driver shuts down; typically wraps
	// CoreDestroy.
	Unmount(ctx context.Context, core *Core) error

	// TranslateError maps a POSIX errno returned by a Core operation
	// (always an Errno, see errors.go) into whatever convention the
	// wire protocol expects. Most drivers can return err unchanged.
	TranslateError(err error) error
}
