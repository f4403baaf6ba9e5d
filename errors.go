// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package fskit

import (
	"golang.org/x/sys/unix"
)

// Errno is a POSIX error number, returned by every fallible Core operation.
// It is comparable by == and by errors.Is against the sentinels below.
type Errno unix.Errno

func (e Errno) Error() string {
	return unix.Errno(e).Error()
}

// Is lets errors.Is(err, fskit.ENOENT) succeed whether err is an Errno or a
// wrapped one (fmt.Errorf("...: %w", ENOENT)).
func (e Errno) Is(target error) bool {
	other, ok := target.(Errno)
	return ok && other == e
}

// Errors corresponding to kernel error numbers. These are the only values
// the core returns from the public API; route callbacks may return any of
// them verbatim (§7 of the spec) and the core surfaces them unmodified.
const (
	// Input
	EINVAL       = Errno(unix.EINVAL)
	ENAMETOOLONG = Errno(unix.ENAMETOOLONG)

	// Lookup
	ENOENT  = Errno(unix.ENOENT)
	ENOTDIR = Errno(unix.ENOTDIR)
	EISDIR  = Errno(unix.EISDIR)

	// Permission
	EACCES = Errno(unix.EACCES)
	EPERM  = Errno(unix.EPERM)

	// Conflict
	EEXIST    = Errno(unix.EEXIST)
	ENOTEMPTY = Errno(unix.ENOTEMPTY)

	// Exhaustion
	ENOMEM = Errno(unix.ENOMEM)
	ENOSPC = Errno(unix.ENOSPC)

	// Internal (lock discipline or allocator corrupted)
	EIO     = Errno(unix.EIO)
	EDEADLK = Errno(unix.EDEADLK)

	// xattr-specific
	ENODATA = Errno(unix.ENODATA)

	// Unsupported (hard links across directories, §1 Non-goals)
	ENOSYS = Errno(unix.ENOSYS)
)

// logInternalError logs a bug (lock discipline or allocator corruption)
// with full context before the caller returns EIO/EDEADLK, per §7's policy
// that internal errors must never pass silently.
func logInternalError(format string, args ...interface{}) {
	getLogger().Printf(format, args...)
}
