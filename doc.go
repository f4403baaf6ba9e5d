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

// Package fskit implements the core of an in-memory, POSIX-semantics
// filesystem: an inode tree with hand-over-hand locking, a handle layer
// with delete-while-open semantics, and a route dispatch table that lets
// a consumer attach application state to inodes and handles and intercept
// every operation.
//
// The primary elements of interest are:
//
//  *  Core, the root of a filesystem tree. Create one with NewCore and
//     register routes on it before serving any operation.
//
//  *  Entry, the in-memory inode, and EntrySet, a directory's mapping from
//     child name to child Entry.
//
//  *  Route and RouteTable, which bind a path pattern and an operation
//     kind to a callback with a concurrency mode.
//
//  *  FileHandle and DirHandle, returned by Create/Open/Opendir and
//     threaded through Read/Write/Readdir/Close.
//
// fskit does not speak any wire protocol and does not mount anything; a
// separate driver package is expected to translate an external kernel
// bridge's callbacks into calls on a Core (see bridge.go).
package fskit
