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

// DirEntry is the {name, kind, file_id} triple readdir reports (§4.7). The
// driver layer (out of scope here) is responsible for encoding these into
// whatever wire format its kernel bridge expects; the core never produces
// raw bytes.
type DirEntry struct {
	Name   string
	Kind   Kind
	FileID uint64
}
