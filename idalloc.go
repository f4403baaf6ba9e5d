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
	"encoding/binary"

	"github.com/google/uuid"
)

// InodeAllocator mints file_id values for new entries. Implementations must
// never return 0 (reserved as "invalid", §6.4) or 1 (reserved for the root)
// and must never return a value currently live in core, which is why Next
// is handed a predicate to retry against (§3.2: "randomized, collision-
// retried against the live tree").
type InodeAllocator interface {
	// Next returns a file_id for which taken reports false. It must keep
	// trying (taken may be called any number of times) until it finds one,
	// or return an error if it cannot (e.g. ENOMEM-equivalent exhaustion).
	Next(taken func(uint64) bool) (uint64, error)
}

// randomInodeAllocator is the default InodeAllocator (§3.2): it mints
// 128-bit random IDs via google/uuid and folds them down to 64 bits,
// retrying on collision. uuid.New() is backed by a CSPRNG seeded once at
// process start, which is a better source of collision-resistant randomness
// than re-seeding math/rand per Core; gcsfuse reaches for google/uuid
// wherever it needs an opaque unique token, and a file_id is exactly that.
type randomInodeAllocator struct{}

// NewRandomInodeAllocator returns the default InodeAllocator.
func NewRandomInodeAllocator() InodeAllocator {
	return randomInodeAllocator{}
}

const maxInodeAllocAttempts = 1 << 20

func (randomInodeAllocator) Next(taken func(uint64) bool) (uint64, error) {
	for attempt := 0; attempt < maxInodeAllocAttempts; attempt++ {
		id := foldUUID(uuid.New())

		// file_id 0 and 1 are reserved (§6.4).
		if id == 0 || id == 1 {
			continue
		}

		if !taken(id) {
			return id, nil
		}
	}

	return 0, ENOMEM
}

// foldUUID XORs the two 64-bit halves of a 128-bit UUID down to one 64-bit
// value; collisions are astronomically unlikely and are handled anyway by
// the caller's retry loop.
func foldUUID(u uuid.UUID) uint64 {
	hi := binary.BigEndian.Uint64(u[0:8])
	lo := binary.BigEndian.Uint64(u[8:16])
	return hi ^ lo
}
