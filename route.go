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
	"fmt"
	"regexp"
	"sync"

	"github.com/jacobsa/reqtrace"
)

// ConcurrencyMode controls how concurrent invocations of the same route
// are serialized (§4.3).
type ConcurrencyMode int

const (
	// Concurrent routes may run in parallel; the callback runs under
	// whatever lock the caller already holds on the entry.
	Concurrent ConcurrencyMode = iota

	// Sequential routes serialize: at most one invocation of a given
	// route's op kind may be in flight against a given entry at a time.
	Sequential
)

// RouteAny is the canonical wildcard pattern (FSKIT_ROUTE_ANY): it matches
// any absolute path, including the root itself.
const RouteAny = `/([^/]+[/]*)*`

// Route is a single entry in a RouteTable: a path pattern bound to an op
// kind, a callback, and a concurrency mode (§4.3).
type Route struct {
	id      uint64
	pattern string
	re      *regexp.Regexp
	op      OpKind
	cb      RouteCallback
	mode    ConcurrencyMode
}

// RouteTable is Core's dispatch table. The zero value is not usable; use
// newRouteTable (called by NewCore).
type RouteTable struct {
	mu     sync.RWMutex
	routes []*Route // GUARDED_BY(mu), insertion order
	nextID uint64

	seqMu sync.Mutex
	seq   map[*Entry]map[OpKind]*sync.Mutex
}

func newRouteTable() *RouteTable {
	return &RouteTable{
		seq: make(map[*Entry]map[OpKind]*sync.Mutex),
	}
}

// compilePattern anchors pattern at both ends, per §4.3 ("Patterns are
// anchored at start and end"), unless the caller already anchored it.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	anchored := pattern
	if len(anchored) == 0 || anchored[0] != '^' {
		anchored = "^" + anchored
	}
	if len(anchored) == 0 || anchored[len(anchored)-1] != '$' {
		anchored = anchored + "$"
	}
	return regexp.Compile(anchored)
}

// Declare registers a route. Routes are matched in insertion order; the
// first whose op and pattern match wins (§4.3).
func (t *RouteTable) Declare(
	pattern string,
	op OpKind,
	cb RouteCallback,
	mode ConcurrencyMode) (id uint64, err error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return 0, fmt.Errorf("fskit: bad route pattern %q: %w", pattern, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id = t.nextID

	t.routes = append(t.routes, &Route{
		id:      id,
		pattern: pattern,
		re:      re,
		op:      op,
		cb:      cb,
		mode:    mode,
	})

	return id, nil
}

// Undeclare removes a previously-declared route by id. It is a no-op if
// the id is unknown (already undeclared).
func (t *RouteTable) Undeclare(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, r := range t.routes {
		if r.id == id {
			t.routes = append(t.routes[:i], t.routes[i+1:]...)
			return
		}
	}
}

// find returns the first route matching op and path, or nil if none do.
func (t *RouteTable) find(op OpKind, path string) *Route {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		if r.op == op && r.re.MatchString(path) {
			return r
		}
	}
	return nil
}

// seqLock returns (and lazily creates) the per-(entry, op) mutex used to
// serialize Sequential routes.
func (t *RouteTable) seqLock(e *Entry, op OpKind) *sync.Mutex {
	t.seqMu.Lock()
	defer t.seqMu.Unlock()

	byOp, ok := t.seq[e]
	if !ok {
		byOp = make(map[OpKind]*sync.Mutex)
		t.seq[e] = byOp
	}

	m, ok := byOp[op]
	if !ok {
		m = &sync.Mutex{}
		byOp[op] = m
	}
	return m
}

// forgetEntry discards any sequential-route locks held for e, called once
// e is destroyed (§4.8) so the seq map does not grow without bound.
func (t *RouteTable) forgetEntry(e *Entry) {
	t.seqMu.Lock()
	defer t.seqMu.Unlock()
	delete(t.seq, e)
}

// dispatch finds the route (if any) bound to op and path and invokes it.
// matched reports whether a route fired; if matched is false, the
// operation is to be treated as a success with null app data, per §4.3's
// "absence of a route is not an error".
func (t *RouteTable) dispatch(
	ctx context.Context, core *Core, op OpKind, path string, args *RouteArgs) (matched bool, err error) {
	r := t.find(op, path)
	if r == nil {
		return false, nil
	}

	ctx, report := reqtrace.StartSpan(ctx, fmt.Sprintf("fskit.%s %s", op, path))
	defer func() { report(err) }()

	if r.mode == Sequential && args.Entry != nil {
		lock := t.seqLock(args.Entry, op)
		lock.Lock()
		defer lock.Unlock()
	}

	args.Op = op
	args.Path = path
	err = r.cb(ctx, core, args)
	return true, err
}
