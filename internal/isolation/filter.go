// Copyright 2026 The LexCore Authors
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

// Package isolation is the interception point every operation against a
// tenant-scoped collection must pass through. Reads fail closed: a query
// with no tenant predicate is rejected, never silently repaired, because a
// silently injected predicate would mask programming errors that belong in
// code review. Writes have no pre-existing filter to be wrong about, so
// document creation validates or injects the tenant key instead.
package isolation

// Filter is a query filter in map form, as handed to the storage layer.
type Filter map[string]any

// Clone returns a shallow copy; the enforcer never mutates caller filters.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f)+2)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document is a record payload being created in a scoped collection.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// scopedCollections declares every collection that carries a tenant key.
// The registry is compiled in: adding a tenant-scoped collection is a code
// change, reviewed like any other security-relevant change.
var scopedCollections = map[string]bool{
	"cases":           true,
	"clients":         true,
	"documents":       true,
	"invoices":        true,
	"time_entries":    true,
	"calendar_events": true,
}

// IsScoped reports whether a collection is tenant-scoped.
func IsScoped(collection string) bool {
	return scopedCollections[collection]
}

// ScopedCollections returns the names of all tenant-scoped collections.
func ScopedCollections() []string {
	out := make([]string, 0, len(scopedCollections))
	for name := range scopedCollections {
		out = append(out, name)
	}
	return out
}
