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

package permission

import "errors"

// ErrPermissionDenied is returned when a resolved permission set lacks the
// required level. It is the only authorization error safe to surface
// verbatim to end users.
var ErrPermissionDenied = errors.New("permission denied")

// EffectivePermissionSet is the resolved, request-scoped permission state of
// an actor. It is immutable after construction and safe for concurrent reads
// from sub-operations fanned out within the same request.
type EffectivePermissionSet struct {
	levels map[Module]Level
	flags  map[SpecialFlag]bool
}

// newSet takes ownership of the supplied maps; callers must not retain them.
func newSet(levels map[Module]Level, flags map[SpecialFlag]bool) *EffectivePermissionSet {
	return &EffectivePermissionSet{levels: levels, flags: flags}
}

// Level returns the resolved level for a module. Unknown modules are none.
func (s *EffectivePermissionSet) Level(m Module) Level {
	return s.levels[m]
}

// HasPermission reports whether the actor holds at least min on module m.
func (s *EffectivePermissionSet) HasPermission(m Module, min Level) bool {
	return s.levels[m].AtLeast(min)
}

// HasSpecialPermission reports whether the named special flag is set.
func (s *EffectivePermissionSet) HasSpecialPermission(f SpecialFlag) bool {
	return s.flags[f]
}

// Levels returns a copy of the resolved module levels.
func (s *EffectivePermissionSet) Levels() map[Module]Level {
	out := make(map[Module]Level, len(s.levels))
	for m, l := range s.levels {
		out[m] = l
	}
	return out
}

// Flags returns a copy of the resolved special flags.
func (s *EffectivePermissionSet) Flags() map[SpecialFlag]bool {
	out := make(map[SpecialFlag]bool, len(s.flags))
	for f, v := range s.flags {
		out[f] = v
	}
	return out
}

// Equal reports whether two resolved sets are identical. Used by resolution
// purity tests and the per-request cache.
func (s *EffectivePermissionSet) Equal(other *EffectivePermissionSet) bool {
	if s == nil || other == nil {
		return s == other
	}
	for _, m := range allModules {
		if s.levels[m] != other.levels[m] {
			return false
		}
	}
	for _, f := range allFlags {
		if s.flags[f] != other.flags[f] {
			return false
		}
	}
	return true
}
