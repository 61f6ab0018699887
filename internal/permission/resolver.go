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

// Resolve computes the effective permission set for a member.
//
// Resolution order:
//  1. role defaults (unknown role resolves to all-none),
//  2. per-module overrides (an override replaces the default, up or down),
//  3. suspended: all modules none, all flags false, nothing else applies,
//  4. departed: every module clamped to at most view, all flags false,
//  5. special-flag overrides (skipped for suspended/departed).
//
// The function is pure: same inputs, same output, no I/O, no clock.
func Resolve(role Role, status Status, overrides map[Module]Level, flagOverrides map[SpecialFlag]bool) *EffectivePermissionSet {
	levels, flags := Defaults(role)

	for m, l := range overrides {
		if !m.Valid() || !l.Valid() {
			continue
		}
		levels[m] = l
	}

	if status == StatusSuspended {
		for _, m := range allModules {
			levels[m] = LevelNone
		}
		for _, f := range allFlags {
			flags[f] = false
		}
		return newSet(levels, flags)
	}

	if status == StatusDeparted {
		for _, m := range allModules {
			if levels[m] > LevelView {
				levels[m] = LevelView
			}
		}
		for _, f := range allFlags {
			flags[f] = false
		}
		return newSet(levels, flags)
	}

	for f, v := range flagOverrides {
		if !f.Valid() {
			continue
		}
		flags[f] = v
	}

	return newSet(levels, flags)
}

// ResolveSolo computes the permission set of a solo practitioner: full
// access to every module and every special flag.
func ResolveSolo() *EffectivePermissionSet {
	return Resolve(RoleSolo, StatusActive, nil, nil)
}
