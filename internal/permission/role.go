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

import "fmt"

// Role is a firm member's role. The set is closed; parsing rejects anything
// not listed here so an unknown role can never reach the resolver with a
// default other than all-none.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RolePartner    Role = "partner"
	RoleLawyer     Role = "lawyer"
	RoleParalegal  Role = "paralegal"
	RoleSecretary  Role = "secretary"
	RoleAccountant Role = "accountant"
	RoleDeparted   Role = "departed"

	// RoleSolo is the synthetic role of a practitioner with no firm.
	// It is never stored on a member record.
	RoleSolo Role = "solo"
)

var allRoles = []Role{
	RoleOwner,
	RoleAdmin,
	RolePartner,
	RoleLawyer,
	RoleParalegal,
	RoleSecretary,
	RoleAccountant,
	RoleDeparted,
}

// Roles returns the closed set of assignable firm roles in a stable order.
// RoleSolo is excluded: it is derived, never assigned.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is an assignable firm role.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole parses a wire-format role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Status is a member's lifecycle status. It participates in permission
// resolution: suspended forces deny-all, departed clamps to read-only.
type Status string

const (
	StatusActive          Status = "active"
	StatusPendingApproval Status = "pending_approval"
	StatusSuspended       Status = "suspended"
	StatusDeparted        Status = "departed"
	StatusOnLeave         Status = "on_leave"
	StatusTerminated      Status = "terminated"
)

var allStatuses = []Status{
	StatusActive,
	StatusPendingApproval,
	StatusSuspended,
	StatusDeparted,
	StatusOnLeave,
	StatusTerminated,
}

// Statuses returns the closed set of lifecycle statuses in a stable order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus parses a wire-format status name.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown member status: %q", v)
	}
	return s, nil
}
