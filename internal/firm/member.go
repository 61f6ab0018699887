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

package firm

import (
	"fmt"
	"time"

	"github.com/lexcore/lexcore/internal/permission"
)

// Member represents a user's membership in a firm.
type Member struct {
	ID            string                                    `json:"id"`
	FirmID        string                                    `json:"firm_id"`
	UserID        string                                    `json:"user_id"`
	Role          permission.Role                           `json:"role"`
	Status        permission.Status                         `json:"status"`
	Overrides     map[permission.Module]permission.Level    `json:"overrides,omitempty"`
	FlagOverrides map[permission.SpecialFlag]bool           `json:"flag_overrides,omitempty"`
	JoinedAt      time.Time                                 `json:"joined_at"`
	DepartedAt    *time.Time                                `json:"departed_at,omitempty"`
}

// statusTransitions is the member lifecycle state machine.
// Terminated is a sink: no outbound transitions, and context resolution
// always fails for terminated members.
var statusTransitions = map[permission.Status][]permission.Status{
	permission.StatusPendingApproval: {permission.StatusActive, permission.StatusTerminated},
	permission.StatusActive: {
		permission.StatusSuspended,
		permission.StatusDeparted,
		permission.StatusOnLeave,
		permission.StatusTerminated,
	},
	permission.StatusSuspended: {permission.StatusActive, permission.StatusTerminated},
	permission.StatusDeparted:  {permission.StatusActive, permission.StatusTerminated},
	permission.StatusOnLeave:   {permission.StatusActive, permission.StatusTerminated},
	permission.StatusTerminated: {},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to permission.Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the member to a new status, enforcing the state machine.
// Departure stamps DepartedAt; rehire (departed -> active) clears it and
// resets the role to lawyer so stale elevated roles do not survive a rehire.
func (m *Member) Transition(to permission.Status) error {
	if !to.Valid() {
		return fmt.Errorf("invalid member status: %q", to)
	}
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("illegal status transition %s -> %s: %w", m.Status, to, ErrInvalidTransition)
	}

	if m.Status == permission.StatusDeparted && to == permission.StatusActive {
		m.Role = permission.RoleLawyer
		m.DepartedAt = nil
	}
	if to == permission.StatusDeparted {
		now := time.Now()
		m.DepartedAt = &now
	}

	m.Status = to
	return nil
}
