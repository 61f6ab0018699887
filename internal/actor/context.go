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

package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/permission"
)

// Identity is what the external authentication layer hands this core after
// validating a session or token. FirmID empty means solo practitioner.
type Identity struct {
	UserID string            `json:"user_id"`
	FirmID string            `json:"firm_id,omitempty"`
	Role   permission.Role   `json:"role,omitempty"`
	Status permission.Status `json:"status,omitempty"`
}

// Context is the immutable, request-scoped actor state: who is acting, which
// tenant their data access is scoped to, and what they are allowed to do.
// It is computed once per inbound request and is safe for concurrent reads
// by sub-operations fanned out from that request.
type Context struct {
	identity Identity
	memberID string
	role     permission.Role
	scope    ScopePredicate
	perms    *permission.EffectivePermissionSet

	// selfScopedReads restricts resource reads to records the actor owns
	// or is assigned to. Set for departed members.
	selfScopedReads bool

	grants grant.Reader
}

// UserID returns the acting user's ID.
func (c *Context) UserID() string { return c.identity.UserID }

// FirmID returns the firm the actor belongs to, empty for solo actors.
func (c *Context) FirmID() string { return c.identity.FirmID }

// MemberID returns the member record ID, empty for solo actors.
func (c *Context) MemberID() string { return c.memberID }

// Role returns the resolved role (RoleSolo for solo actors).
func (c *Context) Role() permission.Role { return c.role }

// Scope returns the tenant scope predicate for this actor.
func (c *Context) Scope() ScopePredicate { return c.scope }

// SelfScopedReads reports whether resource reads must additionally be
// restricted to records owned by or assigned to the actor.
func (c *Context) SelfScopedReads() bool { return c.selfScopedReads }

// Permissions returns the resolved effective permission set.
func (c *Context) Permissions() *permission.EffectivePermissionSet { return c.perms }

// HasPermission reports whether the actor holds at least min on module m.
func (c *Context) HasPermission(m permission.Module, min permission.Level) bool {
	return c.perms.HasPermission(m, min)
}

// HasSpecialPermission reports whether the actor holds the special flag.
func (c *Context) HasSpecialPermission(f permission.SpecialFlag) bool {
	return c.perms.HasSpecialPermission(f)
}

// RequirePermission returns ErrPermissionDenied when the actor lacks min on
// module m.
func (c *Context) RequirePermission(m permission.Module, min permission.Level) error {
	if !c.HasPermission(m, min) {
		return fmt.Errorf("module %s requires %s: %w", m, min, permission.ErrPermissionDenied)
	}
	return nil
}

// CheckResourceAccess reports whether the actor may act at the given level on
// one specific resource. The module baseline is consulted first; when it
// falls short, an explicit elevated grant on that exact resource can raise
// access. Grants never lower access below the baseline.
func (c *Context) CheckResourceAccess(ctx context.Context, resourceType string, resourceID string, min permission.Level) (bool, error) {
	module, err := permission.ParseModule(resourceType)
	if err != nil {
		return false, err
	}

	if c.perms.HasPermission(module, min) {
		return true, nil
	}

	if c.grants == nil || c.memberID == "" {
		return false, nil
	}

	g, err := c.grants.Get(ctx, resourceType, resourceID, c.memberID)
	if err != nil {
		if errors.Is(err, grant.ErrGrantNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("grant lookup failed: %w", err)
	}

	return g.Level.AtLeast(min), nil
}
