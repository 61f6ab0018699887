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

package grant

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/permission"
)

// Administrator is the caller surface required to mutate grants. Only firm
// owners and admins holding the manage_team special flag qualify; the actor
// context implements this.
type Administrator interface {
	UserID() string
	FirmID() string
	Role() permission.Role
	HasSpecialPermission(f permission.SpecialFlag) bool
}

// MemberDirectory is the membership lookup the service needs to keep every
// grant inside the caller's firm.
type MemberDirectory interface {
	GetByID(ctx context.Context, id string) (*firm.Member, error)
}

// Service exposes the admin-facing grant CRUD surface.
type Service struct {
	store       Store
	members     MemberDirectory
	auditLogger audit.Logger
}

// NewService creates a new grant service
func NewService(store Store, members MemberDirectory, auditLogger audit.Logger) *Service {
	return &Service{store: store, members: members, auditLogger: auditLogger}
}

// authorize checks that the caller may administer grants for the target
// member: owner or admin role, the manage_team flag, and the member must
// belong to the caller's firm. A cross-firm target is audited as a
// cross-tenant attempt and denied.
func (s *Service) authorize(ctx context.Context, caller Administrator, resourceType, resourceID, memberID string) error {
	role := caller.Role()
	admin := role == permission.RoleOwner || role == permission.RoleAdmin
	if !admin || !caller.HasSpecialPermission(permission.FlagManageTeam) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypePermissionDenied,
			FirmID:   caller.FirmID(),
			ActorID:  caller.UserID(),
			Resource: Key(resourceType, resourceID, memberID),
		})
		return permission.ErrPermissionDenied
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.FirmID != caller.FirmID() {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeCrossTenantAccess,
			Severity: audit.SeverityCritical,
			FirmID:   caller.FirmID(),
			ActorID:  caller.UserID(),
			Resource: Key(resourceType, resourceID, memberID),
			Metadata: map[string]any{"target_firm_id": member.FirmID},
		})
		return permission.ErrPermissionDenied
	}
	return nil
}

// Grant records an elevated permission on one resource for one member of the
// caller's firm. Retries once on a concurrent-edit conflict before giving up.
func (s *Service) Grant(ctx context.Context, caller Administrator, resourceType, resourceID, memberID string, level permission.Level) (*ResourceGrant, error) {
	if resourceType == "" || resourceID == "" || memberID == "" {
		return nil, fmt.Errorf("resource type, resource id and member id are required")
	}
	if !level.Valid() || level == permission.LevelNone {
		return nil, fmt.Errorf("invalid grant level: %s", level)
	}
	if err := s.authorize(ctx, caller, resourceType, resourceID, memberID); err != nil {
		return nil, err
	}

	var g *ResourceGrant
	for attempt := 0; ; attempt++ {
		g = &ResourceGrant{
			ResourceType: resourceType,
			ResourceID:   resourceID,
			MemberID:     memberID,
			Level:        level,
			GrantedBy:    caller.UserID(),
		}
		if existing, err := s.store.Get(ctx, resourceType, resourceID, memberID); err == nil {
			g.Version = existing.Version
		}

		err := s.store.Put(ctx, g)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= 1 {
			return nil, fmt.Errorf("failed to store grant: %w", err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeGrantCreated,
		FirmID:   caller.FirmID(),
		ActorID:  caller.UserID(),
		Resource: g.Key(),
		Metadata: map[string]any{"level": level.String(), "member_id": memberID},
	})

	return g, nil
}

// Revoke removes a grant held by a member of the caller's firm.
func (s *Service) Revoke(ctx context.Context, caller Administrator, resourceType, resourceID, memberID string) error {
	if err := s.authorize(ctx, caller, resourceType, resourceID, memberID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, resourceType, resourceID, memberID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeGrantRevoked,
		FirmID:   caller.FirmID(),
		ActorID:  caller.UserID(),
		Resource: Key(resourceType, resourceID, memberID),
		Metadata: map[string]any{"member_id": memberID},
	})

	return nil
}

// ListForMember returns all grants held by a member.
func (s *Service) ListForMember(ctx context.Context, memberID string) ([]*ResourceGrant, error) {
	return s.store.ListForMember(ctx, memberID)
}

// PurgeMemberGrants drops every grant held by a member and returns how many
// were removed. This is the maintenance path for scheduled jobs running under
// a verified bypass credential; it is not reachable from the admin HTTP
// surface.
func (s *Service) PurgeMemberGrants(ctx context.Context, memberID, actorID string) (int, error) {
	grants, err := s.store.ListForMember(ctx, memberID)
	if err != nil {
		return 0, err
	}

	var firmID string
	if member, err := s.members.GetByID(ctx, memberID); err == nil {
		firmID = member.FirmID
	}

	removed := 0
	for _, g := range grants {
		if err := s.store.Delete(ctx, g.ResourceType, g.ResourceID, g.MemberID); err != nil {
			return removed, fmt.Errorf("failed to purge grant %s: %w", g.Key(), err)
		}
		removed++
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeGrantRevoked,
			FirmID:   firmID,
			ActorID:  actorID,
			Resource: g.Key(),
			Metadata: map[string]any{"member_id": memberID, "purge": true},
		})
	}
	return removed, nil
}
