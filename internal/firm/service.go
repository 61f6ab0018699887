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
	"context"
	"fmt"
	"time"

	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/id"
	"github.com/lexcore/lexcore/internal/permission"
)

// Service provides firm and membership management business logic
type Service struct {
	repo        Repository
	memberRepo  MemberRepository
	auditLogger audit.Logger
}

// NewService creates a new firm service
func NewService(repo Repository, memberRepo MemberRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		memberRepo:  memberRepo,
		auditLogger: auditLogger,
	}
}

// CreateFirm creates a new firm
func (s *Service) CreateFirm(ctx context.Context, name, tier string) (*Firm, error) {
	if name == "" {
		return nil, fmt.Errorf("firm name is required")
	}
	if tier != TierSolo && tier != TierTeam && tier != TierEnterprise {
		return nil, fmt.Errorf("invalid subscription tier: %s", tier)
	}

	now := time.Now()
	f := &Firm{
		ID:        id.NewUUIDv7(),
		Name:      name,
		Tier:      tier,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create firm: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeFirmCreated,
		FirmID:   f.ID,
		Resource: f.Name,
	})

	return f, nil
}

// GetFirm retrieves a firm by ID
func (s *Service) GetFirm(ctx context.Context, firmID string) (*Firm, error) {
	return s.repo.GetByID(ctx, firmID)
}

// AddMember provisions a user as a member of a firm. New members start in
// pending_approval.
func (s *Service) AddMember(ctx context.Context, firmID, userID string, role permission.Role, addedBy string) (*Member, error) {
	if firmID == "" || userID == "" {
		return nil, fmt.Errorf("firm id and user id are required")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	if _, err := s.memberRepo.GetByUser(ctx, firmID, userID); err == nil {
		return nil, ErrMemberExists
	}

	m := &Member{
		ID:       id.NewUUIDv7(),
		FirmID:   firmID,
		UserID:   userID,
		Role:     role,
		Status:   permission.StatusPendingApproval,
		JoinedAt: time.Now(),
	}

	if err := s.memberRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberAdded,
		FirmID:   firmID,
		ActorID:  addedBy,
		Resource: m.ID,
		Metadata: map[string]any{"user_id": userID, "role": string(role)},
	})

	return m, nil
}

// ChangeStatus moves a member through the lifecycle state machine.
func (s *Service) ChangeStatus(ctx context.Context, memberID string, to permission.Status, changedBy string) (*Member, error) {
	m, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	from := m.Status
	if err := m.Transition(to); err != nil {
		return nil, err
	}

	if err := s.memberRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update member status: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberStatusChanged,
		FirmID:   m.FirmID,
		ActorID:  changedBy,
		Resource: m.ID,
		Metadata: map[string]any{"from": string(from), "to": string(to)},
	})

	return m, nil
}

// SetOverride sets or clears a per-module permission override on a member.
// A nil level clears the override so the role default applies again.
func (s *Service) SetOverride(ctx context.Context, memberID string, module permission.Module, level *permission.Level, changedBy string) (*Member, error) {
	if !module.Valid() {
		return nil, fmt.Errorf("invalid module: %s", module)
	}
	if level != nil && !level.Valid() {
		return nil, fmt.Errorf("invalid level: %d", int(*level))
	}

	m, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if level == nil {
		delete(m.Overrides, module)
	} else {
		if m.Overrides == nil {
			m.Overrides = make(map[permission.Module]permission.Level)
		}
		m.Overrides[module] = *level
	}

	if err := s.memberRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update member overrides: %w", err)
	}

	meta := map[string]any{"module": string(module)}
	if level != nil {
		meta["level"] = level.String()
	} else {
		meta["level"] = nil
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOverrideChanged,
		FirmID:   m.FirmID,
		ActorID:  changedBy,
		Resource: m.ID,
		Metadata: meta,
	})

	return m, nil
}

// ListMembers retrieves all members of a firm
func (s *Service) ListMembers(ctx context.Context, firmID string) ([]*Member, error) {
	return s.memberRepo.ListByFirm(ctx, firmID)
}
