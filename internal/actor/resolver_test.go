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
	"testing"

	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/id"
	"github.com/lexcore/lexcore/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockMemberRepo implements firm.MemberRepository for testing
type mockMemberRepo struct {
	mock.Mock
}

func (m *mockMemberRepo) Create(ctx context.Context, member *firm.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *mockMemberRepo) GetByID(ctx context.Context, memberID string) (*firm.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firm.Member), args.Error(1)
}

func (m *mockMemberRepo) GetByUser(ctx context.Context, firmID, userID string) (*firm.Member, error) {
	args := m.Called(ctx, firmID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firm.Member), args.Error(1)
}

func (m *mockMemberRepo) Update(ctx context.Context, member *firm.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *mockMemberRepo) ListByFirm(ctx context.Context, firmID string) ([]*firm.Member, error) {
	args := m.Called(ctx, firmID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*firm.Member), args.Error(1)
}

func TestResolve_SoloActorGetsFullPermissions(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	userID := id.NewUUIDv7()
	actx, err := resolver.Resolve(context.Background(), Identity{UserID: userID})
	require.NoError(t, err)

	assert.Equal(t, permission.RoleSolo, actx.Role())
	assert.Equal(t, ScopeLawyer, actx.Scope().Kind())
	assert.Equal(t, userID, actx.Scope().TenantID())
	assert.Equal(t, TenantKeyLawyer, actx.Scope().TenantKey())
	for _, m := range permission.Modules() {
		assert.True(t, actx.HasPermission(m, permission.LevelFull))
	}
	repo.AssertNotCalled(t, "GetByUser")
}

// TestPurpose: Validates that an identity claiming a firm the user is not a
// member of fails resolution instead of degrading to guest access.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement at context construction
// Expected: ErrActorNotProvisioned.
func TestResolve_UnprovisionedUserFails(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(nil, firm.ErrMemberNotFound)

	_, err := resolver.Resolve(context.Background(), Identity{UserID: userID, FirmID: firmID})
	assert.ErrorIs(t, err, ErrActorNotProvisioned)
}

// TestPurpose: Validates that terminated members can never obtain a context;
// termination is a sink state.
// Scope: Unit Test
// Security: Revocation enforcement
// Expected: ErrActorTerminated.
func TestResolve_TerminatedMemberFails(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(&firm.Member{
		ID:     id.NewUUIDv7(),
		FirmID: firmID,
		UserID: userID,
		Role:   permission.RoleOwner,
		Status: permission.StatusTerminated,
	}, nil)

	_, err := resolver.Resolve(context.Background(), Identity{UserID: userID, FirmID: firmID})
	assert.ErrorIs(t, err, ErrActorTerminated)
}

func TestResolve_SuspendedMemberGetsDenyAllContext(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(&firm.Member{
		ID:     id.NewUUIDv7(),
		FirmID: firmID,
		UserID: userID,
		Role:   permission.RoleOwner,
		Status: permission.StatusSuspended,
	}, nil)

	// Suspension is not an authentication failure: the context resolves but
	// denies everything.
	actx, err := resolver.Resolve(context.Background(), Identity{UserID: userID, FirmID: firmID})
	require.NoError(t, err)
	for _, m := range permission.Modules() {
		assert.False(t, actx.HasPermission(m, permission.LevelView))
	}
	for _, f := range permission.SpecialFlags() {
		assert.False(t, actx.HasSpecialPermission(f))
	}
}

func TestResolve_DepartedMemberClampedAndSelfScoped(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(&firm.Member{
		ID:     id.NewUUIDv7(),
		FirmID: firmID,
		UserID: userID,
		Role:   permission.RoleLawyer,
		Status: permission.StatusDeparted,
		// A pre-departure elevation on settings.
		Overrides: map[permission.Module]permission.Level{
			permission.ModuleSettings: permission.LevelEdit,
		},
	}, nil)

	actx, err := resolver.Resolve(context.Background(), Identity{UserID: userID, FirmID: firmID})
	require.NoError(t, err)

	assert.True(t, actx.SelfScopedReads(), "departed members read only their own records")
	assert.Equal(t, ScopeFirm, actx.Scope().Kind(), "departed members keep the firm predicate")
	// The override raised settings to edit; departure clamps it back to view.
	assert.True(t, actx.HasPermission(permission.ModuleSettings, permission.LevelView))
	assert.False(t, actx.HasPermission(permission.ModuleSettings, permission.LevelEdit))
}

func TestResolve_ActiveMemberUsesStoredRoleNotClaims(t *testing.T) {
	repo := new(mockMemberRepo)
	resolver := NewResolver(repo, grant.NewMemoryStore())

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(&firm.Member{
		ID:     id.NewUUIDv7(),
		FirmID: firmID,
		UserID: userID,
		Role:   permission.RoleParalegal,
		Status: permission.StatusActive,
	}, nil)

	// The identity claims owner; the member record says paralegal. Storage wins.
	actx, err := resolver.Resolve(context.Background(), Identity{
		UserID: userID,
		FirmID: firmID,
		Role:   permission.RoleOwner,
	})
	require.NoError(t, err)
	assert.Equal(t, permission.RoleParalegal, actx.Role())
	assert.False(t, actx.HasPermission(permission.ModuleSettings, permission.LevelView))
}

func TestResolve_MissingUserIDIsExplicitError(t *testing.T) {
	resolver := NewResolver(new(mockMemberRepo), grant.NewMemoryStore())
	_, err := resolver.Resolve(context.Background(), Identity{})
	assert.ErrorIs(t, err, ErrMissingUserID)
}
