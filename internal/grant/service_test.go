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
	"testing"

	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

type fakeCaller struct {
	userID    string
	firmID    string
	role      permission.Role
	canManage bool
}

func (c fakeCaller) UserID() string { return c.userID }
func (c fakeCaller) FirmID() string { return c.firmID }

func (c fakeCaller) Role() permission.Role { return c.role }
func (c fakeCaller) HasSpecialPermission(f permission.SpecialFlag) bool {
	return f == permission.FlagManageTeam && c.canManage
}

// fakeDirectory resolves member ids to memberships.
type fakeDirectory map[string]*firm.Member

func (d fakeDirectory) GetByID(_ context.Context, id string) (*firm.Member, error) {
	m, ok := d[id]
	if !ok {
		return nil, firm.ErrMemberNotFound
	}
	return m, nil
}

// firmDirectory builds a directory holding one member of the given firm.
func firmDirectory(memberID, firmID string) fakeDirectory {
	return fakeDirectory{
		memberID: {ID: memberID, FirmID: firmID, UserID: "user-" + memberID},
	}
}

// TestPurpose: Validates that grant mutation is restricted to owner and admin
// callers holding the team-management capability.
// Scope: Unit Test
// Security: Privilege escalation prevention on the grant surface
// Expected: Callers without manage_team, and non-admin roles even with the
// flag, are denied and the denial is audited.
func TestGrantService_NonAdminDenied(t *testing.T) {
	auditLogger := &mockAudit{}
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypePermissionDenied
	})).Return()

	svc := NewService(NewMemoryStore(), firmDirectory("m1", "firm-1"), auditLogger)

	// Admin role without the flag.
	caller := fakeCaller{userID: "user-1", firmID: "firm-1", role: permission.RoleAdmin, canManage: false}
	_, err := svc.Grant(context.Background(), caller, "cases", "C1", "m1", permission.LevelEdit)
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)

	err = svc.Revoke(context.Background(), caller, "cases", "C1", "m1")
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)

	// The flag alone is not enough: a lawyer handed manage_team by an
	// override still may not administer grants.
	lawyer := fakeCaller{userID: "user-2", firmID: "firm-1", role: permission.RoleLawyer, canManage: true}
	_, err = svc.Grant(context.Background(), lawyer, "cases", "C1", "m1", permission.LevelEdit)
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)

	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that grant administration cannot reach members of
// another firm.
// Scope: Unit Test
// Security: Tenant isolation on the grant surface
// Expected: An owner of firm A granting to a member of firm B is denied, the
// attempt is audited as cross-tenant, and nothing is stored.
func TestGrantService_CrossFirmTargetDenied(t *testing.T) {
	auditLogger := &mockAudit{}
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeCrossTenantAccess && e.Severity == audit.SeverityCritical
	})).Return()

	store := NewMemoryStore()
	svc := NewService(store, firmDirectory("member-b", "firm-B"), auditLogger)
	caller := fakeCaller{userID: "owner-a", firmID: "firm-A", role: permission.RoleOwner, canManage: true}
	ctx := context.Background()

	_, err := svc.Grant(ctx, caller, "cases", "CASE-B-1", "member-b", permission.LevelFull)
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)
	_, err = store.Get(ctx, "cases", "CASE-B-1", "member-b")
	assert.ErrorIs(t, err, ErrGrantNotFound)

	err = svc.Revoke(ctx, caller, "cases", "CASE-B-1", "member-b")
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)

	// An unknown member id is a lookup failure, not a denial.
	_, err = svc.Grant(ctx, caller, "cases", "CASE-B-1", "ghost", permission.LevelFull)
	assert.ErrorIs(t, err, firm.ErrMemberNotFound)

	auditLogger.AssertExpectations(t)
}

func TestGrantService_GrantAndRevoke(t *testing.T) {
	auditLogger := &mockAudit{}
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	store := NewMemoryStore()
	svc := NewService(store, firmDirectory("member-9", "firm-1"), auditLogger)
	caller := fakeCaller{userID: "admin-1", firmID: "firm-1", role: permission.RoleAdmin, canManage: true}
	ctx := context.Background()

	g, err := svc.Grant(ctx, caller, "cases", "CASE123", "member-9", permission.LevelEdit)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", g.GrantedBy)

	stored, err := store.Get(ctx, "cases", "CASE123", "member-9")
	require.NoError(t, err)
	assert.Equal(t, permission.LevelEdit, stored.Level)

	// Re-granting the same key replaces the level, not duplicates.
	_, err = svc.Grant(ctx, caller, "cases", "CASE123", "member-9", permission.LevelFull)
	require.NoError(t, err)
	stored, err = store.Get(ctx, "cases", "CASE123", "member-9")
	require.NoError(t, err)
	assert.Equal(t, permission.LevelFull, stored.Level)

	require.NoError(t, svc.Revoke(ctx, caller, "cases", "CASE123", "member-9"))
	_, err = store.Get(ctx, "cases", "CASE123", "member-9")
	assert.ErrorIs(t, err, ErrGrantNotFound)
}

func TestGrantService_RejectsNoneLevel(t *testing.T) {
	auditLogger := &mockAudit{}
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	svc := NewService(NewMemoryStore(), firmDirectory("m1", "firm-1"), auditLogger)
	caller := fakeCaller{userID: "admin-1", firmID: "firm-1", role: permission.RoleAdmin, canManage: true}

	// A grant exists to raise access; storing "none" would be a restriction,
	// which the model does not support.
	_, err := svc.Grant(context.Background(), caller, "cases", "C1", "m1", permission.LevelNone)
	assert.Error(t, err)

	_, err = svc.Grant(context.Background(), caller, "", "C1", "m1", permission.LevelEdit)
	assert.Error(t, err)
}

func TestGrantService_PurgeMemberGrants(t *testing.T) {
	auditLogger := &mockAudit{}
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	store := NewMemoryStore()
	svc := NewService(store, firmDirectory("member-9", "firm-1"), auditLogger)
	caller := fakeCaller{userID: "admin-1", firmID: "firm-1", role: permission.RoleAdmin, canManage: true}
	ctx := context.Background()

	_, err := svc.Grant(ctx, caller, "cases", "C1", "member-9", permission.LevelEdit)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, caller, "documents", "D1", "member-9", permission.LevelFull)
	require.NoError(t, err)

	removed, err := svc.PurgeMemberGrants(ctx, "member-9", "grant-sweeper")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := svc.ListForMember(ctx, "member-9")
	require.NoError(t, err)
	assert.Empty(t, left)
}
