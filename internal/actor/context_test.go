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

func paralegalContext(t *testing.T, grants grant.Reader) *Context {
	t.Helper()

	firmID := id.NewUUIDv7()
	userID := id.NewUUIDv7()
	memberID := id.NewUUIDv7()

	repo := new(mockMemberRepo)
	repo.On("GetByUser", mock.Anything, firmID, userID).Return(&firm.Member{
		ID:     memberID,
		FirmID: firmID,
		UserID: userID,
		Role:   permission.RoleParalegal,
		Status: permission.StatusActive,
	}, nil)

	actx, err := NewResolver(repo, grants).Resolve(context.Background(), Identity{UserID: userID, FirmID: firmID})
	require.NoError(t, err)
	return actx
}

// TestPurpose: Validates that a per-resource grant raises access on exactly
// the granted resource and nothing else.
// Scope: Unit Test
// Security: Least privilege for document-level exceptions
// Expected: Edit allowed on the granted case, denied on any other case.
func TestCheckResourceAccess_GrantRaisesSingleResource(t *testing.T) {
	ctx := context.Background()
	store := grant.NewMemoryStore()
	actx := paralegalContext(t, store)

	// Paralegal baseline on cases is view; edit is denied everywhere.
	ok, err := actx.CheckResourceAccess(ctx, "cases", "CASE123", permission.LevelEdit)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, &grant.ResourceGrant{
		ResourceType: "cases",
		ResourceID:   "CASE123",
		MemberID:     actx.MemberID(),
		Level:        permission.LevelEdit,
	}))

	ok, err = actx.CheckResourceAccess(ctx, "cases", "CASE123", permission.LevelEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = actx.CheckResourceAccess(ctx, "cases", "CASE456", permission.LevelEdit)
	require.NoError(t, err)
	assert.False(t, ok, "the grant is scoped to exactly one resource")
}

// TestPurpose: Validates that a stored grant below the module baseline never
// lowers effective access.
// Scope: Unit Test
// Security: Grants raise, never restrict
// Expected: Baseline access holds even when a weaker grant exists.
func TestCheckResourceAccess_GrantNeverLowersBaseline(t *testing.T) {
	ctx := context.Background()
	store := grant.NewMemoryStore()
	actx := paralegalContext(t, store)

	// Baseline for cases is view. A stored "none"-ish weak grant must not
	// reduce it: the baseline short-circuits before the store is consulted.
	require.NoError(t, store.Put(ctx, &grant.ResourceGrant{
		ResourceType: "cases",
		ResourceID:   "CASE123",
		MemberID:     actx.MemberID(),
		Level:        permission.LevelView,
	}))

	ok, err := actx.CheckResourceAccess(ctx, "cases", "CASE123", permission.LevelView)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckResourceAccess_BaselineSufficientSkipsStore(t *testing.T) {
	actx := paralegalContext(t, failingReader{})

	// View is within baseline; the failing store must never be touched.
	ok, err := actx.CheckResourceAccess(context.Background(), "cases", "CASE1", permission.LevelView)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckResourceAccess_UnknownResourceTypeRejected(t *testing.T) {
	actx := paralegalContext(t, grant.NewMemoryStore())

	_, err := actx.CheckResourceAccess(context.Background(), "payroll", "X", permission.LevelView)
	assert.Error(t, err)
}

func TestRequirePermission(t *testing.T) {
	actx := paralegalContext(t, grant.NewMemoryStore())

	assert.NoError(t, actx.RequirePermission(permission.ModuleCases, permission.LevelView))
	err := actx.RequirePermission(permission.ModuleBilling, permission.LevelView)
	assert.ErrorIs(t, err, permission.ErrPermissionDenied)
}

type failingReader struct{}

func (failingReader) Get(ctx context.Context, resourceType, resourceID, memberID string) (*grant.ResourceGrant, error) {
	panic("grant store must not be consulted when the baseline suffices")
}
