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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lexcore/lexcore/internal/actor"
	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/id"
	"github.com/lexcore/lexcore/internal/isolation"
	"github.com/lexcore/lexcore/internal/observability/metrics"
	"github.com/lexcore/lexcore/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "lexcore-test"
)

// memMemberRepo is an in-memory firm.MemberRepository for handler tests.
type memMemberRepo struct {
	members map[string]*firm.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{members: make(map[string]*firm.Member)}
}

func (r *memMemberRepo) Create(ctx context.Context, m *firm.Member) error {
	r.members[m.ID] = m
	return nil
}

func (r *memMemberRepo) GetByID(ctx context.Context, id string) (*firm.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, firm.ErrMemberNotFound
	}
	return m, nil
}

func (r *memMemberRepo) GetByUser(ctx context.Context, firmID, userID string) (*firm.Member, error) {
	for _, m := range r.members {
		if m.FirmID == firmID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, firm.ErrMemberNotFound
}

func (r *memMemberRepo) Update(ctx context.Context, m *firm.Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return firm.ErrMemberNotFound
	}
	r.members[m.ID] = m
	return nil
}

func (r *memMemberRepo) ListByFirm(ctx context.Context, firmID string) ([]*firm.Member, error) {
	var out []*firm.Member
	for _, m := range r.members {
		if m.FirmID == firmID {
			out = append(out, m)
		}
	}
	return out, nil
}

// memFirmRepo is an in-memory firm.Repository for handler tests.
type memFirmRepo struct {
	firms map[string]*firm.Firm
}

func newMemFirmRepo() *memFirmRepo { return &memFirmRepo{firms: make(map[string]*firm.Firm)} }

func (r *memFirmRepo) Create(ctx context.Context, f *firm.Firm) error {
	r.firms[f.ID] = f
	return nil
}

func (r *memFirmRepo) GetByID(ctx context.Context, id string) (*firm.Firm, error) {
	f, ok := r.firms[id]
	if !ok {
		return nil, firm.ErrFirmNotFound
	}
	return f, nil
}

func (r *memFirmRepo) Update(ctx context.Context, f *firm.Firm) error {
	r.firms[f.ID] = f
	return nil
}

func (r *memFirmRepo) List(ctx context.Context, limit, offset int) ([]*firm.Firm, error) {
	var out []*firm.Firm
	for _, f := range r.firms {
		out = append(out, f)
	}
	return out, nil
}

type nopAudit struct{}

func (nopAudit) Log(ctx context.Context, event audit.Event) {}

type testEnv struct {
	router  http.Handler
	members *memMemberRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	members := newMemMemberRepo()
	grants := grant.NewMemoryStore()

	vc, err := metrics.NewViolationCounter(nil)
	require.NoError(t, err)

	h := NewHandler(
		firm.NewService(newMemFirmRepo(), members, nopAudit{}),
		grant.NewService(grants, members, nopAudit{}),
		actor.NewResolver(members, grants),
		isolation.NewEnforcer(nopAudit{}, vc),
		nopAudit{},
		testSecret,
		testIssuer,
	)
	return &testEnv{
		router:  NewRouter(h, NewRateLimiter(1000, 1000)),
		members: members,
	}
}

func (e *testEnv) addMember(t *testing.T, firmID string, role permission.Role, status permission.Status) *firm.Member {
	t.Helper()
	m := &firm.Member{
		ID:       id.NewUUIDv7(),
		FirmID:   firmID,
		UserID:   id.NewUUIDv7(),
		Role:     role,
		Status:   status,
		JoinedAt: time.Now(),
	}
	require.NoError(t, e.members.Create(context.Background(), m))
	return m
}

func mintToken(t *testing.T, userID, firmID string) string {
	t.Helper()
	claims := bearerClaims{
		FirmID: firmID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPI_Unauthenticated_Returns401(t *testing.T) {
	env := newTestEnv(t)
	w := doJSON(t, env.router, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_ForgedSignature_Returns401(t *testing.T) {
	env := newTestEnv(t)

	claims := jwt.RegisteredClaims{
		Subject:   id.NewUUIDv7(),
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that a firm header on an authenticated request is
// rejected rather than honored as tenant context.
// Scope: Unit Test
// Security: Tenant spoofing prevention
// Expected: Returns HTTP 400 and never resolves an actor.
func TestAPI_FirmHeaderSpoofing_Returns400(t *testing.T) {
	env := newTestEnv(t)
	m := env.addMember(t, id.NewUUIDv7(), permission.RoleLawyer, permission.StatusActive)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, m.UserID, m.FirmID))
	req.Header.Set("X-Firm-ID", id.NewUUIDv7())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_TerminatedMember_Returns403(t *testing.T) {
	env := newTestEnv(t)
	m := env.addMember(t, id.NewUUIDv7(), permission.RoleLawyer, permission.StatusTerminated)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/me", mintToken(t, m.UserID, m.FirmID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_UnprovisionedUser_Returns403(t *testing.T) {
	env := newTestEnv(t)
	w := doJSON(t, env.router, http.MethodGet, "/api/v1/me",
		mintToken(t, id.NewUUIDv7(), id.NewUUIDv7()), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_Me_Solo(t *testing.T) {
	env := newTestEnv(t)
	userID := id.NewUUIDv7()

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/me", mintToken(t, userID, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID      string            `json:"user_id"`
		Role        string            `json:"role"`
		Permissions map[string]string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, "solo", resp.Role)
	assert.Equal(t, "full", resp.Permissions["settings"])
}

func TestAPI_AddMember_RequiresManageTeam(t *testing.T) {
	env := newTestEnv(t)
	firmID := id.NewUUIDv7()
	lawyer := env.addMember(t, firmID, permission.RoleLawyer, permission.StatusActive)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/firms/"+firmID+"/members",
		mintToken(t, lawyer.UserID, firmID),
		map[string]string{"user_id": id.NewUUIDv7(), "role": "paralegal"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_AddMember_AsOwner(t *testing.T) {
	env := newTestEnv(t)
	firmID := id.NewUUIDv7()
	owner := env.addMember(t, firmID, permission.RoleOwner, permission.StatusActive)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/firms/"+firmID+"/members",
		mintToken(t, owner.UserID, firmID),
		map[string]string{"user_id": id.NewUUIDv7(), "role": "paralegal"})
	require.Equal(t, http.StatusCreated, w.Code)

	var m firm.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, permission.StatusPendingApproval, m.Status)
}

// TestPurpose: Validates that member administration cannot reach into a
// different firm even with a valid elevated role.
// Scope: Unit Test
// Security: Multi-tenant logical separation on the admin surface
// Expected: Owner of firm A listing firm B's members gets HTTP 403.
func TestAPI_ListMembers_CrossFirm_Returns403(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addMember(t, id.NewUUIDv7(), permission.RoleOwner, permission.StatusActive)
	otherFirm := id.NewUUIDv7()
	env.addMember(t, otherFirm, permission.RoleLawyer, permission.StatusActive)

	w := doJSON(t, env.router, http.MethodGet, "/api/v1/firms/"+otherFirm+"/members",
		mintToken(t, owner.UserID, owner.FirmID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_GrantLifecycle(t *testing.T) {
	env := newTestEnv(t)
	firmID := id.NewUUIDv7()
	owner := env.addMember(t, firmID, permission.RoleOwner, permission.StatusActive)
	paralegal := env.addMember(t, firmID, permission.RoleParalegal, permission.StatusActive)
	token := mintToken(t, owner.UserID, firmID)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/grants", token, map[string]string{
		"resource_type": "cases",
		"resource_id":   "case-99",
		"member_id":     paralegal.ID,
		"level":         "edit",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/v1/members/"+paralegal.ID+"/grants", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grants []*grant.ResourceGrant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grants))
	require.Len(t, grants, 1)
	assert.Equal(t, permission.LevelEdit, grants[0].Level)

	w = doJSON(t, env.router, http.MethodDelete, "/api/v1/grants", token, map[string]string{
		"resource_type": "cases",
		"resource_id":   "case-99",
		"member_id":     paralegal.ID,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// TestPurpose: Validates that the grant endpoints never reach members of
// another firm.
// Scope: Integration Test
// Security: Tenant isolation on grant administration
// Expected: Creating or revoking a grant for a foreign member is denied and
// listing a foreign member's grants reveals nothing.
func TestAPI_Grants_CrossFirm_Denied(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addMember(t, id.NewUUIDv7(), permission.RoleOwner, permission.StatusActive)
	foreign := env.addMember(t, id.NewUUIDv7(), permission.RoleLawyer, permission.StatusActive)
	token := mintToken(t, owner.UserID, owner.FirmID)

	w := doJSON(t, env.router, http.MethodPost, "/api/v1/grants", token, map[string]string{
		"resource_type": "cases",
		"resource_id":   "case-1",
		"member_id":     foreign.ID,
		"level":         "full",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/v1/members/"+foreign.ID+"/grants", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, env.router, http.MethodDelete, "/api/v1/grants", token, map[string]string{
		"resource_type": "cases",
		"resource_id":   "case-1",
		"member_id":     foreign.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_Stats(t *testing.T) {
	env := newTestEnv(t)
	w := doJSON(t, env.router, http.MethodGet, "/internal/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "isolation_violations_total")
}
