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
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lexcore/lexcore/internal/actor"
	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/isolation"
	"github.com/lexcore/lexcore/internal/permission"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	firmService  *firm.Service
	grantService *grant.Service
	resolver     *actor.Resolver
	enforcer     *isolation.Enforcer
	auditLogger  audit.Logger
	jwtSecret    string
	jwtIssuer    string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	firmService *firm.Service,
	grantService *grant.Service,
	resolver *actor.Resolver,
	enforcer *isolation.Enforcer,
	auditLogger audit.Logger,
	jwtSecret string,
	jwtIssuer string,
) *Handler {
	return &Handler{
		firmService:  firmService,
		grantService: grantService,
		resolver:     resolver,
		enforcer:     enforcer,
		auditLogger:  auditLogger,
		jwtSecret:    jwtSecret,
		jwtIssuer:    jwtIssuer,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)
	r.Get("/internal/stats", h.Stats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/me", h.Me)

		r.Post("/firms", h.CreateFirm)
		r.Route("/firms/{firmID}", func(r chi.Router) {
			r.Get("/members", h.ListMembers)
			r.Post("/members", h.AddMember)
		})

		r.Route("/members/{memberID}", func(r chi.Router) {
			r.Put("/status", h.ChangeMemberStatus)
			r.Put("/overrides", h.SetMemberOverride)
			r.Get("/grants", h.ListGrants)
		})

		r.Post("/grants", h.CreateGrant)
		r.Delete("/grants", h.RevokeGrant)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "lexcore",
	})
}

// Stats exposes operational counters for dashboards and alerting.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"isolation_violations_total": h.enforcer.Violations().Total(),
	})
}

// Me returns the caller's resolved permission surface. Useful for clients
// deciding which UI affordances to show.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())

	levels := map[string]string{}
	for m, l := range actx.Permissions().Levels() {
		levels[string(m)] = l.String()
	}
	flags := map[string]bool{}
	for f, v := range actx.Permissions().Flags() {
		flags[string(f)] = v
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":           actx.UserID(),
		"firm_id":           actx.FirmID(),
		"member_id":         actx.MemberID(),
		"role":              string(actx.Role()),
		"self_scoped_reads": actx.SelfScopedReads(),
		"permissions":       levels,
		"special_flags":     flags,
	})
}

// CreateFirm creates a new firm
func (h *Handler) CreateFirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.firmService.CreateFirm(r.Context(), req.Name, req.Tier)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

// ListMembers lists members of the caller's own firm.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())
	firmID := chi.URLParam(r, "firmID")

	// Member listings never cross firm boundaries, whatever the role.
	if actx.FirmID() != firmID {
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}
	if err := actx.RequirePermission(permission.ModuleTeam, permission.LevelView); err != nil {
		respondDomainError(w, r, err)
		return
	}

	members, err := h.firmService.ListMembers(r.Context(), firmID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMember provisions a user into the caller's firm.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())
	firmID := chi.URLParam(r, "firmID")

	if actx.FirmID() != firmID || !actx.HasSpecialPermission(permission.FlagManageTeam) {
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := permission.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	m, err := h.firmService.AddMember(r.Context(), firmID, req.UserID, role, actx.UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// ChangeMemberStatus moves a member through the lifecycle state machine.
func (h *Handler) ChangeMemberStatus(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())
	if !actx.HasSpecialPermission(permission.FlagManageTeam) {
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := permission.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	m, err := h.memberInCallerFirm(w, r, actx)
	if m == nil {
		return
	}

	updated, err := h.firmService.ChangeStatus(r.Context(), m.ID, status, actx.UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// SetMemberOverride sets or clears a per-module permission override.
func (h *Handler) SetMemberOverride(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())
	if !actx.HasSpecialPermission(permission.FlagManageTeam) {
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}

	var req struct {
		Module string  `json:"module"`
		Level  *string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	module, err := permission.ParseModule(req.Module)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown module")
		return
	}
	var level *permission.Level
	if req.Level != nil {
		l, err := permission.ParseLevel(*req.Level)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unknown level")
			return
		}
		level = &l
	}

	m, _ := h.memberInCallerFirm(w, r, actx)
	if m == nil {
		return
	}

	updated, err := h.firmService.SetOverride(r.Context(), m.ID, module, level, actx.UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// CreateGrant elevates a member's access on one exact resource.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())

	var req struct {
		ResourceType string `json:"resource_type"`
		ResourceID   string `json:"resource_id"`
		MemberID     string `json:"member_id"`
		Level        string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	level, err := permission.ParseLevel(req.Level)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown level")
		return
	}

	g, err := h.grantService.Grant(r.Context(), actx, req.ResourceType, req.ResourceID, req.MemberID, level)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

// RevokeGrant removes a per-resource elevation.
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())

	var req struct {
		ResourceType string `json:"resource_type"`
		ResourceID   string `json:"resource_id"`
		MemberID     string `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.grantService.Revoke(r.Context(), actx, req.ResourceType, req.ResourceID, req.MemberID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGrants lists a member's grants.
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	actx := GetActor(r.Context())
	memberID := chi.URLParam(r, "memberID")

	// Members may read their own grants; anything else needs team view, and
	// the target must sit inside the caller's firm.
	if memberID != actx.MemberID() {
		if err := actx.RequirePermission(permission.ModuleTeam, permission.LevelView); err != nil {
			respondDomainError(w, r, err)
			return
		}
		if m, _ := h.memberInCallerFirm(w, r, actx); m == nil {
			return
		}
	}

	grants, err := h.grantService.ListForMember(r.Context(), memberID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, grants)
}

// memberInCallerFirm loads the target member and enforces that member
// administration never crosses firm boundaries. Writes the error response
// and returns nil when the target is unavailable to the caller.
func (h *Handler) memberInCallerFirm(w http.ResponseWriter, r *http.Request, actx *actor.Context) (*firm.Member, error) {
	memberID := chi.URLParam(r, "memberID")

	members, err := h.firmService.ListMembers(r.Context(), actx.FirmID())
	if err != nil {
		respondDomainError(w, r, err)
		return nil, err
	}
	for _, m := range members {
		if m.ID == memberID {
			return m, nil
		}
	}
	respondError(w, http.StatusNotFound, "not found")
	return nil, firm.ErrMemberNotFound
}
