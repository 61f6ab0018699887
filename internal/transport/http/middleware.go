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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lexcore/lexcore/internal/actor"
	"github.com/lexcore/lexcore/internal/observability/logger"
)

// Tenant Context Principles:
// 1. Tenant context is derived exclusively from the authenticated identity.
// 2. X-Firm-ID and similar headers are never honored.
// 3. The resolved actor context is immutable for the life of the request.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// bearerClaims are the JWT claims LexCore consumes. firm_id is absent for
// solo practitioners.
type bearerClaims struct {
	FirmID string `json:"firm_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware authenticates the bearer token, resolves the actor context
// and stores it on the request. The membership record is authoritative: role
// or status claims in the token are ignored in favor of storage.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims := &bearerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		}, jwt.WithIssuer(h.jwtIssuer))
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		// Firm context comes from the token's firm_id claim only. A firm
		// header on an authenticated request is a spoofing attempt.
		if r.Header.Get("X-Firm-ID") != "" {
			slog.WarnContext(r.Context(), "firm header spoofing attempt detected on authenticated route",
				logger.UserID(claims.Subject),
			)
			respondError(w, http.StatusBadRequest, "X-Firm-ID header is not allowed; firm is derived from the token")
			return
		}

		actx, err := h.resolver.Resolve(r.Context(), actor.Identity{
			UserID: claims.Subject,
			FirmID: claims.FirmID,
		})
		if err != nil {
			h.respondResolveError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actx)))
	})
}

func (h *Handler) respondResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, actor.ErrActorTerminated):
		respondError(w, http.StatusForbidden, "membership terminated")
	case errors.Is(err, actor.ErrActorNotProvisioned):
		respondError(w, http.StatusForbidden, "not a member of this firm")
	case errors.Is(err, actor.ErrMissingUserID):
		respondError(w, http.StatusUnauthorized, "not authenticated")
	default:
		slog.ErrorContext(r.Context(), "actor resolution failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimPrefix(auth, prefix)
}
