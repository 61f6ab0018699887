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
	"errors"
	"log/slog"
	"net/http"

	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/observability/logger"
	"github.com/lexcore/lexcore/internal/permission"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and rendered as an opaque 500 so internals never leak to clients.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, permission.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, firm.ErrFirmNotFound),
		errors.Is(err, firm.ErrMemberNotFound),
		errors.Is(err, grant.ErrGrantNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, firm.ErrMemberExists):
		respondError(w, http.StatusConflict, "member already exists")
	case errors.Is(err, firm.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "illegal status transition")
	case errors.Is(err, grant.ErrVersionConflict):
		respondError(w, http.StatusConflict, "concurrent modification, retry")
	default:
		slog.ErrorContext(r.Context(), "request failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
