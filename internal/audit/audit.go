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

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeFirmCreated         = "firm_created"
	TypeMemberAdded         = "member_added"
	TypeMemberStatusChanged = "member_status_changed"
	TypeOverrideChanged     = "override_changed"
	TypeGrantCreated        = "grant_created"
	TypeGrantRevoked        = "grant_revoked"
	TypePermissionDenied    = "permission_denied"
	TypeIsolationViolation  = "isolation_violation"
	TypeCrossTenantAccess   = "cross_tenant_access"
	TypeBypassUsed          = "bypass_used"
)

// Severities. Critical events are treated as security incidents and logged
// at error level so they page; everything else is informational.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// Event represents an auditable action
type Event struct {
	Type      string
	FirmID    string
	ActorID   string
	Resource  string
	Severity  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	// Ensure timestamp is set
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("severity", event.Severity),
		slog.String("firm_id", event.FirmID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	// Flatten metadata
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	attrs = append(attrs, slog.String("component", "audit"))

	level := slog.LevelInfo
	switch event.Severity {
	case SeverityCritical:
		level = slog.LevelError
	case SeverityWarn:
		level = slog.LevelWarn
	}

	slog.Log(ctx, level, "AUDIT_EVENT", attrs...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "key", "authorization"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
