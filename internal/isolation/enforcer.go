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

package isolation

import (
	"context"
	"log/slog"

	"github.com/lexcore/lexcore/internal/actor"
	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/observability/logger"
	"github.com/lexcore/lexcore/internal/observability/metrics"
)

// tenantKeys are the only fields that may scope a collection to a tenant.
var tenantKeys = []string{actor.TenantKeyFirm, actor.TenantKeyLawyer}

// Enforcer validates or injects tenant scope on every operation against a
// tenant-scoped collection. It adds no I/O of its own: predicate checks are
// O(1) map lookups, and a raised violation aborts the operation before
// anything is sent to storage.
type Enforcer struct {
	auditLogger audit.Logger
	violations  *metrics.ViolationCounter
}

// NewEnforcer creates a new enforcer
func NewEnforcer(auditLogger audit.Logger, violations *metrics.ViolationCounter) *Enforcer {
	return &Enforcer{auditLogger: auditLogger, violations: violations}
}

// Violations exposes the process-local violation counter.
func (e *Enforcer) Violations() *metrics.ViolationCounter {
	return e.violations
}

// ScopedQuery validates the tenant predicate of a read filter.
//
//   - bypass context: allowed as-is, logged at WARN;
//   - filter carries the actor's tenant key with the actor's tenant: allowed;
//   - filter carries a tenant key naming another tenant: CrossTenantError;
//   - filter carries no tenant key: IsolationError. Reads fail closed.
//
// Departed actors additionally get an owner-or-assignee clause appended so
// they only see records they own or are assigned to.
func (e *Enforcer) ScopedQuery(ctx context.Context, actx *actor.Context, collection string, filter Filter) (Filter, error) {
	if !IsScoped(collection) {
		return filter, nil
	}

	if sys, ok := SystemFromContext(ctx); ok {
		slog.WarnContext(ctx, "tenant scoping bypassed for query",
			logger.Collection(collection),
			logger.Component("isolation"),
			logger.String("bypass_caller", sys.CallerID()),
			logger.String("bypass_reason", sys.Reason()),
		)
		return filter, nil
	}

	scope := actx.Scope()
	expectedKey := scope.TenantKey()

	matched := false
	for _, key := range tenantKeys {
		got, present := filter[key]
		if !present {
			continue
		}
		if key == expectedKey && got == scope.TenantID() {
			matched = true
			continue
		}

		gotStr, _ := got.(string)
		violation := &CrossTenantError{
			Collection: collection,
			TenantKey:  key,
			Expected:   scope.TenantID(),
			Got:        gotStr,
		}
		e.reject(ctx, actx, audit.TypeCrossTenantAccess, metrics.ReasonCrossTenant, collection, map[string]any{
			"operation":  "query",
			"tenant_key": key,
			"expected":   scope.TenantID(),
			"got":        gotStr,
		})
		return nil, violation
	}

	if !matched {
		e.reject(ctx, actx, audit.TypeIsolationViolation, metrics.ReasonMissingPredicate, collection, map[string]any{
			"operation": "query",
		})
		return nil, &IsolationError{Collection: collection, Operation: "query"}
	}

	out := filter.Clone()
	if actx.SelfScopedReads() {
		selfScope := []Filter{
			{"owner_id": actx.UserID()},
			{"assignee_id": actx.UserID()},
		}
		// A caller-supplied $or must survive alongside the self scope, so
		// both become branches of a conjunction.
		if existing, ok := out["$or"]; ok {
			delete(out, "$or")
			and, _ := out["$and"].([]Filter)
			out["$and"] = append(and,
				Filter{"$or": existing},
				Filter{"$or": selfScope},
			)
		} else {
			out["$or"] = selfScope
		}
	}
	return out, nil
}

// ScopedDocument validates or injects the tenant key on a document being
// created. Unlike reads there is no pre-existing filter to check, so an
// absent key is filled in from the actor's scope; a present key must match.
func (e *Enforcer) ScopedDocument(ctx context.Context, actx *actor.Context, collection string, doc Document) (Document, error) {
	if !IsScoped(collection) {
		return doc, nil
	}

	if sys, ok := SystemFromContext(ctx); ok {
		slog.WarnContext(ctx, "tenant scoping bypassed for document creation",
			logger.Collection(collection),
			logger.Component("isolation"),
			logger.String("bypass_caller", sys.CallerID()),
			logger.String("bypass_reason", sys.Reason()),
		)
		return doc, nil
	}

	scope := actx.Scope()
	expectedKey := scope.TenantKey()

	for _, key := range tenantKeys {
		got, present := doc[key]
		if !present {
			continue
		}
		if key == expectedKey && got == scope.TenantID() {
			continue
		}

		gotStr, _ := got.(string)
		violation := &CrossTenantError{
			Collection: collection,
			TenantKey:  key,
			Expected:   scope.TenantID(),
			Got:        gotStr,
		}
		e.reject(ctx, actx, audit.TypeCrossTenantAccess, metrics.ReasonCrossTenant, collection, map[string]any{
			"operation":  "create",
			"tenant_key": key,
			"expected":   scope.TenantID(),
			"got":        gotStr,
		})
		return nil, violation
	}

	out := doc.Clone()
	out[expectedKey] = scope.TenantID()
	return out, nil
}

// WithBypass runs fn with tenant scoping disabled. Every invocation is
// audit-logged with the caller identity and counted; the bypass never leaks
// past fn because it lives only in the derived context.
func (e *Enforcer) WithBypass(ctx context.Context, sys *SystemContext, fn func(ctx context.Context) error) error {
	if sys == nil {
		return ErrBypassDenied
	}

	e.violations.Inc(ctx, metrics.ReasonBypass)
	e.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBypassUsed,
		ActorID:  sys.CallerID(),
		Severity: audit.SeverityWarn,
		Metadata: map[string]any{"reason": sys.Reason()},
	})
	slog.WarnContext(ctx, "tenant isolation bypass engaged",
		logger.Component("isolation"),
		logger.String("bypass_caller", sys.CallerID()),
		logger.String("bypass_reason", sys.Reason()),
	)

	return fn(withSystem(ctx, sys))
}

func (e *Enforcer) reject(ctx context.Context, actx *actor.Context, auditType, reason, collection string, meta map[string]any) {
	e.violations.Inc(ctx, reason)
	e.auditLogger.Log(ctx, audit.Event{
		Type:     auditType,
		FirmID:   actx.FirmID(),
		ActorID:  actx.UserID(),
		Resource: collection,
		Severity: audit.SeverityCritical,
		Metadata: meta,
	})
	slog.ErrorContext(ctx, "tenant isolation violation",
		logger.Component("isolation"),
		logger.Collection(collection),
		logger.UserID(actx.UserID()),
		logger.FirmID(actx.FirmID()),
		logger.ErrorType(auditType),
	)
}
