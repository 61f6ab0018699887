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

import "fmt"

// ScopeKind distinguishes the two tenant shapes.
type ScopeKind int

const (
	// ScopeFirm scopes data to one firm; the tenant key is firm_id.
	ScopeFirm ScopeKind = iota + 1
	// ScopeLawyer scopes data to one solo practitioner; the tenant key is
	// lawyer_id.
	ScopeLawyer
)

// Tenant key column/field names used in scoped filters and documents.
const (
	TenantKeyFirm   = "firm_id"
	TenantKeyLawyer = "lawyer_id"
)

// ScopePredicate identifies exactly one tenant. Every tenant-scoped data
// operation carries exactly one predicate unless explicitly bypassed.
// The zero value is invalid and fails every check.
type ScopePredicate struct {
	kind     ScopeKind
	tenantID string
}

// FirmScope builds a predicate for a firm tenant.
func FirmScope(firmID string) ScopePredicate {
	return ScopePredicate{kind: ScopeFirm, tenantID: firmID}
}

// LawyerScope builds a predicate for a solo-practitioner tenant.
func LawyerScope(lawyerID string) ScopePredicate {
	return ScopePredicate{kind: ScopeLawyer, tenantID: lawyerID}
}

// Kind returns the tenant shape.
func (p ScopePredicate) Kind() ScopeKind { return p.kind }

// TenantID returns the identifier of the tenant.
func (p ScopePredicate) TenantID() string { return p.tenantID }

// TenantKey returns the filter/document field the predicate binds to.
func (p ScopePredicate) TenantKey() string {
	switch p.kind {
	case ScopeFirm:
		return TenantKeyFirm
	case ScopeLawyer:
		return TenantKeyLawyer
	default:
		return ""
	}
}

// Valid reports whether the predicate identifies a tenant.
func (p ScopePredicate) Valid() bool {
	return p.tenantID != "" && (p.kind == ScopeFirm || p.kind == ScopeLawyer)
}

func (p ScopePredicate) String() string {
	switch p.kind {
	case ScopeFirm:
		return fmt.Sprintf("firm(%s)", p.tenantID)
	case ScopeLawyer:
		return fmt.Sprintf("lawyer(%s)", p.tenantID)
	default:
		return "invalid-scope"
	}
}
