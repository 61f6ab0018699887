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

// Package grant holds per-resource permission exceptions. A grant can only
// raise a member's access above their module baseline for one exact
// resource; it is never consulted to lower access.
package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lexcore/lexcore/internal/permission"
)

var (
	ErrGrantNotFound = errors.New("grant not found")
	// ErrVersionConflict is returned by Put when the stored version does
	// not match the caller's snapshot; callers re-read and retry.
	ErrVersionConflict = errors.New("grant version conflict")
)

// ResourceGrant is an explicit elevated permission on exactly one resource.
type ResourceGrant struct {
	ResourceType string           `json:"resource_type"`
	ResourceID   string           `json:"resource_id"`
	MemberID     string           `json:"member_id"`
	Level        permission.Level `json:"level"`
	Version      int64            `json:"version"`
	GrantedBy    string           `json:"granted_by"`
	GrantedAt    time.Time        `json:"granted_at"`
}

// Key returns the composite lookup key (resourceType, resourceId, memberId).
func (g *ResourceGrant) Key() string {
	return Key(g.ResourceType, g.ResourceID, g.MemberID)
}

// Key builds the composite grant key.
func Key(resourceType, resourceID, memberID string) string {
	return fmt.Sprintf("%s/%s/%s", resourceType, resourceID, memberID)
}

// Reader is the lookup surface consumed by per-resource access checks.
type Reader interface {
	// Get returns the grant for the exact (type, id, member) triple, or
	// ErrGrantNotFound.
	Get(ctx context.Context, resourceType, resourceID, memberID string) (*ResourceGrant, error)
}

// Store is the full grant persistence surface. Concurrent writes to the same
// key are serialized through the Version field: Put with Version 0 inserts,
// Put with Version n replaces only if the stored version is still n.
type Store interface {
	Reader
	ListForMember(ctx context.Context, memberID string) ([]*ResourceGrant, error)
	Put(ctx context.Context, g *ResourceGrant) error
	Delete(ctx context.Context, resourceType, resourceID, memberID string) error
}
