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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lexcore/lexcore/internal/grant"
)

// GrantRepository implements grant.Store. Concurrent writers are serialized
// through the version column: updates only apply when the stored version
// still matches the caller's snapshot.
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Get retrieves the grant for the exact (type, id, member) triple
func (r *GrantRepository) Get(ctx context.Context, resourceType, resourceID, memberID string) (*grant.ResourceGrant, error) {
	var g grant.ResourceGrant
	err := r.db.pool.QueryRow(ctx, `
		SELECT resource_type, resource_id, member_id, level, version, granted_by, granted_at
		FROM resource_grants
		WHERE resource_type = $1 AND resource_id = $2 AND member_id = $3
	`, resourceType, resourceID, memberID).
		Scan(&g.ResourceType, &g.ResourceID, &g.MemberID, &g.Level, &g.Version, &g.GrantedBy, &g.GrantedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, grant.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return &g, nil
}

// ListForMember retrieves all grants held by a member
func (r *GrantRepository) ListForMember(ctx context.Context, memberID string) ([]*grant.ResourceGrant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT resource_type, resource_id, member_id, level, version, granted_by, granted_at
		FROM resource_grants
		WHERE member_id = $1
		ORDER BY granted_at
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []*grant.ResourceGrant
	for rows.Next() {
		var g grant.ResourceGrant
		if err := rows.Scan(&g.ResourceType, &g.ResourceID, &g.MemberID, &g.Level, &g.Version, &g.GrantedBy, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, &g)
	}
	return grants, rows.Err()
}

// Put inserts (Version 0) or replaces (Version n) a grant. A stale version
// returns grant.ErrVersionConflict; the caller's Version is bumped on
// success to keep it usable for a follow-up write.
func (r *GrantRepository) Put(ctx context.Context, g *grant.ResourceGrant) error {
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now()
	}

	if g.Version == 0 {
		_, err := r.db.pool.Exec(ctx, `
			INSERT INTO resource_grants (resource_type, resource_id, member_id, level, version, granted_by, granted_at)
			VALUES ($1, $2, $3, $4, 1, $5, $6)
		`, g.ResourceType, g.ResourceID, g.MemberID, int(g.Level), g.GrantedBy, g.GrantedAt)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Another writer inserted first.
			return grant.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert grant: %w", err)
		}
		g.Version = 1
		return nil
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE resource_grants
		SET level = $4, version = version + 1, granted_by = $5, granted_at = $6
		WHERE resource_type = $1 AND resource_id = $2 AND member_id = $3 AND version = $7
	`, g.ResourceType, g.ResourceID, g.MemberID, int(g.Level), g.GrantedBy, g.GrantedAt, g.Version)

	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return grant.ErrVersionConflict
	}
	g.Version++
	return nil
}

// Delete removes a grant
func (r *GrantRepository) Delete(ctx context.Context, resourceType, resourceID, memberID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM resource_grants
		WHERE resource_type = $1 AND resource_id = $2 AND member_id = $3
	`, resourceType, resourceID, memberID)

	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return grant.ErrGrantNotFound
	}
	return nil
}
