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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/permission"
)

// MemberRepository implements firm.MemberRepository. Permission overrides
// are stored as JSONB keyed by module / flag name.
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a new membership
func (r *MemberRepository) Create(ctx context.Context, m *firm.Member) error {
	overrides, flagOverrides, err := marshalOverrides(m)
	if err != nil {
		return err
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO members (id, firm_id, user_id, role, status, overrides, flag_overrides, joined_at, departed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.FirmID, m.UserID, string(m.Role), string(m.Status), overrides, flagOverrides, m.JoinedAt, m.DepartedAt)

	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*firm.Member, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, `
		SELECT id, firm_id, user_id, role, status, overrides, flag_overrides, joined_at, departed_at
		FROM members
		WHERE id = $1
	`, id))
}

// GetByUser retrieves a user's membership in a firm
func (r *MemberRepository) GetByUser(ctx context.Context, firmID, userID string) (*firm.Member, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, `
		SELECT id, firm_id, user_id, role, status, overrides, flag_overrides, joined_at, departed_at
		FROM members
		WHERE firm_id = $1 AND user_id = $2
	`, firmID, userID))
}

// Update persists a member's role, status and overrides
func (r *MemberRepository) Update(ctx context.Context, m *firm.Member) error {
	overrides, flagOverrides, err := marshalOverrides(m)
	if err != nil {
		return err
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE members
		SET role = $2, status = $3, overrides = $4, flag_overrides = $5, departed_at = $6
		WHERE id = $1
	`, m.ID, string(m.Role), string(m.Status), overrides, flagOverrides, m.DepartedAt)

	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return firm.ErrMemberNotFound
	}
	return nil
}

// ListByFirm retrieves all members of a firm
func (r *MemberRepository) ListByFirm(ctx context.Context, firmID string) ([]*firm.Member, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, firm_id, user_id, role, status, overrides, flag_overrides, joined_at, departed_at
		FROM members
		WHERE firm_id = $1
		ORDER BY joined_at
	`, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*firm.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) scanOne(row pgx.Row) (*firm.Member, error) {
	m, err := scanMember(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, firm.ErrMemberNotFound
	}
	return m, err
}

func scanMember(scan func(dest ...any) error) (*firm.Member, error) {
	var (
		m             firm.Member
		role, status  string
		overrides     []byte
		flagOverrides []byte
		departedAt    sql.NullTime
	)
	if err := scan(&m.ID, &m.FirmID, &m.UserID, &role, &status, &overrides, &flagOverrides, &m.JoinedAt, &departedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Role = permission.Role(role)
	m.Status = permission.Status(status)
	if departedAt.Valid {
		t := departedAt.Time
		m.DepartedAt = &t
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &m.Overrides); err != nil {
			return nil, fmt.Errorf("failed to decode overrides: %w", err)
		}
	}
	if len(flagOverrides) > 0 {
		if err := json.Unmarshal(flagOverrides, &m.FlagOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode flag overrides: %w", err)
		}
	}
	return &m, nil
}

func marshalOverrides(m *firm.Member) ([]byte, []byte, error) {
	overrides := m.Overrides
	if overrides == nil {
		overrides = map[permission.Module]permission.Level{}
	}
	flagOverrides := m.FlagOverrides
	if flagOverrides == nil {
		flagOverrides = map[permission.SpecialFlag]bool{}
	}

	ob, err := json.Marshal(overrides)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode overrides: %w", err)
	}
	fb, err := json.Marshal(flagOverrides)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode flag overrides: %w", err)
	}
	return ob, fb, nil
}
