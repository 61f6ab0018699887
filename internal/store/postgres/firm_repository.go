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
	"github.com/lexcore/lexcore/internal/firm"
)

// FirmRepository implements firm.Repository
type FirmRepository struct {
	db *DB
}

// NewFirmRepository creates a new firm repository
func NewFirmRepository(db *DB) *FirmRepository {
	return &FirmRepository{db: db}
}

// Create inserts a new firm
func (r *FirmRepository) Create(ctx context.Context, f *firm.Firm) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO firms (id, name, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, f.ID, f.Name, f.Tier, f.CreatedAt, f.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create firm: %w", err)
	}
	return nil
}

// GetByID retrieves a firm by ID
func (r *FirmRepository) GetByID(ctx context.Context, id string) (*firm.Firm, error) {
	var f firm.Firm
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM firms
		WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Tier, &f.CreatedAt, &f.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, firm.ErrFirmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get firm: %w", err)
	}
	return &f, nil
}

// Update updates a firm's mutable fields
func (r *FirmRepository) Update(ctx context.Context, f *firm.Firm) error {
	f.UpdatedAt = time.Now()

	result, err := r.db.pool.Exec(ctx, `
		UPDATE firms
		SET name = $2, tier = $3, updated_at = $4
		WHERE id = $1
	`, f.ID, f.Name, f.Tier, f.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update firm: %w", err)
	}
	if result.RowsAffected() == 0 {
		return firm.ErrFirmNotFound
	}
	return nil
}

// List retrieves firms with pagination
func (r *FirmRepository) List(ctx context.Context, limit, offset int) ([]*firm.Firm, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM firms
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list firms: %w", err)
	}
	defer rows.Close()

	var firms []*firm.Firm
	for rows.Next() {
		var f firm.Firm
		if err := rows.Scan(&f.ID, &f.Name, &f.Tier, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan firm: %w", err)
		}
		firms = append(firms, &f)
	}
	return firms, rows.Err()
}
