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

package grant

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and single-node
// deployments. Writes are serialized by a mutex plus the version check.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]*ResourceGrant
}

// NewMemoryStore creates an empty in-memory grant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]*ResourceGrant)}
}

func (s *MemoryStore) Get(ctx context.Context, resourceType, resourceID, memberID string) (*ResourceGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[Key(resourceType, resourceID, memberID)]
	if !ok {
		return nil, ErrGrantNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *MemoryStore) ListForMember(ctx context.Context, memberID string) ([]*ResourceGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ResourceGrant
	for _, g := range s.grants {
		if g.MemberID == memberID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Put inserts or replaces a grant. The caller's Version must match the
// stored version (0 for insert) or ErrVersionConflict is returned; the
// stored grant's version is then bumped.
func (s *MemoryStore) Put(ctx context.Context, g *ResourceGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := g.Key()
	existing, ok := s.grants[key]
	if !ok {
		if g.Version != 0 {
			return ErrVersionConflict
		}
	} else if existing.Version != g.Version {
		return ErrVersionConflict
	}

	cp := *g
	cp.Version++
	if cp.GrantedAt.IsZero() {
		cp.GrantedAt = time.Now()
	}
	s.grants[key] = &cp
	g.Version = cp.Version
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, resourceType, resourceID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(resourceType, resourceID, memberID)
	if _, ok := s.grants[key]; !ok {
		return ErrGrantNotFound
	}
	delete(s.grants, key)
	return nil
}
