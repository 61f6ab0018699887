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

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/permission"
)

var (
	// ErrActorNotProvisioned is returned when an identity names a firm the
	// user has no membership in. Never downgraded to guest access.
	ErrActorNotProvisioned = errors.New("actor not provisioned in firm")

	// ErrActorTerminated is returned for terminated members; termination is
	// a sink state and resolution always fails thereafter.
	ErrActorTerminated = errors.New("actor terminated")

	// ErrMissingUserID is returned for identities without a user.
	// Ambiguous input is an explicit error, never an implicit default.
	ErrMissingUserID = errors.New("identity has no user id")
)

// Resolver derives the request-scoped actor context from an authenticated
// identity. The member record is the source of truth: role and status claims
// on the identity are advisory only and are never trusted over storage.
type Resolver struct {
	members firm.MemberRepository
	grants  grant.Reader
}

// NewResolver creates a new context resolver
func NewResolver(members firm.MemberRepository, grants grant.Reader) *Resolver {
	return &Resolver{members: members, grants: grants}
}

// Resolve builds the immutable actor context for one request.
//
//   - identity with a firm: membership is loaded and the scope predicate is
//     the firm; suspended members resolve to a deny-all context (not an
//     error), departed members get self-scoped reads, terminated members
//     fail with ErrActorTerminated, unknown members with
//     ErrActorNotProvisioned.
//   - identity without a firm: solo practitioner, scoped by lawyer ID, full
//     permissions.
func (r *Resolver) Resolve(ctx context.Context, identity Identity) (*Context, error) {
	if identity.UserID == "" {
		return nil, ErrMissingUserID
	}

	if identity.FirmID == "" {
		return &Context{
			identity: identity,
			role:     permission.RoleSolo,
			scope:    LawyerScope(identity.UserID),
			perms:    permission.ResolveSolo(),
			grants:   r.grants,
		}, nil
	}

	member, err := r.members.GetByUser(ctx, identity.FirmID, identity.UserID)
	if err != nil {
		if errors.Is(err, firm.ErrMemberNotFound) {
			return nil, fmt.Errorf("user %s in firm %s: %w", identity.UserID, identity.FirmID, ErrActorNotProvisioned)
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	if member.Status == permission.StatusTerminated {
		return nil, ErrActorTerminated
	}

	return &Context{
		identity:        identity,
		memberID:        member.ID,
		role:            member.Role,
		scope:           FirmScope(identity.FirmID),
		perms:           permission.Resolve(member.Role, member.Status, member.Overrides, member.FlagOverrides),
		selfScopedReads: member.Status == permission.StatusDeparted,
		grants:          r.grants,
	}, nil
}
