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
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrBypassDenied is returned when the bypass credential does not verify.
var ErrBypassDenied = errors.New("bypass credential rejected")

// SystemContext authorizes operations outside tenant scoping. It cannot be
// constructed from ordinary request handling: the only way in is
// NewSystemContext, which requires the deploy-time bypass credential.
// Reserved for migrations and scheduled admin jobs.
type SystemContext struct {
	callerID string
	reason   string
}

// CallerID returns the identity the bypass was issued to.
func (s *SystemContext) CallerID() string { return s.callerID }

// Reason returns the stated purpose of the bypass.
func (s *SystemContext) Reason() string { return s.reason }

// NewSystemContext verifies the bypass token against the configured argon2id
// hash and returns a system context on success. callerID and reason are
// mandatory; both appear in every audit entry the bypass produces.
func NewSystemContext(callerID, reason, token, encodedHash string) (*SystemContext, error) {
	if callerID == "" || reason == "" {
		return nil, fmt.Errorf("bypass requires caller identity and reason: %w", ErrBypassDenied)
	}
	ok, err := verifyBypassToken(token, encodedHash)
	if err != nil {
		return nil, fmt.Errorf("bypass verification failed: %w", err)
	}
	if !ok {
		return nil, ErrBypassDenied
	}
	return &SystemContext{callerID: callerID, reason: reason}, nil
}

type bypassKey struct{}

// SystemFromContext returns the active system context, if any.
func SystemFromContext(ctx context.Context) (*SystemContext, bool) {
	sys, ok := ctx.Value(bypassKey{}).(*SystemContext)
	return sys, ok
}

func withSystem(ctx context.Context, sys *SystemContext) context.Context {
	return context.WithValue(ctx, bypassKey{}, sys)
}

// Argon2id parameters for the bypass credential. The credential is verified
// once per job, not per request, so the cost can sit at the password tier.
const (
	bypassMemory      = 64 * 1024
	bypassIterations  = 3
	bypassParallelism = 4
	bypassSaltLength  = 16
	bypassKeyLength   = 32
)

// HashBypassToken hashes a bypass token for storage in configuration.
// Encoded as: $argon2id$v=19$m=memory,t=iterations,p=parallelism$salt$hash
func HashBypassToken(token string) (string, error) {
	salt := make([]byte, bypassSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(token), salt, bypassIterations, bypassMemory, bypassParallelism, bypassKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		bypassMemory,
		bypassIterations,
		bypassParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyBypassToken(token, encodedHash string) (bool, error) {
	// Format: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	sections := strings.Split(encodedHash, "$")
	if len(sections) != 6 || sections[1] != "argon2id" {
		return false, fmt.Errorf("invalid bypass hash format")
	}

	var version int
	if _, err := fmt.Sscanf(sections[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(sections[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false, fmt.Errorf("invalid salt encoding: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(sections[5])
	if err != nil {
		return false, fmt.Errorf("invalid hash encoding: %w", err)
	}

	actual := argon2.IDKey([]byte(token), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
