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

package http

import (
	"context"

	"github.com/lexcore/lexcore/internal/actor"
)

type contextKey string

const actorKey contextKey = "actor"

// GetActor retrieves the resolved actor context from the request context.
// It is nil on unauthenticated routes.
func GetActor(ctx context.Context) *actor.Context {
	if val, ok := ctx.Value(actorKey).(*actor.Context); ok {
		return val
	}
	return nil
}

func withActor(ctx context.Context, actx *actor.Context) context.Context {
	return context.WithValue(ctx, actorKey, actx)
}
