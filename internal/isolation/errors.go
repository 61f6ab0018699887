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

import "fmt"

// IsolationError reports a tenant-scoped operation issued with no scope
// predicate and no bypass. It is a programming error: retrying cannot supply
// the missing predicate, so callers must treat it as fatal for the request.
type IsolationError struct {
	Collection string
	Operation  string
}

func (e *IsolationError) Error() string {
	return fmt.Sprintf("isolation violation: %s on tenant-scoped collection %q carries no tenant predicate", e.Operation, e.Collection)
}

// CrossTenantError reports a predicate naming a different tenant than the
// actor's scope. It is always fatal and flagged as a potential security
// incident, not just logged.
type CrossTenantError struct {
	Collection string
	TenantKey  string
	Expected   string
	Got        string
}

func (e *CrossTenantError) Error() string {
	return fmt.Sprintf("cross-tenant violation on %q: %s=%q does not match actor scope %q", e.Collection, e.TenantKey, e.Got, e.Expected)
}
