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

package metrics

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Violation reasons recorded on the counter.
const (
	ReasonMissingPredicate = "missing_predicate"
	ReasonCrossTenant      = "cross_tenant"
	ReasonBypass           = "bypass"
)

// ViolationCounter counts isolation rejections and bypass uses. It exports
// through OpenTelemetry and additionally keeps an in-process monotonic total
// so the stats endpoint and tests can read it without a metrics backend.
type ViolationCounter struct {
	counter metric.Int64Counter
	total   atomic.Uint64
}

// NewViolationCounter registers the counter on the meter. A nil meter yields
// a process-local counter only, which tests use.
func NewViolationCounter(m *Meter) (*ViolationCounter, error) {
	vc := &ViolationCounter{}
	if m != nil {
		counter, err := m.CreateCounter(
			"lexcore.isolation.violations",
			"Tenant isolation violations and bypass uses",
		)
		if err != nil {
			return nil, err
		}
		vc.counter = counter
	}
	return vc, nil
}

// Inc records one violation with its reason.
func (vc *ViolationCounter) Inc(ctx context.Context, reason string) {
	vc.total.Add(1)
	if vc.counter != nil {
		vc.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// Total returns the process-local violation count.
func (vc *ViolationCounter) Total() uint64 {
	return vc.total.Load()
}
