// Copyright 2026 The Gixat Authors
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

// Package metrics registers the service's OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool

	// Namespace prefixes every instrument name, separated by a dot.
	Namespace string
}

// Meter creates instruments under one instrumentation scope.
type Meter struct {
	meter     metric.Meter
	namespace string
}

// New returns a Meter on the global provider, or a no-op Meter when
// metrics are disabled.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	mp := otel.GetMeterProvider()
	if !cfg.Enabled {
		mp = noop.NewMeterProvider()
	}
	m := NewWithProvider(mp, serviceName)
	m.namespace = cfg.Namespace
	return m, nil
}

// NewWithProvider returns a Meter on mp.
func NewWithProvider(mp metric.MeterProvider, serviceName string) *Meter {
	return &Meter{meter: mp.Meter(serviceName)}
}

func (m *Meter) name(n string) string {
	if m.namespace == "" {
		return n
	}
	return m.namespace + "." + n
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	c, err := m.meter.Int64Counter(m.name(name), metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("metrics: counter %s: %w", name, err)
	}
	return c, nil
}

func (m *Meter) histogram(name, description, unit string) (metric.Float64Histogram, error) {
	h, err := m.meter.Float64Histogram(m.name(name),
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: histogram %s: %w", name, err)
	}
	return h, nil
}
