package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that disabled tracing yields a usable no-op tracer.
// Scope: Unit Test
// Expected: Spans can be started, nothing is exported and Shutdown succeeds.
// Test Case ID: TRC-01
func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), Config{ServiceName: "gixat"})
	require.NoError(t, err)
	assert.False(t, tr.Enabled())

	_, span := tr.Tracer().Start(context.Background(), "loader.batch")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, tr.Shutdown(context.Background()))
}

// TestPurpose: Validates sampling rate handling.
// Scope: Unit Test
// Expected: Out-of-range rates sample everything; in-range rates use ratio sampling.
// Test Case ID: TRC-02
func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
