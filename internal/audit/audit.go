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

// Package audit records security-relevant events such as tenant filter
// bypasses and organization creation.
package audit

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
)

// Event types
const (
	TypeOrganizationCreated = "organization_created"
	TypeTenantFilterBypass  = "tenant_filter_bypass"
	TypeTenantMismatch      = "tenant_mismatch"
	TypeEntityCreated       = "entity_created"
	TypeEntityUpdated       = "entity_updated"
	TypeEntityDeleted       = "entity_deleted"
	TypeSeedCompleted       = "seed_completed"
	TypeMigrationApplied    = "migration_applied"
)

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger writes events as structured slog records.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger. A nil logger uses slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger.With(slog.String("component", "audit"))}
}

// Log records an audit event. Refused operations are logged as warnings.
// Metadata values under secret-looking keys are redacted.
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if len(event.Metadata) > 0 {
		group := make([]any, 0, len(event.Metadata))
		for _, k := range slices.Sorted(maps.Keys(event.Metadata)) {
			v := event.Metadata[k]
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	l.logger.LogAttrs(ctx, level(event.Type), "AUDIT_EVENT", attrs...)
}

func level(eventType string) slog.Level {
	if eventType == TypeTenantMismatch {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Nop discards every event.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(context.Context, Event) {}

var secretMarkers = []string{"password", "secret", "token", "key", "authorization", "hash", "credential"}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	return slices.ContainsFunc(secretMarkers, func(m string) bool {
		return strings.Contains(key, m)
	})
}
