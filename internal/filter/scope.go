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

package filter

import (
	"context"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
)

// Scope applies the tenant filter of one operation.
type Scope struct {
	registry *Registry
	tenant   tenant.Context
	bypass   bool
}

// For returns the scope of an operation running as tc.
func (r *Registry) For(tc tenant.Context) Scope {
	return Scope{registry: r, tenant: tc}
}

// IgnoreTenantFilter returns a scope that sees the rows of every tenant.
// It is reserved for maintenance, migration and seeding code: it fails with
// ErrBypassFromCaller when ctx belongs to a caller-facing operation. Every
// successful call is audited with its reason.
func (r *Registry) IgnoreTenantFilter(ctx context.Context, reason string) (Scope, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Scope{}, ErrBypassReason
	}
	if tc, ok := tenant.FromContext(ctx); ok {
		r.audit.Log(ctx, audit.Event{
			Type:     audit.TypeTenantMismatch,
			TenantID: tc.String(),
			Resource: "tenant_filter",
			Metadata: map[string]any{"reason": reason, "refused": true},
		})
		return Scope{}, ErrBypassFromCaller
	}

	r.audit.Log(ctx, audit.Event{
		Type:     audit.TypeTenantFilterBypass,
		Resource: "tenant_filter",
		Metadata: map[string]any{"reason": reason},
	})
	return Scope{registry: r, bypass: true}, nil
}

// RunUnscoped runs fn with a bypass scope.
func RunUnscoped[T any](ctx context.Context, r *Registry, reason string, fn func(ctx context.Context, s Scope) (T, error)) (T, error) {
	s, err := r.IgnoreTenantFilter(ctx, reason)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx, s)
}

// Tenant returns the tenant the scope filters by.
func (s Scope) Tenant() tenant.Context {
	return s.tenant
}

// Bypassed reports whether the scope was created by IgnoreTenantFilter.
func (s Scope) Bypassed() bool {
	return s.bypass
}

// Predicate returns the tenant predicate of table, or nil when the table is
// not filtered (exempt table or bypass scope). Without a tenant the
// predicate matches nothing.
func (s Scope) Predicate(table string) (*sql.Predicate, error) {
	if s.registry == nil {
		return nil, ErrUnregisteredEntity
	}
	if s.registry.IsExempt(table) {
		return nil, nil
	}
	p, ok := s.registry.Policy(table)
	if !ok {
		return nil, ErrUnregisteredEntity
	}
	if s.bypass {
		return nil, nil
	}
	org, ok := s.tenant.OrganizationID()
	if !ok {
		return sql.False(), nil
	}
	return p.Predicate(org), nil
}

// Apply adds the tenant predicate of table to sel. Predicates already on
// sel are kept and AND-ed with it.
func (s Scope) Apply(sel *sql.Selector, table string) error {
	p, err := s.Predicate(table)
	if err != nil {
		return err
	}
	if p != nil {
		sel.Where(p)
	}
	return nil
}
