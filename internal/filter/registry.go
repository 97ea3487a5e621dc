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
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/husainf4l/gixat2-sub001/internal/audit"
)

var (
	ErrUnregisteredEntity = errors.New("filter: entity has no tenant policy")
	ErrRegistrySealed     = errors.New("filter: registry is sealed")
	ErrBypassFromCaller   = errors.New("filter: tenant filter bypass inside a caller-facing operation")
	ErrBypassReason       = errors.New("filter: tenant filter bypass requires a reason")
)

// Registry maps tables to their tenant policies. It is filled once at
// startup and sealed before the first query.
type Registry struct {
	mu       sync.RWMutex
	sealed   bool
	policies map[string]Policy
	exempt   map[string]struct{}
	audit    audit.Logger
}

// NewRegistry creates an empty registry. Bypass usage is reported to
// auditLogger.
func NewRegistry(auditLogger audit.Logger) *Registry {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Registry{
		policies: make(map[string]Policy),
		exempt:   make(map[string]struct{}),
		audit:    auditLogger,
	}
}

// Register installs the policy of a tenant-owned table.
func (r *Registry) Register(table string, p Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if p == nil {
		return fmt.Errorf("filter: nil policy for %q", table)
	}
	if _, ok := r.exempt[table]; ok {
		return fmt.Errorf("filter: %q is exempt", table)
	}
	if _, ok := r.policies[table]; ok {
		return fmt.Errorf("filter: %q registered twice", table)
	}
	r.policies[table] = p
	return nil
}

// Exempt marks a table as visible without tenant filtering.
func (r *Registry) Exempt(table string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if _, ok := r.policies[table]; ok {
		return fmt.Errorf("filter: %q already has a policy", table)
	}
	r.exempt[table] = struct{}{}
	return nil
}

// Seal prevents further registrations.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Policy returns the policy of table.
func (r *Registry) Policy(table string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[table]
	return p, ok
}

// IsExempt reports whether table is exempt from tenant filtering.
func (r *Registry) IsExempt(table string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.exempt[table]
	return ok
}

// Tables returns the registered tenant-owned tables in name order.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]string, 0, len(r.policies))
	for t := range r.policies {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}
