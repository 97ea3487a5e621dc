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

// Package filter restricts queries over tenant-owned tables to the rows of
// one organization.
//
// Every tenant-owned table is registered once at startup with a Policy that
// builds its tenant predicate. Queries obtain a Scope for the operation's
// tenant and apply it to their selectors, updates and deletes. A Scope
// without a tenant matches no rows. The only way to read across tenants is
// Registry.IgnoreTenantFilter, which is audited and refused inside
// caller-facing operations.
package filter

import (
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// ColumnOrganizationID is the tenant column of directly owned tables.
const ColumnOrganizationID = "organization_id"

// Policy builds the predicate that restricts a table to one organization.
// Columns are left unqualified so the predicate can be used in selectors,
// updates and deletes alike.
type Policy interface {
	Predicate(org uuid.UUID) *sql.Predicate
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(org uuid.UUID) *sql.Predicate

// Predicate implements Policy.
func (f PolicyFunc) Predicate(org uuid.UUID) *sql.Predicate {
	return f(org)
}

// OwnedBy is the policy of a table carrying its own organization column.
type OwnedBy string

// Predicate implements Policy.
func (c OwnedBy) Predicate(org uuid.UUID) *sql.Predicate {
	return sql.EQ(string(c), org)
}

// Owned is the policy of tables with an organization_id column.
var Owned Policy = OwnedBy(ColumnOrganizationID)

type through struct {
	fk     string
	parent string
	policy Policy
}

// Through is the policy of a child table without an organization column.
// A row is visible when the parent row it references through fk is visible
// under the parent's policy.
func Through(fk, parentTable string, parent Policy) Policy {
	return through{fk: fk, parent: parentTable, policy: parent}
}

func (t through) Predicate(org uuid.UUID) *sql.Predicate {
	parent := sql.Select("id").
		From(sql.Table(t.parent)).
		Where(t.policy.Predicate(org))
	return sql.In(t.fk, parent)
}
