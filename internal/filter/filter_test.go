package filter

import (
	"context"
	"testing"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newTestRegistry(t *testing.T, auditLogger audit.Logger) *Registry {
	t.Helper()
	r := NewRegistry(auditLogger)
	require.NoError(t, r.Exempt("organizations"))
	require.NoError(t, r.Register("customers", Owned))
	require.NoError(t, r.Register("job_cards", Owned))
	require.NoError(t, r.Register("job_items", Through("job_card_id", "job_cards", Owned)))
	require.NoError(t, r.Register("labor_entries", Through("job_item_id", "job_items", Through("job_card_id", "job_cards", Owned))))
	r.Seal()
	return r
}

func selectFrom(table string) *sql.Selector {
	return sql.Dialect(dialect.Postgres).Select("id").From(sql.Table(table))
}

// TestPurpose: Validates that a tenant scope restricts directly owned tables to the tenant's rows.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: The query carries an organization_id equality bound to the tenant.
// Test Case ID: FLT-01
func TestScope_Apply_OwnedTable(t *testing.T) {
	r := newTestRegistry(t, nil)
	org := uuid.New()

	sel := selectFrom("customers")
	require.NoError(t, r.For(tenant.Of(org)).Apply(sel, "customers"))

	query, args := sel.Query()
	assert.Contains(t, query, `"organization_id" = $1`)
	assert.Equal(t, []any{org}, args)
}

// TestPurpose: Validates that the tenant predicate is AND-ed with caller predicates rather than replacing them.
// Scope: Unit Test
// Security: Filter composition
// Expected: Both predicates are present, joined by AND, with the caller's argument first.
// Test Case ID: FLT-02
func TestScope_Apply_ComposesWithCallerPredicate(t *testing.T) {
	r := newTestRegistry(t, nil)
	org := uuid.New()

	sel := selectFrom("customers").Where(sql.EQ("last_name", "Haddad"))
	require.NoError(t, r.For(tenant.Of(org)).Apply(sel, "customers"))

	query, args := sel.Query()
	assert.Contains(t, query, `"last_name" = $1 AND "organization_id" = $2`)
	assert.Equal(t, []any{"Haddad", org}, args)
}

// TestPurpose: Validates that child tables without an organization column are filtered through their parent chain.
// Scope: Unit Test
// Security: Tenant isolation across relationship navigation
// Expected: The query nests sub-selects down to the owning table's organization_id.
// Test Case ID: FLT-03
func TestScope_Apply_ThroughParentChain(t *testing.T) {
	r := newTestRegistry(t, nil)
	org := uuid.New()

	sel := selectFrom("labor_entries")
	require.NoError(t, r.For(tenant.Of(org)).Apply(sel, "labor_entries"))

	query, args := sel.Query()
	assert.Contains(t, query, `"job_item_id" IN (SELECT "id" FROM "job_items" WHERE "job_card_id" IN (SELECT "id" FROM "job_cards" WHERE "organization_id" = $1))`)
	assert.Equal(t, []any{org}, args)
}

// TestPurpose: Validates fail-closed behavior when the operation has no tenant.
// Scope: Unit Test
// Security: Absent context must never widen visibility
// Expected: The predicate is FALSE with no arguments.
// Test Case ID: FLT-04
func TestScope_Apply_NoTenantIsFailClosed(t *testing.T) {
	r := newTestRegistry(t, nil)

	for _, table := range []string{"customers", "job_items"} {
		sel := selectFrom(table)
		require.NoError(t, r.For(tenant.None()).Apply(sel, table))
		query, args := sel.Query()
		assert.Contains(t, query, "FALSE", table)
		assert.Empty(t, args, table)
	}
}

// TestPurpose: Validates that exempt tables are never filtered and unknown tables are refused.
// Scope: Unit Test
// Expected: Organizations get no predicate; an unregistered table yields ErrUnregisteredEntity.
// Test Case ID: FLT-05
func TestScope_Predicate_ExemptAndUnregistered(t *testing.T) {
	r := newTestRegistry(t, nil)
	s := r.For(tenant.None())

	p, err := s.Predicate("organizations")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = s.Predicate("invoices")
	assert.ErrorIs(t, err, ErrUnregisteredEntity)

	_, err = Scope{}.Predicate("customers")
	assert.ErrorIs(t, err, ErrUnregisteredEntity)
}

// TestPurpose: Validates that the bypass scope drops the tenant predicate and is audited.
// Scope: Unit Test
// Security: Auditable privileged access
// Expected: No predicate is added and one bypass audit event carries the reason.
// Test Case ID: FLT-06
func TestIgnoreTenantFilter_SystemPath(t *testing.T) {
	auditLogger := new(mockAudit)
	r := newTestRegistry(t, auditLogger)
	ctx := context.Background()

	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeTenantFilterBypass && e.Metadata["reason"] == "seed demo data"
	})).Return().Once()

	s, err := r.IgnoreTenantFilter(ctx, "seed demo data")
	require.NoError(t, err)
	assert.True(t, s.Bypassed())

	sel := selectFrom("job_items")
	require.NoError(t, s.Apply(sel, "job_items"))
	query, args := sel.Query()
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)

	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that the bypass cannot be reached from a caller-facing operation.
// Scope: Unit Test
// Security: Privilege boundary (CWE-284)
// Expected: ErrBypassFromCaller is returned and the refusal is audited.
// Test Case ID: FLT-07
func TestIgnoreTenantFilter_RefusedForCallers(t *testing.T) {
	auditLogger := new(mockAudit)
	r := newTestRegistry(t, auditLogger)
	ctx := tenant.WithOperation(context.Background(), tenant.Of(uuid.New()))

	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeTenantMismatch
	})).Return().Once()

	_, err := r.IgnoreTenantFilter(ctx, "export")
	assert.ErrorIs(t, err, ErrBypassFromCaller)

	_, err = RunUnscoped(ctx, r, "export", func(context.Context, Scope) (int, error) {
		t.Fatal("must not run")
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrBypassFromCaller)

	_, err = r.IgnoreTenantFilter(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrBypassReason)
}

// TestPurpose: Validates registry configuration rules.
// Scope: Unit Test
// Expected: Duplicate, conflicting and post-seal registrations are rejected.
// Test Case ID: FLT-08
func TestRegistry_Registration(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("customers", Owned))
	assert.Error(t, r.Register("customers", Owned))
	assert.Error(t, r.Register("cars", nil))
	require.NoError(t, r.Exempt("organizations"))
	assert.Error(t, r.Register("organizations", Owned))
	assert.Error(t, r.Exempt("customers"))

	r.Seal()
	assert.ErrorIs(t, r.Register("cars", Owned), ErrRegistrySealed)
	assert.ErrorIs(t, r.Exempt("users"), ErrRegistrySealed)
	assert.Equal(t, []string{"customers"}, r.Tables())
}
