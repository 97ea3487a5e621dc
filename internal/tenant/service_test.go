package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, org *Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Organization, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Organization), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates that organization creation generates UUIDv7 identifiers and records an audit event.
// Scope: Unit Test
// Security: Traceability of tenant creation
// Expected: The organization is persisted active, with a version 7 id, and audited once.
// Test Case ID: ORG-01
func TestService_CreateOrganization_UUIDv7(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service, err := NewService(repo, auditLogger, 0)
	require.NoError(t, err)

	ctx := context.Background()
	repo.On("Create", ctx, mock.MatchedBy(func(o *Organization) bool {
		return o.ID.Version() == 7 && o.Name == "Gixat Motors" && o.IsActive
	})).Return(nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeOrganizationCreated
	})).Return()

	org, err := service.CreateOrganization(ctx, "  Gixat Motors ")
	require.NoError(t, err)
	assert.Equal(t, "Gixat Motors", org.Name)

	repo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that blank organization names are rejected before reaching storage.
// Scope: Unit Test
// Expected: An error is returned and the repository is not called.
// Test Case ID: ORG-02
func TestService_CreateOrganization_RequiresName(t *testing.T) {
	repo := new(mockRepo)
	service, err := NewService(repo, new(mockAudit), 0)
	require.NoError(t, err)

	_, err = service.CreateOrganization(context.Background(), "   ")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that organization reads are served from the cache after the first lookup.
// Scope: Unit Test
// Expected: The repository is queried exactly once for repeated reads of the same id.
// Test Case ID: ORG-03
func TestService_GetOrganization_Cached(t *testing.T) {
	repo := new(mockRepo)
	service, err := NewService(repo, new(mockAudit), 8)
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&Organization{ID: id, Name: "A"}, nil).Once()

	for range 3 {
		org, err := service.GetOrganization(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, org.ID)
	}
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

// TestPurpose: Validates that lookup failures are not cached.
// Scope: Unit Test
// Expected: A not-found error is returned and a later lookup queries the repository again.
// Test Case ID: ORG-04
func TestService_GetOrganization_NotFoundNotCached(t *testing.T) {
	repo := new(mockRepo)
	service, err := NewService(repo, new(mockAudit), 8)
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, ErrOrganizationNotFound)

	_, err = service.GetOrganization(ctx, id)
	assert.True(t, errors.Is(err, ErrOrganizationNotFound))
	_, err = service.GetOrganization(ctx, id)
	assert.True(t, errors.Is(err, ErrOrganizationNotFound))
	repo.AssertNumberOfCalls(t, "GetByID", 2)
}

// TestPurpose: Validates that the current organization cannot be derived without a tenant.
// Scope: Unit Test
// Security: No implicit tenant for unbound callers
// Expected: ErrNoTenant is returned without touching storage.
// Test Case ID: ORG-05
func TestService_Current_RequiresTenant(t *testing.T) {
	repo := new(mockRepo)
	service, err := NewService(repo, new(mockAudit), 8)
	require.NoError(t, err)

	_, err = service.Current(context.Background(), None())
	assert.ErrorIs(t, err, ErrNoTenant)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that callers cannot alter cached organizations.
// Scope: Unit Test
// Expected: Mutating a returned organization does not change what later reads return.
// Test Case ID: ORG-06
func TestService_GetOrganization_ReturnsCopies(t *testing.T) {
	repo := new(mockRepo)
	service, err := NewService(repo, new(mockAudit), 8)
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&Organization{ID: id, Name: "Original", IsActive: true}, nil).Once()

	first, err := service.GetOrganization(ctx, id)
	require.NoError(t, err)
	first.Name = "Changed"
	first.IsActive = false

	second, err := service.GetOrganization(ctx, id)
	require.NoError(t, err)
	second.Name = "Changed again"

	third, err := service.Current(ctx, Of(id))
	require.NoError(t, err)
	assert.Equal(t, "Original", third.Name)
	assert.True(t, third.IsActive)
	assert.NotSame(t, second, third)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}
