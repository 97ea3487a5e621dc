package store

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
)

const tableOrganizations = "organizations"

var organizationColumns = []string{"id", "name", "is_active", "created_at"}

// OrganizationRepository implements tenant.Repository. Organizations are
// never tenant filtered.
type OrganizationRepository struct {
	db Handler
}

var _ tenant.Repository = (*OrganizationRepository)(nil)

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db Handler) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *tenant.Organization) error {
	ins := Insert(r.db, tableOrganizations).
		Columns(organizationColumns...).
		Values(org.ID, org.Name, org.IsActive, org.CreatedAt)
	if _, err := Exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Organization, error) {
	sel := From(r.db, tableOrganizations, organizationColumns...).Where(sql.EQ("id", id))
	org, err := One[tenant.Organization](ctx, r.db, sel)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, tenant.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// List lists organizations ordered by creation time
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Organization, error) {
	sel := From(r.db, tableOrganizations, organizationColumns...).
		OrderBy(sql.Asc("created_at"), sql.Asc("id")).
		Limit(limit).
		Offset(offset)
	orgs, err := All[tenant.Organization](ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	out := make([]*tenant.Organization, len(orgs))
	for i := range orgs {
		out[i] = &orgs[i]
	}
	return out, nil
}
