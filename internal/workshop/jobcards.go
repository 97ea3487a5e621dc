package workshop

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/shopspring/decimal"
)

// GetJobCard returns a job card visible to scope.
func (r *Repository) GetJobCard(ctx context.Context, scope filter.Scope, id uuid.UUID) (*JobCard, error) {
	return get[JobCard](ctx, r.db, scope, TableJobCards, JobCardColumns, id)
}

// ListJobCards lists the job cards visible to scope, newest first.
func (r *Repository) ListJobCards(ctx context.Context, scope filter.Scope, opts ListOptions) ([]JobCard, error) {
	cards, err := list[JobCard](ctx, r.db, scope, TableJobCards, JobCardColumns, opts,
		[]string{sql.Desc("created_at"), sql.Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("failed to list job cards: %w", err)
	}
	return cards, nil
}

// CreateJobCard opens a job card for one of the scope's cars, optionally
// attached to one of its sessions.
func (r *Repository) CreateJobCard(ctx context.Context, scope filter.Scope, j *JobCard) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	car, err := r.GetCar(ctx, scope, j.CarID)
	if err != nil {
		return fmt.Errorf("job card car: %w", err)
	}
	if j.SessionID.Valid {
		s, err := get[Session](ctx, r.db, scope, TableSessions, SessionColumns, j.SessionID.UUID)
		if err != nil {
			return fmt.Errorf("job card session: %w", err)
		}
		if s.CarID != car.ID {
			return fmt.Errorf("%w: session belongs to another car", store.ErrInvalidInput)
		}
	}
	if j.ID, err = newID(j.ID); err != nil {
		return err
	}
	if j.Status == "" {
		j.Status = StatusPending
	}
	j.OrganizationID = org
	j.CustomerID = car.CustomerID
	j.CreatedAt = r.stamp(j.CreatedAt)
	j.UpdatedAt = j.CreatedAt

	if err := r.insert(ctx, TableJobCards, JobCardColumns,
		j.ID, j.OrganizationID, j.SessionID, j.CarID, j.CustomerID, j.Status,
		j.TotalEstimatedCost, j.TotalActualCost, j.CreatedAt, j.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create job card: %w", err)
	}
	return nil
}

// SetJobCardStatus changes the status of a visible job card. Completing a
// card records its actual cost.
func (r *Repository) SetJobCardStatus(ctx context.Context, scope filter.Scope, id uuid.UUID, status string, actualCost decimal.Decimal) error {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown job card status %q", store.ErrInvalidInput, status)
	}
	return r.update(ctx, scope, TableJobCards, id, func(u *sql.UpdateBuilder) {
		u.Set("status", status).Set("updated_at", r.now().UTC())
		if status == StatusCompleted {
			u.Set("total_actual_cost", actualCost)
		}
	})
}

// GetJobItem returns a job item visible to scope.
func (r *Repository) GetJobItem(ctx context.Context, scope filter.Scope, id uuid.UUID) (*JobItem, error) {
	return get[JobItem](ctx, r.db, scope, TableJobItems, JobItemColumns, id)
}

// CreateJobItem adds an item to one of the scope's job cards.
func (r *Repository) CreateJobItem(ctx context.Context, scope filter.Scope, it *JobItem) error {
	if _, err := r.GetJobCard(ctx, scope, it.JobCardID); err != nil {
		return fmt.Errorf("job item card: %w", err)
	}
	it.Description = strings.TrimSpace(it.Description)
	if it.Description == "" {
		return fmt.Errorf("%w: job item description is required", store.ErrInvalidInput)
	}
	var err error
	if it.ID, err = newID(it.ID); err != nil {
		return err
	}
	if it.Status == "" {
		it.Status = StatusPending
	}
	it.CreatedAt = r.stamp(it.CreatedAt)
	it.UpdatedAt = it.CreatedAt

	if err := r.insert(ctx, TableJobItems, JobItemColumns,
		it.ID, it.JobCardID, it.Description, it.Status, it.EstimatedCost, it.ActualCost, it.CreatedAt, it.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create job item: %w", err)
	}
	return nil
}

// GetInventoryItem returns an inventory item visible to scope.
func (r *Repository) GetInventoryItem(ctx context.Context, scope filter.Scope, id uuid.UUID) (*InventoryItem, error) {
	return get[InventoryItem](ctx, r.db, scope, TableInventoryItems, InventoryItemColumns, id)
}

// CreateInventoryItem stocks a part under the scope's tenant.
func (r *Repository) CreateInventoryItem(ctx context.Context, scope filter.Scope, it *InventoryItem) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	if it.ID, err = newID(it.ID); err != nil {
		return err
	}
	if it.UnitOfMeasure == "" {
		it.UnitOfMeasure = "piece"
	}
	it.OrganizationID = org
	it.IsActive = true
	it.CreatedAt = r.stamp(it.CreatedAt)

	if err := r.insert(ctx, TableInventoryItems, InventoryItemColumns,
		it.ID, it.OrganizationID, it.PartNumber, it.Name, it.UnitOfMeasure,
		it.QuantityInStock, it.CostPrice, it.SellingPrice, it.IsActive, it.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// AddPart records a part used by one of the scope's job items.
func (r *Repository) AddPart(ctx context.Context, scope filter.Scope, p *JobItemPart) error {
	if _, err := r.GetJobItem(ctx, scope, p.JobItemID); err != nil {
		return fmt.Errorf("part job item: %w", err)
	}
	if _, err := r.GetInventoryItem(ctx, scope, p.InventoryItemID); err != nil {
		return fmt.Errorf("part inventory item: %w", err)
	}
	if !p.Quantity.IsPositive() {
		return fmt.Errorf("%w: part quantity must be positive", store.ErrInvalidInput)
	}
	var err error
	if p.ID, err = newID(p.ID); err != nil {
		return err
	}
	p.CreatedAt = r.stamp(p.CreatedAt)

	if err := r.insert(ctx, TableJobItemParts, JobItemPartColumns,
		p.ID, p.JobItemID, p.InventoryItemID, p.Quantity, p.UnitPrice, p.Discount, p.IsActual, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add part: %w", err)
	}
	return nil
}

// AddLabor records work by one of the scope's technicians on one of its
// job items.
func (r *Repository) AddLabor(ctx context.Context, scope filter.Scope, l *LaborEntry) error {
	if _, err := r.GetJobItem(ctx, scope, l.JobItemID); err != nil {
		return fmt.Errorf("labor job item: %w", err)
	}
	if _, err := r.GetUser(ctx, scope, l.TechnicianID); err != nil {
		return fmt.Errorf("labor technician: %w", err)
	}
	var err error
	if l.ID, err = newID(l.ID); err != nil {
		return err
	}
	l.StartTime = l.StartTime.UTC()
	if l.EndTime != nil {
		end := l.EndTime.UTC()
		if end.Before(l.StartTime) {
			return fmt.Errorf("%w: labor ends before it starts", store.ErrInvalidInput)
		}
		l.EndTime = &end
	}
	l.CreatedAt = r.stamp(l.CreatedAt)

	if err := r.insert(ctx, TableLaborEntries, LaborEntryColumns,
		l.ID, l.JobItemID, l.TechnicianID, l.StartTime, l.EndTime,
		l.HoursWorked, l.HourlyRate, l.IsActual, l.IsBillable, l.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add labor: %w", err)
	}
	return nil
}
