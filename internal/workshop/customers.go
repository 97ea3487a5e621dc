package workshop

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
)

// CustomerFilter narrows ListCustomers.
type CustomerFilter struct {
	ListOptions

	// Search matches first name, last name or phone number, case-insensitively.
	Search string
}

// ListCustomers lists the customers visible to scope, newest first.
func (r *Repository) ListCustomers(ctx context.Context, scope filter.Scope, f CustomerFilter) ([]Customer, error) {
	var preds []*sql.Predicate
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, sql.Or(
			sql.ContainsFold("first_name", s),
			sql.ContainsFold("last_name", s),
			sql.Contains("phone_number", s),
		))
	}
	customers, err := list[Customer](ctx, r.db, scope, TableCustomers, CustomerColumns, f.ListOptions,
		[]string{sql.Desc("created_at"), sql.Asc("id")}, preds...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// GetCustomer returns a customer visible to scope.
func (r *Repository) GetCustomer(ctx context.Context, scope filter.Scope, id uuid.UUID) (*Customer, error) {
	return get[Customer](ctx, r.db, scope, TableCustomers, CustomerColumns, id)
}

// CreateCustomer stores c under the scope's tenant.
func (r *Repository) CreateCustomer(ctx context.Context, scope filter.Scope, c *Customer) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	if c.FirstName == "" || c.LastName == "" {
		return fmt.Errorf("%w: customer name is required", store.ErrInvalidInput)
	}
	if c.ID, err = newID(c.ID); err != nil {
		return err
	}
	c.OrganizationID = org
	c.CreatedAt = r.stamp(c.CreatedAt)
	c.UpdatedAt = c.CreatedAt

	if err := r.insert(ctx, TableCustomers, CustomerColumns,
		c.ID, c.OrganizationID, c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// UpdateCustomerContact changes the contact details of a visible customer.
func (r *Repository) UpdateCustomerContact(ctx context.Context, scope filter.Scope, id uuid.UUID, email *string, phone string) error {
	return r.update(ctx, scope, TableCustomers, id, func(u *sql.UpdateBuilder) {
		u.Set("email", email).
			Set("phone_number", phone).
			Set("updated_at", r.now().UTC())
	})
}

// GetCar returns a car visible to scope.
func (r *Repository) GetCar(ctx context.Context, scope filter.Scope, id uuid.UUID) (*Car, error) {
	return get[Car](ctx, r.db, scope, TableCars, CarColumns, id)
}

// CreateCar stores c for one of the scope's customers.
func (r *Repository) CreateCar(ctx context.Context, scope filter.Scope, c *Car) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	if _, err := r.GetCustomer(ctx, scope, c.CustomerID); err != nil {
		return fmt.Errorf("car owner: %w", err)
	}
	if c.ID, err = newID(c.ID); err != nil {
		return err
	}
	c.OrganizationID = org
	c.CreatedAt = r.stamp(c.CreatedAt)
	c.UpdatedAt = c.CreatedAt

	if err := r.insert(ctx, TableCars, CarColumns,
		c.ID, c.OrganizationID, c.CustomerID, c.Make, c.Model, c.Year, c.LicensePlate, c.VIN, c.Color, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

// CreateSession opens a session for one of the scope's cars.
func (r *Repository) CreateSession(ctx context.Context, scope filter.Scope, s *Session) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	car, err := r.GetCar(ctx, scope, s.CarID)
	if err != nil {
		return fmt.Errorf("session car: %w", err)
	}
	if s.ID, err = newID(s.ID); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = SessionIntake
	}
	s.OrganizationID = org
	s.CustomerID = car.CustomerID
	s.CreatedAt = r.stamp(s.CreatedAt)
	s.UpdatedAt = s.CreatedAt

	if err := r.insert(ctx, TableSessions, SessionColumns,
		s.ID, s.OrganizationID, s.CarID, s.CustomerID, s.Status, s.IntakeNotes, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// CreateAppointment books a visit for one of the scope's cars.
func (r *Repository) CreateAppointment(ctx context.Context, scope filter.Scope, a *Appointment) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	if !a.ScheduledEnd.After(a.ScheduledStart) {
		return fmt.Errorf("%w: appointment must end after it starts", store.ErrInvalidInput)
	}
	car, err := r.GetCar(ctx, scope, a.CarID)
	if err != nil {
		return fmt.Errorf("appointment car: %w", err)
	}
	if a.ID, err = newID(a.ID); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	a.OrganizationID = org
	a.CustomerID = car.CustomerID
	a.ScheduledStart = a.ScheduledStart.UTC()
	a.ScheduledEnd = a.ScheduledEnd.UTC()
	a.CreatedAt = r.stamp(a.CreatedAt)

	if err := r.insert(ctx, TableAppointments, AppointmentColumns,
		a.ID, a.OrganizationID, a.CustomerID, a.CarID, a.ScheduledStart, a.ScheduledEnd, a.Status, a.ServiceRequested, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}
