package resolve

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CustomerOverview is a customer with vehicles, work and activity.
type CustomerOverview struct {
	workshop.Customer
	Cars         []CarNode              `json:"cars"`
	JobCards     []workshop.JobCard     `json:"job_cards"`
	Appointments []workshop.Appointment `json:"appointments"`
	Activity     Activity               `json:"activity"`
}

// CarNode is a car with its sessions, newest first.
type CarNode struct {
	workshop.Car
	Sessions []workshop.Session `json:"sessions"`
}

// Activity summarizes a customer's history.
type Activity struct {
	LastSessionAt *time.Time      `json:"last_session_at,omitempty"`
	VisitCount    int             `json:"visit_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	ActiveJobs    int             `json:"active_jobs"`
	CarCount      int             `json:"car_count"`
}

// Customer resolves the overview of a customer visible to scope.
func (r *Resolver) Customer(ctx context.Context, scope filter.Scope, id uuid.UUID) (*CustomerOverview, error) {
	c, err := r.repo.GetCustomer(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	out, err := r.Customers(ctx, []workshop.Customer{*c})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Customers resolves the overviews of customers, which must have been read
// through a tenant scope. Each relationship costs one query for the whole
// page.
func (r *Resolver) Customers(ctx context.Context, customers []workshop.Customer) ([]CustomerOverview, error) {
	set, err := loadersOf(ctx)
	if err != nil {
		return nil, err
	}
	ids := lo.Map(customers, func(c workshop.Customer, _ int) uuid.UUID { return c.ID })

	var (
		cars         map[uuid.UUID][]workshop.Car
		cards        map[uuid.UUID][]workshop.JobCard
		appointments map[uuid.UUID][]workshop.Appointment
		lastSession  map[uuid.UUID]store.NullTime
		visits       map[uuid.UUID]int
		spent        map[uuid.UUID]decimal.Decimal
		active       map[uuid.UUID]int
		carCount     map[uuid.UUID]int
	)
	err = set.Fork(ctx,
		func(ctx context.Context) (err error) {
			cars, err = set.CarsByCustomer.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			cards, err = set.JobCardsByCustomer.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			appointments, err = set.AppointmentsByCustomer.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			lastSession, err = set.LastSessionAt.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			visits, err = set.VisitCount.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			spent, err = set.TotalSpent.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			active, err = set.ActiveJobCount.LoadMany(ctx, ids)
			return err
		},
		func(ctx context.Context) (err error) {
			carCount, err = set.CarCount.LoadMany(ctx, ids)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	var carIDs []uuid.UUID
	for _, id := range ids {
		for _, c := range cars[id] {
			carIDs = append(carIDs, c.ID)
		}
	}
	sessions, err := set.SessionsByCar.LoadMany(ctx, carIDs)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerOverview, 0, len(customers))
	for _, c := range customers {
		ov := CustomerOverview{
			Customer:     c,
			Cars:         make([]CarNode, 0, len(cars[c.ID])),
			JobCards:     cards[c.ID],
			Appointments: appointments[c.ID],
			Activity: Activity{
				LastSessionAt: lastSession[c.ID].Ptr(),
				VisitCount:    visits[c.ID],
				TotalSpent:    spent[c.ID],
				ActiveJobs:    active[c.ID],
				CarCount:      carCount[c.ID],
			},
		}
		for _, car := range cars[c.ID] {
			ov.Cars = append(ov.Cars, CarNode{Car: car, Sessions: sessions[car.ID]})
		}
		out = append(out, ov)
	}
	return out, nil
}
