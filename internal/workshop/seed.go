package workshop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/shopspring/decimal"
)

// SeedResult reports what Seed did.
type SeedResult struct {
	OrganizationID uuid.UUID
	Skipped        bool
	Existing       int
}

// Seeder creates a demo organization with a small workshop history.
type Seeder struct {
	db          *store.DB
	registry    *filter.Registry
	auditLogger audit.Logger
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *store.DB, registry *filter.Registry, auditLogger audit.Logger) *Seeder {
	return &Seeder{db: db, registry: registry, auditLogger: auditLogger}
}

// Seed creates the demo data unless any customer exists in any tenant.
// Everything is written in one transaction.
func (s *Seeder) Seed(ctx context.Context, orgName string) (SeedResult, error) {
	existing, err := filter.RunUnscoped(ctx, s.registry, "seed: check for existing data",
		func(ctx context.Context, scope filter.Scope) (int, error) {
			return NewRepository(s.db).Count(ctx, scope, TableCustomers)
		})
	if err != nil {
		return SeedResult{}, err
	}
	if existing > 0 {
		return SeedResult{Skipped: true, Existing: existing}, nil
	}

	var result SeedResult
	err = s.db.TransactionContext(ctx, func(tx *store.Tx) error {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		org := &tenant.Organization{ID: id, Name: orgName, IsActive: true, CreatedAt: time.Now().UTC()}
		if err := store.NewOrganizationRepository(tx).Create(ctx, org); err != nil {
			return err
		}
		result.OrganizationID = org.ID

		return seedWorkshop(ctx, NewRepository(tx), s.registry.For(tenant.Of(org.ID)))
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSeedCompleted,
		TenantID: result.OrganizationID.String(),
		Resource: orgName,
	})
	return result, nil
}

func seedWorkshop(ctx context.Context, repo *Repository, scope filter.Scope) error {
	org, _ := scope.Tenant().OrganizationID()
	tech := &User{
		OrganizationID: uuid.NullUUID{UUID: org, Valid: true},
		Email:          "technician@example.com",
		FullName:       "Sami Technician",
		IsActive:       true,
	}
	if err := repo.CreateUser(ctx, scope, tech); err != nil {
		return err
	}
	if err := repo.CreateInvite(ctx, scope, &Invite{Email: "advisor@example.com", Role: "advisor"}); err != nil {
		return err
	}

	oilFilter := &InventoryItem{
		PartNumber:      "OF-100",
		Name:            "Oil filter",
		QuantityInStock: decimal.NewFromInt(40),
		CostPrice:       decimal.RequireFromString("4.50"),
		SellingPrice:    decimal.RequireFromString("9.00"),
	}
	if err := repo.CreateInventoryItem(ctx, scope, oilFilter); err != nil {
		return err
	}

	people := []struct {
		first, last, phone, make, model, plate string
		year                                   int
	}{
		{"Lina", "Haddad", "+962790000001", "Toyota", "Corolla", "12-34567", 2019},
		{"Omar", "Saleh", "+962790000002", "Hyundai", "Elantra", "22-11223", 2021},
		{"Rana", "Aziz", "+962790000003", "Kia", "Sportage", "31-99881", 2017},
	}

	start := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Hour)
	for i, p := range people {
		cust := &Customer{FirstName: p.first, LastName: p.last, PhoneNumber: p.phone}
		if err := repo.CreateCustomer(ctx, scope, cust); err != nil {
			return err
		}
		car := &Car{CustomerID: cust.ID, Make: p.make, Model: p.model, Year: p.year, LicensePlate: p.plate}
		if err := repo.CreateCar(ctx, scope, car); err != nil {
			return err
		}
		sess := &Session{CarID: car.ID, Status: SessionJobCardCreated}
		if err := repo.CreateSession(ctx, scope, sess); err != nil {
			return err
		}
		card := &JobCard{
			CarID:              car.ID,
			SessionID:          uuid.NullUUID{UUID: sess.ID, Valid: true},
			TotalEstimatedCost: decimal.NewFromInt(60),
		}
		if err := repo.CreateJobCard(ctx, scope, card); err != nil {
			return err
		}
		item := &JobItem{JobCardID: card.ID, Description: "Oil and filter change", EstimatedCost: decimal.NewFromInt(60)}
		if err := repo.CreateJobItem(ctx, scope, item); err != nil {
			return err
		}
		part := &JobItemPart{
			JobItemID:       item.ID,
			InventoryItemID: oilFilter.ID,
			Quantity:        decimal.NewFromInt(1),
			UnitPrice:       oilFilter.SellingPrice,
			IsActual:        true,
		}
		if err := repo.AddPart(ctx, scope, part); err != nil {
			return err
		}
		began := start.Add(time.Duration(i) * 24 * time.Hour)
		ended := began.Add(90 * time.Minute)
		labor := &LaborEntry{
			JobItemID:    item.ID,
			TechnicianID: tech.ID,
			StartTime:    began,
			EndTime:      &ended,
			HoursWorked:  decimal.RequireFromString("1.5"),
			HourlyRate:   decimal.NewFromInt(30),
			IsActual:     true,
			IsBillable:   true,
		}
		if err := repo.AddLabor(ctx, scope, labor); err != nil {
			return err
		}
		comment := &Comment{JobCardID: card.ID, AuthorID: tech.ID, Content: "Vehicle received."}
		if err := repo.AddComment(ctx, scope, comment); err != nil {
			return err
		}
		if i == 0 {
			total := part.FinalCost().Add(labor.TotalCost())
			if err := repo.SetJobCardStatus(ctx, scope, card.ID, StatusCompleted, total); err != nil {
				return err
			}
		}

		next := time.Now().UTC().Add(time.Duration(i+1) * 24 * time.Hour).Truncate(time.Hour)
		appt := &Appointment{CarID: car.ID, ScheduledStart: next, ScheduledEnd: next.Add(time.Hour)}
		if err := repo.CreateAppointment(ctx, scope, appt); err != nil {
			return err
		}
	}
	return nil
}
