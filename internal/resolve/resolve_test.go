package resolve_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/loaders"
	"github.com/husainf4l/gixat2-sub001/internal/resolve"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/store/storetest"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	db       *store.DB
	repo     *workshop.Repository
	resolver *resolve.Resolver
	registry *filter.Registry
	scope    filter.Scope
	org      uuid.UUID
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := storetest.OpenSQLite(t)
	registry, err := workshop.NewRegistry(audit.Nop{})
	require.NoError(t, err)

	clock := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	repo := workshop.NewRepository(db).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	org := storetest.CreateOrganization(t, db, "Workshop")
	return &world{
		db:       db,
		repo:     repo,
		resolver: resolve.New(repo),
		registry: registry,
		scope:    registry.For(tenant.Of(org)),
		org:      org,
	}
}

func (w *world) operation() (context.Context, *storetest.CountingFactory) {
	factory := storetest.Count(w.db)
	return loaders.WithSet(context.Background(), loaders.New(factory)), factory
}

// TestPurpose: Validates job card tree resolution with one query per relationship level.
// Scope: Database Integration Test
// Expected: Items, parts with inventory, labor with technicians and totals; five batches for the whole tree.
// Test Case ID: RES-01
func TestJobCardTree(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	cust := &workshop.Customer{FirstName: "Rana", LastName: "Aziz", PhoneNumber: "1"}
	require.NoError(t, w.repo.CreateCustomer(ctx, w.scope, cust))
	car := &workshop.Car{CustomerID: cust.ID, Make: "Ford", Model: "Focus", Year: 2018, LicensePlate: "9"}
	require.NoError(t, w.repo.CreateCar(ctx, w.scope, car))
	card := &workshop.JobCard{CarID: car.ID}
	require.NoError(t, w.repo.CreateJobCard(ctx, w.scope, card))
	tech := &workshop.User{OrganizationID: uuid.NullUUID{UUID: w.org, Valid: true}, Email: "t@example.com", FullName: "Tech"}
	require.NoError(t, w.repo.CreateUser(ctx, w.scope, tech))
	stock := &workshop.InventoryItem{PartNumber: "F-1", Name: "Filter"}
	require.NoError(t, w.repo.CreateInventoryItem(ctx, w.scope, stock))

	for _, desc := range []string{"Service", "Brakes", "Inspection"} {
		it := &workshop.JobItem{JobCardID: card.ID, Description: desc}
		require.NoError(t, w.repo.CreateJobItem(ctx, w.scope, it))
		if desc == "Inspection" {
			continue
		}
		require.NoError(t, w.repo.AddPart(ctx, w.scope, &workshop.JobItemPart{
			JobItemID: it.ID, InventoryItemID: stock.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10),
		}))
		require.NoError(t, w.repo.AddLabor(ctx, w.scope, &workshop.LaborEntry{
			JobItemID: it.ID, TechnicianID: tech.ID, StartTime: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
			HoursWorked: decimal.NewFromInt(1), HourlyRate: decimal.NewFromInt(25), IsBillable: true,
		}))
	}

	opCtx, factory := w.operation()
	tree, err := w.resolver.JobCard(opCtx, w.scope, card.ID)
	require.NoError(t, err)

	require.Len(t, tree.Items, 3)
	assert.Equal(t, "Service", tree.Items[0].Description)
	assert.Empty(t, tree.Items[2].Parts)
	assert.NotNil(t, tree.Items[2].Parts)
	require.Len(t, tree.Items[0].Parts, 1)
	require.NotNil(t, tree.Items[0].Parts[0].InventoryItem)
	assert.Equal(t, "Filter", tree.Items[0].Parts[0].InventoryItem.Name)
	require.Len(t, tree.Items[1].Labor, 1)
	require.NotNil(t, tree.Items[1].Labor[0].Technician)
	assert.Equal(t, "Tech", tree.Items[1].Labor[0].Technician.FullName)
	assert.True(t, decimal.NewFromInt(40).Equal(tree.PartsTotal))
	assert.True(t, decimal.NewFromInt(50).Equal(tree.LaborTotal))

	// items, parts, labor, inventory items, technicians.
	assert.Equal(t, int64(5), factory.Handles())
}

// TestPurpose: Validates that graph resolution starts from a tenant-verified root.
// Scope: Database Integration Test
// Security: Cross-tenant roots are not found; loaders are never reached with their keys
// Expected: ErrNotFound for another tenant's job card, ErrNoLoaders without a loader set.
// Test Case ID: RES-02
func TestJobCardTree_RootIsScoped(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	other := storetest.CreateOrganization(t, w.db, "Other")
	otherScope := w.registry.For(tenant.Of(other))
	cust := &workshop.Customer{FirstName: "a", LastName: "b"}
	require.NoError(t, w.repo.CreateCustomer(ctx, otherScope, cust))
	car := &workshop.Car{CustomerID: cust.ID, Make: "x", Model: "y", LicensePlate: "z"}
	require.NoError(t, w.repo.CreateCar(ctx, otherScope, car))
	card := &workshop.JobCard{CarID: car.ID}
	require.NoError(t, w.repo.CreateJobCard(ctx, otherScope, card))

	opCtx, factory := w.operation()
	_, err := w.resolver.JobCard(opCtx, w.scope, card.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, factory.Handles())

	_, err = w.resolver.JobCard(ctx, otherScope, card.ID)
	assert.ErrorIs(t, err, resolve.ErrNoLoaders)
}

// TestPurpose: Validates customer overviews for a page of customers.
// Scope: Database Integration Test
// Expected: Cars with sessions, job cards and activity per customer; batches do not grow with the page size.
// Test Case ID: RES-03
func TestCustomers(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	var customers []workshop.Customer
	for i := range 4 {
		c := &workshop.Customer{FirstName: "C", LastName: string(rune('A' + i)), PhoneNumber: "1"}
		require.NoError(t, w.repo.CreateCustomer(ctx, w.scope, c))
		customers = append(customers, *c)
		if i%2 == 1 {
			continue
		}
		car := &workshop.Car{CustomerID: c.ID, Make: "VW", Model: "Golf", LicensePlate: "1"}
		require.NoError(t, w.repo.CreateCar(ctx, w.scope, car))
		require.NoError(t, w.repo.CreateSession(ctx, w.scope, &workshop.Session{CarID: car.ID}))
		require.NoError(t, w.repo.CreateJobCard(ctx, w.scope, &workshop.JobCard{CarID: car.ID}))
	}

	opCtx, factory := w.operation()
	out, err := w.resolver.Customers(opCtx, customers)
	require.NoError(t, err)
	require.Len(t, out, 4)

	withCar := out[0]
	require.Len(t, withCar.Cars, 1)
	assert.Len(t, withCar.Cars[0].Sessions, 1)
	assert.Len(t, withCar.JobCards, 1)
	assert.Equal(t, 1, withCar.Activity.VisitCount)
	assert.Equal(t, 1, withCar.Activity.ActiveJobs)
	assert.Equal(t, 1, withCar.Activity.CarCount)
	assert.NotNil(t, withCar.Activity.LastSessionAt)
	assert.True(t, withCar.Activity.TotalSpent.IsZero())

	without := out[1]
	assert.Empty(t, without.Cars)
	assert.Empty(t, without.JobCards)
	assert.Nil(t, without.Activity.LastSessionAt)
	assert.Zero(t, without.Activity.VisitCount)

	// Eight customer relationships plus sessions by car.
	assert.Equal(t, int64(9), factory.Handles())

	single, err := w.resolver.Customer(opCtx, w.scope, customers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, customers[0].ID, single.ID)
	// Served from the operation cache.
	assert.Equal(t, int64(9), factory.Handles())
}

// TestPurpose: Validates comment thread expansion with caller-controlled depth.
// Scope: Database Integration Test
// Expected: Depth 1 stops below the first reply level; deeper levels appear with larger depth; deleted replies are skipped.
// Test Case ID: RES-04
func TestCommentThread(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	cust := &workshop.Customer{FirstName: "a", LastName: "b"}
	require.NoError(t, w.repo.CreateCustomer(ctx, w.scope, cust))
	car := &workshop.Car{CustomerID: cust.ID, Make: "x", Model: "y", LicensePlate: "z"}
	require.NoError(t, w.repo.CreateCar(ctx, w.scope, car))
	card := &workshop.JobCard{CarID: car.ID}
	require.NoError(t, w.repo.CreateJobCard(ctx, w.scope, card))
	author := &workshop.User{OrganizationID: uuid.NullUUID{UUID: w.org, Valid: true}, Email: "a@example.com"}
	require.NoError(t, w.repo.CreateUser(ctx, w.scope, author))

	post := func(parent uuid.UUID) uuid.UUID {
		c := &workshop.Comment{JobCardID: card.ID, AuthorID: author.ID, Content: "text"}
		if parent != uuid.Nil {
			c.ParentCommentID = uuid.NullUUID{UUID: parent, Valid: true}
		}
		require.NoError(t, w.repo.AddComment(ctx, w.scope, c))
		return c.ID
	}
	root := post(uuid.Nil)
	reply := post(root)
	deleted := post(root)
	nested := post(reply)
	require.NoError(t, w.repo.SoftDeleteComment(ctx, w.scope, deleted))
	require.NoError(t, w.repo.AddMention(ctx, w.scope, &workshop.Mention{CommentID: nested, MentionedUserID: author.ID}))

	opCtx, _ := w.operation()
	shallow, err := w.resolver.CommentThread(opCtx, w.scope, card.ID, 1)
	require.NoError(t, err)
	require.Len(t, shallow, 1)
	require.Len(t, shallow[0].Replies, 1)
	assert.Equal(t, reply, shallow[0].Replies[0].ID)
	assert.Empty(t, shallow[0].Replies[0].Replies)

	opCtx, _ = w.operation()
	deep, err := w.resolver.CommentThread(opCtx, w.scope, card.ID, -1)
	require.NoError(t, err)
	require.Len(t, deep[0].Replies[0].Replies, 1)
	leaf := deep[0].Replies[0].Replies[0]
	assert.Equal(t, nested, leaf.ID)
	assert.Len(t, leaf.Mentions, 1)
	assert.Empty(t, leaf.Replies)
}
