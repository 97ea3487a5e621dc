package loaders

import (
	"context"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/loader"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"github.com/shopspring/decimal"
)

// Loader names, as reported to observers.
const (
	NameJobCardByID            = "job_card_by_id"
	NameJobItemByID            = "job_item_by_id"
	NameCommentByID            = "comment_by_id"
	NameUserByID               = "user_by_id"
	NameInventoryItemByID      = "inventory_item_by_id"
	NameCustomerByID           = "customer_by_id"
	NameCarByID                = "car_by_id"
	NameCarsByCustomer         = "cars_by_customer"
	NameSessionsByCar          = "sessions_by_car"
	NameSessionsByCustomer     = "sessions_by_customer"
	NameJobCardsByCustomer     = "job_cards_by_customer"
	NameJobItemsByJobCard      = "job_items_by_job_card"
	NamePartsByJobItem         = "parts_by_job_item"
	NameLaborByJobItem         = "labor_by_job_item"
	NameCommentsByJobCard      = "comments_by_job_card"
	NameRepliesByComment       = "replies_by_comment"
	NameMentionsByComment      = "mentions_by_comment"
	NameAppointmentsByCustomer = "appointments_by_customer"
	NameLastSessionAt          = "last_session_at"
	NameVisitCount             = "visit_count"
	NameTotalSpent             = "total_spent"
	NameActiveJobCount         = "active_job_count"
	NameCarCount               = "car_count"
)

var (
	createdAsc  = []string{sql.Asc("created_at"), sql.Asc("id")}
	createdDesc = []string{sql.Desc("created_at"), sql.Asc("id")}
)

func notDeleted() *sql.Predicate {
	return sql.EQ("is_deleted", false)
}

func topLevel() *sql.Predicate {
	return sql.IsNull("parent_comment_id")
}

func completed() *sql.Predicate {
	return sql.EQ("status", workshop.StatusCompleted)
}

func active() *sql.Predicate {
	return sql.In("status", workshop.StatusPending, workshop.StatusInProgress)
}

// Set holds the loaders of one operation. A Set must not be shared
// between operations.
type Set struct {
	JobCardByID       *loader.Keyed[uuid.UUID, workshop.JobCard]
	JobItemByID       *loader.Keyed[uuid.UUID, workshop.JobItem]
	CommentByID       *loader.Keyed[uuid.UUID, workshop.Comment]
	UserByID          *loader.Keyed[uuid.UUID, workshop.User]
	InventoryItemByID *loader.Keyed[uuid.UUID, workshop.InventoryItem]
	CustomerByID      *loader.Keyed[uuid.UUID, workshop.Customer]
	CarByID           *loader.Keyed[uuid.UUID, workshop.Car]

	CarsByCustomer         *loader.Grouped[uuid.UUID, workshop.Car]
	SessionsByCar          *loader.Grouped[uuid.UUID, workshop.Session]
	SessionsByCustomer     *loader.Grouped[uuid.UUID, workshop.Session]
	JobCardsByCustomer     *loader.Grouped[uuid.UUID, workshop.JobCard]
	JobItemsByJobCard      *loader.Grouped[uuid.UUID, workshop.JobItem]
	PartsByJobItem         *loader.Grouped[uuid.UUID, workshop.JobItemPart]
	LaborByJobItem         *loader.Grouped[uuid.UUID, workshop.LaborEntry]
	CommentsByJobCard      *loader.Grouped[uuid.UUID, workshop.Comment]
	RepliesByComment       *loader.Grouped[uuid.UUID, workshop.Comment]
	MentionsByComment      *loader.Grouped[uuid.UUID, workshop.Mention]
	AppointmentsByCustomer *loader.Grouped[uuid.UUID, workshop.Appointment]

	// Customer activity. Customers without matching rows are absent.
	LastSessionAt  *loader.Keyed[uuid.UUID, store.NullTime]
	VisitCount     *loader.Keyed[uuid.UUID, int]
	TotalSpent     *loader.Keyed[uuid.UUID, decimal.Decimal]
	ActiveJobCount *loader.Keyed[uuid.UUID, int]
	CarCount       *loader.Keyed[uuid.UUID, int]

	sched *loader.Scheduler
}

// New returns the loaders of one operation. Every batch acquires its own
// handle from factory.
func New(factory store.HandleFactory, opts ...Option) *Set {
	s := newSource(factory, opts)

	return &Set{
		sched: s.sched,

		JobCardByID: keyed(s, NameJobCardByID, workshop.TableJobCards, workshop.JobCardColumns,
			func(v workshop.JobCard) uuid.UUID { return v.ID }),
		JobItemByID: keyed(s, NameJobItemByID, workshop.TableJobItems, workshop.JobItemColumns,
			func(v workshop.JobItem) uuid.UUID { return v.ID }),
		CommentByID: keyed(s, NameCommentByID, workshop.TableComments, workshop.CommentColumns,
			func(v workshop.Comment) uuid.UUID { return v.ID }, notDeleted),
		UserByID: keyed(s, NameUserByID, workshop.TableUsers, workshop.UserColumns,
			func(v workshop.User) uuid.UUID { return v.ID }),
		InventoryItemByID: keyed(s, NameInventoryItemByID, workshop.TableInventoryItems, workshop.InventoryItemColumns,
			func(v workshop.InventoryItem) uuid.UUID { return v.ID }),
		CustomerByID: keyed(s, NameCustomerByID, workshop.TableCustomers, workshop.CustomerColumns,
			func(v workshop.Customer) uuid.UUID { return v.ID }),
		CarByID: keyed(s, NameCarByID, workshop.TableCars, workshop.CarColumns,
			func(v workshop.Car) uuid.UUID { return v.ID }),

		CarsByCustomer: grouped(s, NameCarsByCustomer, workshop.TableCars, "customer_id", workshop.CarColumns,
			func(v workshop.Car) uuid.UUID { return v.CustomerID }, createdAsc),
		SessionsByCar: grouped(s, NameSessionsByCar, workshop.TableSessions, "car_id", workshop.SessionColumns,
			func(v workshop.Session) uuid.UUID { return v.CarID }, createdDesc),
		SessionsByCustomer: grouped(s, NameSessionsByCustomer, workshop.TableSessions, "customer_id", workshop.SessionColumns,
			func(v workshop.Session) uuid.UUID { return v.CustomerID }, createdDesc),
		JobCardsByCustomer: grouped(s, NameJobCardsByCustomer, workshop.TableJobCards, "customer_id", workshop.JobCardColumns,
			func(v workshop.JobCard) uuid.UUID { return v.CustomerID }, createdDesc),
		JobItemsByJobCard: grouped(s, NameJobItemsByJobCard, workshop.TableJobItems, "job_card_id", workshop.JobItemColumns,
			func(v workshop.JobItem) uuid.UUID { return v.JobCardID }, createdAsc),
		PartsByJobItem: grouped(s, NamePartsByJobItem, workshop.TableJobItemParts, "job_item_id", workshop.JobItemPartColumns,
			func(v workshop.JobItemPart) uuid.UUID { return v.JobItemID }, createdAsc),
		LaborByJobItem: grouped(s, NameLaborByJobItem, workshop.TableLaborEntries, "job_item_id", workshop.LaborEntryColumns,
			func(v workshop.LaborEntry) uuid.UUID { return v.JobItemID }, []string{sql.Asc("start_time"), sql.Asc("id")}),
		CommentsByJobCard: grouped(s, NameCommentsByJobCard, workshop.TableComments, "job_card_id", workshop.CommentColumns,
			func(v workshop.Comment) uuid.UUID { return v.JobCardID }, createdAsc, notDeleted, topLevel),
		RepliesByComment: grouped(s, NameRepliesByComment, workshop.TableComments, "parent_comment_id", workshop.CommentColumns,
			func(v workshop.Comment) uuid.UUID { return v.ParentCommentID.UUID }, createdAsc, notDeleted),
		MentionsByComment: grouped(s, NameMentionsByComment, workshop.TableMentions, "comment_id", workshop.MentionColumns,
			func(v workshop.Mention) uuid.UUID { return v.CommentID }, createdAsc),
		AppointmentsByCustomer: grouped(s, NameAppointmentsByCustomer, workshop.TableAppointments, "customer_id", workshop.AppointmentColumns,
			func(v workshop.Appointment) uuid.UUID { return v.CustomerID }, []string{sql.Asc("scheduled_start"), sql.Asc("id")}),

		LastSessionAt: aggregate[store.NullTime](s, NameLastSessionAt, workshop.TableSessions, "customer_id", sql.Max("created_at")),
		VisitCount:    aggregate[int](s, NameVisitCount, workshop.TableSessions, "customer_id", sql.Count("*")),
		TotalSpent: total(s, NameTotalSpent, workshop.TableJobCards, "customer_id", "total_actual_cost",
			completed),
		ActiveJobCount: aggregate[int](s, NameActiveJobCount, workshop.TableJobCards, "customer_id", sql.Count("*"),
			active),
		CarCount: aggregate[int](s, NameCarCount, workshop.TableCars, "customer_id", sql.Count("*")),
	}
}

// Fork runs fns as concurrent resolution steps of the operation. Loads
// made by the steps are held until every step waits on a loader, so each
// loader fetches the keys of all steps in one batch.
func (s *Set) Fork(ctx context.Context, fns ...func(ctx context.Context) error) error {
	return s.sched.Fork(ctx, fns...)
}

// Stats returns the counters of every loader in the set, by loader name.
func (s *Set) Stats() map[string]loader.Stats {
	return map[string]loader.Stats{
		NameJobCardByID:            s.JobCardByID.Stats(),
		NameJobItemByID:            s.JobItemByID.Stats(),
		NameCommentByID:            s.CommentByID.Stats(),
		NameUserByID:               s.UserByID.Stats(),
		NameInventoryItemByID:      s.InventoryItemByID.Stats(),
		NameCustomerByID:           s.CustomerByID.Stats(),
		NameCarByID:                s.CarByID.Stats(),
		NameCarsByCustomer:         s.CarsByCustomer.Stats(),
		NameSessionsByCar:          s.SessionsByCar.Stats(),
		NameSessionsByCustomer:     s.SessionsByCustomer.Stats(),
		NameJobCardsByCustomer:     s.JobCardsByCustomer.Stats(),
		NameJobItemsByJobCard:      s.JobItemsByJobCard.Stats(),
		NamePartsByJobItem:         s.PartsByJobItem.Stats(),
		NameLaborByJobItem:         s.LaborByJobItem.Stats(),
		NameCommentsByJobCard:      s.CommentsByJobCard.Stats(),
		NameRepliesByComment:       s.RepliesByComment.Stats(),
		NameMentionsByComment:      s.MentionsByComment.Stats(),
		NameAppointmentsByCustomer: s.AppointmentsByCustomer.Stats(),
		NameLastSessionAt:          s.LastSessionAt.Stats(),
		NameVisitCount:             s.VisitCount.Stats(),
		NameTotalSpent:             s.TotalSpent.Stats(),
		NameActiveJobCount:         s.ActiveJobCount.Stats(),
		NameCarCount:               s.CarCount.Stats(),
	}
}

type setKey struct{}

// WithSet stores s on the context of an operation.
func WithSet(ctx context.Context, s *Set) context.Context {
	return context.WithValue(ctx, setKey{}, s)
}

// FromContext returns the Set of the operation.
func FromContext(ctx context.Context) (*Set, bool) {
	s, ok := ctx.Value(setKey{}).(*Set)
	return s, ok && s != nil
}
