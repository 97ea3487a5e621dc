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

// Package workshop holds the tenant-owned entities of a workshop and the
// repository that reads and writes them through the tenant filter.
package workshop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tables
const (
	TableOrganizations  = "organizations"
	TableUsers          = "users"
	TableCustomers      = "customers"
	TableCars           = "cars"
	TableSessions       = "sessions"
	TableJobCards       = "job_cards"
	TableJobItems       = "job_items"
	TableInventoryItems = "inventory_items"
	TableJobItemParts   = "job_item_parts"
	TableLaborEntries   = "labor_entries"
	TableComments       = "job_card_comments"
	TableMentions       = "comment_mentions"
	TableAppointments   = "appointments"
	TableInvites        = "invites"
)

// Session statuses
const (
	SessionIntake          = "intake"
	SessionInspection      = "inspection"
	SessionTestDrive       = "test_drive"
	SessionReportGenerated = "report_generated"
	SessionJobCardCreated  = "job_card_created"
	SessionCompleted       = "completed"
	SessionCancelled       = "cancelled"
)

// Job card and job item statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Appointment statuses
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCheckedIn = "checked_in"
	AppointmentCompleted = "completed"
	AppointmentNoShow    = "no_show"
	AppointmentCancelled = "cancelled"
)

// Invite statuses
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
	InviteCanceled = "canceled"
)

// User is a staff member. Users without an organization are not yet bound
// to a workshop and are invisible to every tenant.
type User struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	OrganizationID uuid.NullUUID `db:"organization_id" json:"organization_id"`
	Email          string        `db:"email" json:"email"`
	FullName       string        `db:"full_name" json:"full_name"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Customer is a workshop customer.
type Customer struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          *string   `db:"email" json:"email,omitempty"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Car is a customer's vehicle.
type Car struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	CustomerID     uuid.UUID `db:"customer_id" json:"customer_id"`
	Make           string    `db:"make" json:"make"`
	Model          string    `db:"model" json:"model"`
	Year           int       `db:"year" json:"year"`
	LicensePlate   string    `db:"license_plate" json:"license_plate"`
	VIN            *string   `db:"vin" json:"vin,omitempty"`
	Color          *string   `db:"color" json:"color,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Session is one visit of a car to the workshop.
type Session struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	CarID          uuid.UUID `db:"car_id" json:"car_id"`
	CustomerID     uuid.UUID `db:"customer_id" json:"customer_id"`
	Status         string    `db:"status" json:"status"`
	IntakeNotes    *string   `db:"intake_notes" json:"intake_notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// JobCard is the work order of a session.
type JobCard struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	OrganizationID     uuid.UUID       `db:"organization_id" json:"organization_id"`
	SessionID          uuid.NullUUID   `db:"session_id" json:"session_id"`
	CarID              uuid.UUID       `db:"car_id" json:"car_id"`
	CustomerID         uuid.UUID       `db:"customer_id" json:"customer_id"`
	Status             string          `db:"status" json:"status"`
	TotalEstimatedCost decimal.Decimal `db:"total_estimated_cost" json:"total_estimated_cost"`
	TotalActualCost    decimal.Decimal `db:"total_actual_cost" json:"total_actual_cost"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// JobItem is one task on a job card.
type JobItem struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	JobCardID     uuid.UUID       `db:"job_card_id" json:"job_card_id"`
	Description   string          `db:"description" json:"description"`
	Status        string          `db:"status" json:"status"`
	EstimatedCost decimal.Decimal `db:"estimated_cost" json:"estimated_cost"`
	ActualCost    decimal.Decimal `db:"actual_cost" json:"actual_cost"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// InventoryItem is a stocked part.
type InventoryItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	OrganizationID  uuid.UUID       `db:"organization_id" json:"organization_id"`
	PartNumber      string          `db:"part_number" json:"part_number"`
	Name            string          `db:"name" json:"name"`
	UnitOfMeasure   string          `db:"unit_of_measure" json:"unit_of_measure"`
	QuantityInStock decimal.Decimal `db:"quantity_in_stock" json:"quantity_in_stock"`
	CostPrice       decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellingPrice    decimal.Decimal `db:"selling_price" json:"selling_price"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// JobItemPart is a part used by a job item.
type JobItemPart struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	JobItemID       uuid.UUID       `db:"job_item_id" json:"job_item_id"`
	InventoryItemID uuid.UUID       `db:"inventory_item_id" json:"inventory_item_id"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	IsActual        bool            `db:"is_actual" json:"is_actual"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// FinalCost is quantity times unit price less the discount.
func (p JobItemPart) FinalCost() decimal.Decimal {
	return p.Quantity.Mul(p.UnitPrice).Sub(p.Discount)
}

// LaborEntry is time a technician spent on a job item.
type LaborEntry struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	JobItemID    uuid.UUID       `db:"job_item_id" json:"job_item_id"`
	TechnicianID uuid.UUID       `db:"technician_id" json:"technician_id"`
	StartTime    time.Time       `db:"start_time" json:"start_time"`
	EndTime      *time.Time      `db:"end_time" json:"end_time,omitempty"`
	HoursWorked  decimal.Decimal `db:"hours_worked" json:"hours_worked"`
	HourlyRate   decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	IsActual     bool            `db:"is_actual" json:"is_actual"`
	IsBillable   bool            `db:"is_billable" json:"is_billable"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// TotalCost is hours worked times the hourly rate.
func (l LaborEntry) TotalCost() decimal.Decimal {
	return l.HoursWorked.Mul(l.HourlyRate)
}

// Comment is a note on a job card. Replies point at their parent comment.
type Comment struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	JobCardID       uuid.UUID     `db:"job_card_id" json:"job_card_id"`
	JobItemID       uuid.NullUUID `db:"job_item_id" json:"job_item_id"`
	AuthorID        uuid.UUID     `db:"author_id" json:"author_id"`
	Content         string        `db:"content" json:"content"`
	ParentCommentID uuid.NullUUID `db:"parent_comment_id" json:"parent_comment_id"`
	IsDeleted       bool          `db:"is_deleted" json:"is_deleted"`
	DeletedAt       *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// Mention is a user referenced by a comment.
type Mention struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CommentID       uuid.UUID `db:"comment_id" json:"comment_id"`
	MentionedUserID uuid.UUID `db:"mentioned_user_id" json:"mentioned_user_id"`
	IsRead          bool      `db:"is_read" json:"is_read"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Appointment is a scheduled visit.
type Appointment struct {
	ID               uuid.UUID `db:"id" json:"id"`
	OrganizationID   uuid.UUID `db:"organization_id" json:"organization_id"`
	CustomerID       uuid.UUID `db:"customer_id" json:"customer_id"`
	CarID            uuid.UUID `db:"car_id" json:"car_id"`
	ScheduledStart   time.Time `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time `db:"scheduled_end" json:"scheduled_end"`
	Status           string    `db:"status" json:"status"`
	ServiceRequested *string   `db:"service_requested" json:"service_requested,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Invite is a pending invitation to join an organization.
type Invite struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Email          string    `db:"email" json:"email"`
	Role           string    `db:"role" json:"role"`
	InviteCode     string    `db:"invite_code" json:"-"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
