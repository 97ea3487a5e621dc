package workshop

// Column lists in table order. Selects name their columns so that scans
// never depend on the physical layout of a table.
var (
	UserColumns     = []string{"id", "organization_id", "email", "full_name", "is_active", "created_at"}
	CustomerColumns = []string{"id", "organization_id", "first_name", "last_name", "email", "phone_number", "created_at", "updated_at"}
	CarColumns      = []string{"id", "organization_id", "customer_id", "make", "model", "year", "license_plate", "vin", "color", "created_at", "updated_at"}
	SessionColumns  = []string{"id", "organization_id", "car_id", "customer_id", "status", "intake_notes", "created_at", "updated_at"}
	JobCardColumns  = []string{
		"id", "organization_id", "session_id", "car_id", "customer_id", "status",
		"total_estimated_cost", "total_actual_cost", "created_at", "updated_at",
	}
	JobItemColumns       = []string{"id", "job_card_id", "description", "status", "estimated_cost", "actual_cost", "created_at", "updated_at"}
	InventoryItemColumns = []string{
		"id", "organization_id", "part_number", "name", "unit_of_measure",
		"quantity_in_stock", "cost_price", "selling_price", "is_active", "created_at",
	}
	JobItemPartColumns = []string{"id", "job_item_id", "inventory_item_id", "quantity", "unit_price", "discount", "is_actual", "created_at"}
	LaborEntryColumns  = []string{
		"id", "job_item_id", "technician_id", "start_time", "end_time",
		"hours_worked", "hourly_rate", "is_actual", "is_billable", "created_at",
	}
	CommentColumns = []string{
		"id", "job_card_id", "job_item_id", "author_id", "content",
		"parent_comment_id", "is_deleted", "deleted_at", "created_at",
	}
	MentionColumns     = []string{"id", "comment_id", "mentioned_user_id", "is_read", "created_at"}
	AppointmentColumns = []string{
		"id", "organization_id", "customer_id", "car_id", "scheduled_start",
		"scheduled_end", "status", "service_requested", "created_at",
	}
	InviteColumns = []string{"id", "organization_id", "email", "role", "invite_code", "expires_at", "status", "created_at"}
)
