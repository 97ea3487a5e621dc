package workshop

import (
	"fmt"

	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
)

// Policies of the tenant-owned tables. Tables without an organization
// column are filtered through the chain of parents that leads to one.
var (
	jobItemPolicy = filter.Through("job_card_id", TableJobCards, filter.Owned)
	commentPolicy = filter.Through("job_card_id", TableJobCards, filter.Owned)

	policies = map[string]filter.Policy{
		TableUsers:          filter.Owned,
		TableCustomers:      filter.Owned,
		TableCars:           filter.Owned,
		TableSessions:       filter.Owned,
		TableJobCards:       filter.Owned,
		TableInventoryItems: filter.Owned,
		TableAppointments:   filter.Owned,
		TableInvites:        filter.Owned,
		TableJobItems:       jobItemPolicy,
		TableJobItemParts:   filter.Through("job_item_id", TableJobItems, jobItemPolicy),
		TableLaborEntries:   filter.Through("job_item_id", TableJobItems, jobItemPolicy),
		TableComments:       commentPolicy,
		TableMentions:       filter.Through("comment_id", TableComments, commentPolicy),
	}
)

// NewRegistry returns the sealed tenant filter registry of every workshop
// table. Organizations are exempt.
func NewRegistry(auditLogger audit.Logger) (*filter.Registry, error) {
	r := filter.NewRegistry(auditLogger)
	if err := r.Exempt(TableOrganizations); err != nil {
		return nil, err
	}
	for table, p := range policies {
		if err := r.Register(table, p); err != nil {
			return nil, fmt.Errorf("workshop: register %s: %w", table, err)
		}
	}
	r.Seal()
	return r, nil
}
