package resolve

import (
	"context"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// JobCardTree is a job card with its items, their parts and labor.
type JobCardTree struct {
	workshop.JobCard
	Items      []JobItemNode   `json:"items"`
	PartsTotal decimal.Decimal `json:"parts_total"`
	LaborTotal decimal.Decimal `json:"labor_total"`
}

// JobItemNode is a job item with its parts and labor.
type JobItemNode struct {
	workshop.JobItem
	Parts []PartNode  `json:"parts"`
	Labor []LaborNode `json:"labor"`
}

// PartNode is a used part with its inventory item.
type PartNode struct {
	workshop.JobItemPart
	InventoryItem *workshop.InventoryItem `json:"inventory_item,omitempty"`
	FinalCost     decimal.Decimal         `json:"final_cost"`
}

// LaborNode is a labor entry with its technician.
type LaborNode struct {
	workshop.LaborEntry
	Technician *workshop.User  `json:"technician,omitempty"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// JobCard resolves the tree of a job card visible to scope.
func (r *Resolver) JobCard(ctx context.Context, scope filter.Scope, id uuid.UUID) (*JobCardTree, error) {
	set, err := loadersOf(ctx)
	if err != nil {
		return nil, err
	}
	card, err := r.repo.GetJobCard(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	items, err := set.JobItemsByJobCard.Load(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	itemIDs := lo.Map(items, func(it workshop.JobItem, _ int) uuid.UUID { return it.ID })

	var (
		parts map[uuid.UUID][]workshop.JobItemPart
		labor map[uuid.UUID][]workshop.LaborEntry
	)
	err = set.Fork(ctx,
		func(ctx context.Context) (err error) {
			parts, err = set.PartsByJobItem.LoadMany(ctx, itemIDs)
			return err
		},
		func(ctx context.Context) (err error) {
			labor, err = set.LaborByJobItem.LoadMany(ctx, itemIDs)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	var (
		stock         map[uuid.UUID]workshop.InventoryItem
		technicians   map[uuid.UUID]workshop.User
		stockIDs      []uuid.UUID
		technicianIDs []uuid.UUID
	)
	for _, itemID := range itemIDs {
		for _, p := range parts[itemID] {
			stockIDs = append(stockIDs, p.InventoryItemID)
		}
		for _, l := range labor[itemID] {
			technicianIDs = append(technicianIDs, l.TechnicianID)
		}
	}
	err = set.Fork(ctx,
		func(ctx context.Context) (err error) {
			stock, err = set.InventoryItemByID.LoadMany(ctx, lo.Uniq(stockIDs))
			return err
		},
		func(ctx context.Context) (err error) {
			technicians, err = set.UserByID.LoadMany(ctx, lo.Uniq(technicianIDs))
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	tree := &JobCardTree{JobCard: *card, Items: make([]JobItemNode, 0, len(items))}
	for _, it := range items {
		node := JobItemNode{
			JobItem: it,
			Parts:   make([]PartNode, 0, len(parts[it.ID])),
			Labor:   make([]LaborNode, 0, len(labor[it.ID])),
		}
		for _, p := range parts[it.ID] {
			pn := PartNode{JobItemPart: p, FinalCost: p.FinalCost()}
			if inv, ok := stock[p.InventoryItemID]; ok {
				pn.InventoryItem = &inv
			}
			tree.PartsTotal = tree.PartsTotal.Add(pn.FinalCost)
			node.Parts = append(node.Parts, pn)
		}
		for _, l := range labor[it.ID] {
			ln := LaborNode{LaborEntry: l, TotalCost: l.TotalCost()}
			if u, ok := technicians[l.TechnicianID]; ok {
				ln.Technician = &u
			}
			if l.IsBillable {
				tree.LaborTotal = tree.LaborTotal.Add(ln.TotalCost)
			}
			node.Labor = append(node.Labor, ln)
		}
		tree.Items = append(tree.Items, node)
	}
	return tree, nil
}
