package award

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-awards/internal/model"
)

// BuildPurchaseOrders converts a finalized allocation into one purchase order
// per winning supplier. Unit prices are read from that supplier's offer; an
// allocated line item without a price is an upstream offer-submission defect
// and fails hard rather than defaulting to zero.
//
// Suppliers and lines are emitted in deterministic order so PO numbering is
// stable across retries of the same finalize.
func BuildPurchaseOrders(
	t *model.Tender,
	items []model.LineItem,
	allocations []model.AwardAllocation,
	offers []model.Offer,
	numberFor func(seq int) string,
) ([]model.PurchaseOrder, error) {
	itemByID := make(map[uuid.UUID]*model.LineItem, len(items))
	for i := range items {
		itemByID[items[i].ID] = &items[i]
	}
	offerBySupplier := make(map[uuid.UUID]*model.Offer, len(offers))
	for i := range offers {
		offerBySupplier[offers[i].SupplierID] = &offers[i]
	}

	grouped := make(map[uuid.UUID][]model.PurchaseOrderLine)
	for i := range allocations {
		a := &allocations[i]
		item, ok := itemByID[a.LineItemID]
		if !ok {
			return nil, fmt.Errorf("%w: allocation %s references unknown line item %s", ErrDataIntegrity, a.ID, a.LineItemID)
		}
		for _, e := range a.Entries {
			if e.Quantity == 0 {
				continue
			}
			offer, ok := offerBySupplier[e.SupplierID]
			if !ok {
				return nil, fmt.Errorf("%w: supplier %s allocated without an offer", ErrDataIntegrity, e.SupplierID)
			}
			price, ok := offer.UnitPrice(a.LineItemID)
			if !ok {
				return nil, fmt.Errorf("%w: offer %s carries no price for line item %s",
					ErrDataIntegrity, offer.ID, a.LineItemID)
			}
			grouped[e.SupplierID] = append(grouped[e.SupplierID], model.PurchaseOrderLine{
				LineItemID:  a.LineItemID,
				Description: item.Description,
				Unit:        item.Unit,
				Quantity:    e.Quantity,
				UnitPrice:   price,
				LineTotal:   price.Mul(decimal.NewFromInt(e.Quantity)),
			})
		}
	}
	if len(grouped) == 0 {
		return nil, fmt.Errorf("%w: nothing to award, all distributions are empty", ErrValidation)
	}

	supplierIDs := make([]uuid.UUID, 0, len(grouped))
	for id := range grouped {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Slice(supplierIDs, func(i, j int) bool {
		return supplierIDs[i].String() < supplierIDs[j].String()
	})

	orders := make([]model.PurchaseOrder, 0, len(supplierIDs))
	for seq, supplierID := range supplierIDs {
		lines := grouped[supplierID]
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].LineItemID.String() < lines[j].LineItemID.String()
		})
		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.LineTotal)
		}
		orders = append(orders, model.PurchaseOrder{
			ID:         uuid.New(),
			TenderID:   t.ID,
			SupplierID: supplierID,
			PONumber:   numberFor(seq + 1),
			Status:     model.POStatusApproved,
			TotalPrice: total,
			Lines:      lines,
		})
	}
	return orders, nil
}
