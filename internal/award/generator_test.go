package award

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-awards/internal/model"
)

func poNumber(seq int) string {
	return fmt.Sprintf("PO-TEST-%03d", seq)
}

func TestBuildPurchaseOrdersGroupsBySupplier(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	second := model.LineItem{
		ID: uuid.New(), TenderID: tender.ID,
		Description: "valves", RequiredQuantity: 50, Unit: "pcs",
	}
	for i := range offers {
		offers[i].Prices = append(offers[i].Prices, model.OfferPrice{
			LineItemID: second.ID,
			UnitPrice:  decimal.NewFromInt(3),
		})
	}
	items := []model.LineItem{*item, second}

	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 60},
				{SupplierID: supplierY, Quantity: 40},
			},
		},
		{
			ID: uuid.New(), LineItemID: second.ID, RequiredQuantity: second.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 50},
			},
		},
	}

	orders, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected one PO per supplier, got %d", len(orders))
	}

	bySupplier := make(map[uuid.UUID]model.PurchaseOrder, len(orders))
	for _, po := range orders {
		bySupplier[po.SupplierID] = po
		if po.Status != model.POStatusApproved {
			t.Errorf("expected APPROVED status, got %s", po.Status)
		}
		if po.TenderID != tender.ID {
			t.Errorf("expected tender id %s, got %s", tender.ID, po.TenderID)
		}
	}

	// supplier X: 60*10 + 50*3 = 750
	x := bySupplier[supplierX]
	if len(x.Lines) != 2 {
		t.Fatalf("expected two lines for supplier X, got %d", len(x.Lines))
	}
	if !x.TotalPrice.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected total 750 for supplier X, got %s", x.TotalPrice)
	}

	// supplier Y: 40*12 = 480
	y := bySupplier[supplierY]
	if len(y.Lines) != 1 {
		t.Fatalf("expected one line for supplier Y, got %d", len(y.Lines))
	}
	if !y.TotalPrice.Equal(decimal.NewFromInt(480)) {
		t.Errorf("expected total 480 for supplier Y, got %s", y.TotalPrice)
	}
}

// Conservation: the sum of PO line totals must equal the value computed
// directly from the allocation records and offer prices.
func TestBuildPurchaseOrdersConservesValue(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	items := []model.LineItem{*item}
	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 33},
				{SupplierID: supplierY, Quantity: 41},
			},
		},
	}

	orders, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	fromOrders := decimal.Zero
	for _, po := range orders {
		lineSum := decimal.Zero
		for _, line := range po.Lines {
			lineSum = lineSum.Add(line.LineTotal)
		}
		if !lineSum.Equal(po.TotalPrice) {
			t.Errorf("PO %s total %s does not match line sum %s", po.PONumber, po.TotalPrice, lineSum)
		}
		fromOrders = fromOrders.Add(po.TotalPrice)
	}

	fromAllocations, err := allocationValue(allocations, offers)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !fromOrders.Equal(fromAllocations) {
		t.Fatalf("value not conserved: orders %s vs allocations %s", fromOrders, fromAllocations)
	}
}

func TestBuildPurchaseOrdersSkipsZeroEntries(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	items := []model.LineItem{*item}
	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 25},
				{SupplierID: supplierY, Quantity: 0},
			},
		},
	}

	orders, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one PO, got %d", len(orders))
	}
	if orders[0].SupplierID != supplierX {
		t.Fatalf("expected PO for supplier X only")
	}
}

func TestBuildPurchaseOrdersEmptyAllocation(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	items := []model.LineItem{*item}
	allocations := []model.AwardAllocation{
		{ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity},
	}

	_, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty allocation, got %v", err)
	}
}

func TestBuildPurchaseOrdersMissingPrice(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	items := []model.LineItem{*item}
	offers[0].Prices = nil

	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{{SupplierID: supplierX, Quantity: 10}},
		},
	}

	_, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity for missing price, got %v", err)
	}
}

func TestBuildPurchaseOrdersDeterministicNumbering(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	items := []model.LineItem{*item}
	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 60},
				{SupplierID: supplierY, Quantity: 40},
			},
		},
	}

	first, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	second, err := BuildPurchaseOrders(tender, items, allocations, offers, poNumber)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for i := range first {
		if first[i].SupplierID != second[i].SupplierID || first[i].PONumber != second[i].PONumber {
			t.Fatalf("expected deterministic supplier order and numbering")
		}
	}
}
