package award

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-awards/internal/model"
)

var (
	supplierX = uuid.New()
	supplierY = uuid.New()
	supplierZ = uuid.New()
)

func tenderWithOffers(level model.AwardLevel) (*model.Tender, *model.LineItem, []model.Offer) {
	tender := closedTender()
	tender.AwardLevel = level
	item := &model.LineItem{
		ID:               uuid.New(),
		TenderID:         tender.ID,
		Description:      "industrial pumps",
		RequiredQuantity: 100,
		Unit:             "pcs",
	}
	offers := []model.Offer{
		{
			ID: uuid.New(), TenderID: tender.ID, SupplierID: supplierX,
			Status: model.OfferStatusSubmitted,
			Prices: []model.OfferPrice{{LineItemID: item.ID, UnitPrice: decimal.NewFromInt(10)}},
		},
		{
			ID: uuid.New(), TenderID: tender.ID, SupplierID: supplierY,
			Status: model.OfferStatusSubmitted,
			Prices: []model.OfferPrice{{LineItemID: item.ID, UnitPrice: decimal.NewFromInt(12)}},
		},
		{
			ID: uuid.New(), TenderID: tender.ID, SupplierID: supplierZ,
			Status: model.OfferStatusRejected,
			Prices: []model.OfferPrice{{LineItemID: item.ID, UnitPrice: decimal.NewFromInt(8)}},
		},
	}
	return tender, item, offers
}

func TestValidateDistribution(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)

	tests := []struct {
		name    string
		entries []model.AllocationEntry
		wantErr bool
	}{
		{
			name: "split between two suppliers",
			entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 60},
				{SupplierID: supplierY, Quantity: 40},
			},
		},
		{
			name: "partial award is legal",
			entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 30},
			},
		},
		{
			name: "over-allocation rejected",
			entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 70},
				{SupplierID: supplierY, Quantity: 40},
			},
			wantErr: true,
		},
		{
			name: "negative quantity rejected",
			entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: -1},
			},
			wantErr: true,
		},
		{
			name: "duplicate supplier rejected",
			entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 10},
				{SupplierID: supplierX, Quantity: 10},
			},
			wantErr: true,
		},
		{
			name: "rejected offer is not eligible",
			entries: []model.AllocationEntry{
				{SupplierID: supplierZ, Quantity: 10},
			},
			wantErr: true,
		},
		{
			name: "unknown supplier rejected",
			entries: []model.AllocationEntry{
				{SupplierID: uuid.New(), Quantity: 10},
			},
			wantErr: true,
		},
		{
			name:    "empty distribution rejected",
			entries: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDistribution(tender, item, offers, tt.entries)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestValidateDistributionGlobalLevel(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelGlobal)

	err := ValidateDistribution(tender, item, offers, []model.AllocationEntry{
		{SupplierID: supplierX, Quantity: 60},
		{SupplierID: supplierY, Quantity: 40},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for multi-supplier split at GLOBAL level, got %v", err)
	}

	err = ValidateDistribution(tender, item, offers, []model.AllocationEntry{
		{SupplierID: supplierX, Quantity: 100},
	})
	if err != nil {
		t.Fatalf("expected single-supplier distribution to pass, got %v", err)
	}
}

func TestValidateFinalize(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	allocations := []model.AwardAllocation{
		{
			ID:               uuid.New(),
			TenderID:         tender.ID,
			LineItemID:       item.ID,
			RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 60},
				{SupplierID: supplierY, Quantity: 40},
			},
		},
	}

	if err := ValidateFinalize(tender, allocations, offers); err != nil {
		t.Fatalf("expected finalize to validate, got %v", err)
	}
}

func TestValidateFinalizeNothingToAward(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	allocations := []model.AwardAllocation{
		{
			ID:               uuid.New(),
			LineItemID:       item.ID,
			RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 0},
			},
		},
	}

	err := ValidateFinalize(tender, allocations, offers)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for all-zero award, got %v", err)
	}
}

func TestValidateFinalizeGlobalSingleSupplier(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelGlobal)
	second := &model.LineItem{ID: uuid.New(), TenderID: tender.ID, RequiredQuantity: 50}
	for i := range offers {
		offers[i].Prices = append(offers[i].Prices, model.OfferPrice{
			LineItemID: second.ID,
			UnitPrice:  decimal.NewFromInt(5),
		})
	}

	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{{SupplierID: supplierX, Quantity: 100}},
		},
		{
			ID: uuid.New(), LineItemID: second.ID, RequiredQuantity: second.RequiredQuantity,
			Entries: []model.AllocationEntry{{SupplierID: supplierY, Quantity: 50}},
		},
	}

	err := ValidateFinalize(tender, allocations, offers)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for two winners at GLOBAL level, got %v", err)
	}
}

func TestValidateFinalizeBudget(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	budget := decimal.NewFromInt(500)
	tender.BudgetMax = &budget

	// 60 * 10 + 40 * 12 = 1080 > 500
	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{
				{SupplierID: supplierX, Quantity: 60},
				{SupplierID: supplierY, Quantity: 40},
			},
		},
	}
	if err := ValidateFinalize(tender, allocations, offers); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for budget overrun, got %v", err)
	}

	// 40 * 10 = 400 <= 500
	allocations[0].Entries = []model.AllocationEntry{{SupplierID: supplierX, Quantity: 40}}
	if err := ValidateFinalize(tender, allocations, offers); err != nil {
		t.Fatalf("expected allocation within budget to pass, got %v", err)
	}
}

func TestValidateFinalizeMissingPriceIsFatal(t *testing.T) {
	tender, item, offers := tenderWithOffers(model.AwardLevelArticle)
	budget := decimal.NewFromInt(10000)
	tender.BudgetMax = &budget
	offers[0].Prices = nil

	allocations := []model.AwardAllocation{
		{
			ID: uuid.New(), LineItemID: item.ID, RequiredQuantity: item.RequiredQuantity,
			Entries: []model.AllocationEntry{{SupplierID: supplierX, Quantity: 10}},
		},
	}
	if err := ValidateFinalize(tender, allocations, offers); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity for missing price, got %v", err)
	}
}
