package award

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-awards/internal/model"
)

// ValidateDistribution checks a proposed distribution for one line item:
// non-negative quantities, no duplicate suppliers, sum within the required
// quantity, every supplier backed by a non-rejected offer, and the single
// supplier restriction when the tender is awarded globally.
// Partial awards (sum below required) are legal.
func ValidateDistribution(
	t *model.Tender,
	item *model.LineItem,
	offers []model.Offer,
	entries []model.AllocationEntry,
) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: distribution must not be empty", ErrValidation)
	}
	if t.AwardLevel == model.AwardLevelGlobal && len(entries) > 1 {
		return fmt.Errorf("%w: award level GLOBAL allows a single supplier per line item", ErrValidation)
	}

	eligible := make(map[uuid.UUID]bool, len(offers))
	for _, o := range offers {
		if o.Status != model.OfferStatusRejected {
			eligible[o.SupplierID] = true
		}
	}

	seen := make(map[uuid.UUID]bool, len(entries))
	var total int64
	for _, e := range entries {
		if e.Quantity < 0 {
			return fmt.Errorf("%w: quantity for supplier %s must not be negative", ErrValidation, e.SupplierID)
		}
		if seen[e.SupplierID] {
			return fmt.Errorf("%w: supplier %s listed twice", ErrValidation, e.SupplierID)
		}
		seen[e.SupplierID] = true
		if !eligible[e.SupplierID] {
			return fmt.Errorf("%w: supplier %s has no eligible offer on this tender", ErrValidation, e.SupplierID)
		}
		total += e.Quantity
	}
	if total > item.RequiredQuantity {
		return fmt.Errorf("%w: allocated %d exceeds required quantity %d", ErrValidation, total, item.RequiredQuantity)
	}
	return nil
}

// ValidateFinalize checks the allocation set as a whole right before purchase
// orders are generated: at least one unit allocated overall, per-line sums
// still within bounds, a single supplier across the whole tender when the
// award level is GLOBAL, and the optional budget ceiling.
func ValidateFinalize(t *model.Tender, allocations []model.AwardAllocation, offers []model.Offer) error {
	var overall int64
	suppliers := make(map[uuid.UUID]bool)
	for i := range allocations {
		a := &allocations[i]
		sum := a.AllocatedTotal()
		if sum > a.RequiredQuantity {
			return fmt.Errorf("%w: line item %s over-allocated (%d > %d)",
				ErrValidation, a.LineItemID, sum, a.RequiredQuantity)
		}
		overall += sum
		for _, e := range a.Entries {
			if e.Quantity > 0 {
				suppliers[e.SupplierID] = true
			}
		}
	}
	if overall == 0 {
		return fmt.Errorf("%w: nothing to award, all distributions are empty", ErrValidation)
	}
	if t.AwardLevel == model.AwardLevelGlobal && len(suppliers) > 1 {
		return fmt.Errorf("%w: award level GLOBAL requires a single supplier for the whole tender", ErrValidation)
	}
	if t.BudgetMax != nil {
		total, err := allocationValue(allocations, offers)
		if err != nil {
			return err
		}
		if total.GreaterThan(*t.BudgetMax) {
			return fmt.Errorf("%w: allocated value %s exceeds budget %s",
				ErrValidation, total.String(), t.BudgetMax.String())
		}
	}
	return nil
}

// allocationValue prices the whole allocation against the suppliers' offers.
func allocationValue(allocations []model.AwardAllocation, offers []model.Offer) (decimal.Decimal, error) {
	bySupplier := make(map[uuid.UUID]*model.Offer, len(offers))
	for i := range offers {
		bySupplier[offers[i].SupplierID] = &offers[i]
	}

	total := decimal.Zero
	for i := range allocations {
		a := &allocations[i]
		for _, e := range a.Entries {
			if e.Quantity == 0 {
				continue
			}
			offer, ok := bySupplier[e.SupplierID]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: supplier %s allocated without an offer", ErrDataIntegrity, e.SupplierID)
			}
			price, ok := offer.UnitPrice(a.LineItemID)
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: offer %s carries no price for line item %s",
					ErrDataIntegrity, offer.ID, a.LineItemID)
			}
			total = total.Add(price.Mul(decimal.NewFromInt(e.Quantity)))
		}
	}
	return total, nil
}
