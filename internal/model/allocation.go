package model

import (
	"time"

	"github.com/google/uuid"
)

type AllocationEntry struct {
	SupplierID uuid.UUID
	Quantity   int64
}

// AwardAllocation holds the buyer's chosen distribution of one line item's
// quantity across suppliers. Entries is replaced wholesale by distribute and
// frozen once LockedAt is set during finalize.
type AwardAllocation struct {
	ID               uuid.UUID
	TenderID         uuid.UUID
	LineItemID       uuid.UUID
	RequiredQuantity int64             // hydrated from the line_items join
	Entries          []AllocationEntry `gorm:"-"`
	LockedAt         *time.Time
	CreatedAt        time.Time
}

// AllocatedTotal sums the distributed quantity across suppliers.
func (a *AwardAllocation) AllocatedTotal() int64 {
	var total int64
	for _, e := range a.Entries {
		total += e.Quantity
	}
	return total
}
