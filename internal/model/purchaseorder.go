package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	POStatusApproved  PurchaseOrderStatus = "APPROVED"
	POStatusInvoiced  PurchaseOrderStatus = "INVOICED"
	POStatusPaid      PurchaseOrderStatus = "PAID"
	POStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

type PurchaseOrderLine struct {
	LineItemID  uuid.UUID
	Description string
	Unit        string
	Quantity    int64
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// PurchaseOrder is created exactly once per winning supplier when an award is
// finalized. The allocation engine never mutates it afterward; later status
// changes belong to the invoicing flow.
type PurchaseOrder struct {
	ID         uuid.UUID
	TenderID   uuid.UUID
	SupplierID uuid.UUID
	PONumber   string
	Status     PurchaseOrderStatus
	TotalPrice decimal.Decimal
	Lines      []PurchaseOrderLine `gorm:"-"`
	CreatedAt  time.Time
}
