package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusSubmitted OfferStatus = "SUBMITTED"
	OfferStatusEvaluated OfferStatus = "EVALUATED"
	OfferStatusAwarded   OfferStatus = "AWARDED"
	OfferStatusRejected  OfferStatus = "REJECTED"
)

type OfferPrice struct {
	LineItemID uuid.UUID
	UnitPrice  decimal.Decimal
}

type OfferScore struct {
	Criterion string
	Score     float64 // 0–100
}

// Offer is a supplier's sealed bid. Prices stays empty on reads performed
// before the tender's opening date; the repository enforces that gate.
type Offer struct {
	ID          uuid.UUID
	TenderID    uuid.UUID
	SupplierID  uuid.UUID
	Status      OfferStatus
	TotalAmount decimal.Decimal
	SubmittedAt time.Time
	Prices      []OfferPrice `gorm:"-"`
	Scores      []OfferScore `gorm:"-"`
}

// UnitPrice returns the offered unit price for a line item, if present.
func (o *Offer) UnitPrice(lineItemID uuid.UUID) (decimal.Decimal, bool) {
	for _, p := range o.Prices {
		if p.LineItemID == lineItemID {
			return p.UnitPrice, true
		}
	}
	return decimal.Decimal{}, false
}

// SubScore returns the offer's sub-score for a named criterion.
func (o *Offer) SubScore(criterion string) (float64, bool) {
	for _, s := range o.Scores {
		if s.Criterion == criterion {
			return s.Score, true
		}
	}
	return 0, false
}
