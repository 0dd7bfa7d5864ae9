package model

import "github.com/shopspring/decimal"

// PurchaseOrderDocument carries everything the PO PDF prints.
type PurchaseOrderDocument struct {
	Order    PurchaseOrder
	Tender   Tender
	Buyer    Organization
	Supplier Organization
}

type EvaluationRow struct {
	Offer       Offer
	SubScores   []float64 // aligned with the report's criteria order
	Composite   float64
	TotalAmount decimal.Decimal
}

// EvaluationReport feeds the xlsx export: one row per non-rejected offer,
// ranked by composite score descending.
type EvaluationReport struct {
	Tender   Tender
	Criteria []EvaluationCriterion
	Rows     []EvaluationRow
}
