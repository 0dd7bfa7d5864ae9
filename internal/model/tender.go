package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TenderStatus string

const (
	TenderStatusDraft     TenderStatus = "DRAFT"
	TenderStatusPublished TenderStatus = "PUBLISHED"
	TenderStatusClosed    TenderStatus = "CLOSED"
	TenderStatusAwarded   TenderStatus = "AWARDED"
	TenderStatusCancelled TenderStatus = "CANCELLED"
)

// tenderTransitions is the full transition table. AWARDED and CANCELLED are
// terminal: they have no outgoing edges.
var tenderTransitions = map[TenderStatus][]TenderStatus{
	TenderStatusDraft:     {TenderStatusPublished},
	TenderStatusPublished: {TenderStatusClosed, TenderStatusCancelled},
	TenderStatusClosed:    {TenderStatusAwarded, TenderStatusCancelled},
	TenderStatusAwarded:   {},
	TenderStatusCancelled: {},
}

func (s TenderStatus) CanTransitionTo(next TenderStatus) bool {
	for _, allowed := range tenderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TenderStatus) IsTerminal() bool {
	return s == TenderStatusAwarded || s == TenderStatusCancelled
}

type AwardLevel string

// AwardLevelGlobal forces the whole tender to a single supplier. LOT carries
// no lot grouping in this schema and behaves like ARTICLE: every line item may
// be split independently.
const (
	AwardLevelGlobal  AwardLevel = "GLOBAL"
	AwardLevelLot     AwardLevel = "LOT"
	AwardLevelArticle AwardLevel = "ARTICLE"
)

type EvaluationCriterion struct {
	Name   string
	Weight int // percent
}

// ValidateCriteria enforces the weight-sum invariant at the moment criteria
// are set on a tender; award-time code assumes it already holds.
func ValidateCriteria(criteria []EvaluationCriterion) error {
	if len(criteria) == 0 {
		return fmt.Errorf("at least one evaluation criterion is required")
	}
	sum := 0
	for _, c := range criteria {
		if c.Name == "" {
			return fmt.Errorf("criterion name must not be empty")
		}
		if c.Weight <= 0 {
			return fmt.Errorf("criterion %q: weight must be positive", c.Name)
		}
		sum += c.Weight
	}
	if sum != 100 {
		return fmt.Errorf("criteria weights must sum to 100, got %d", sum)
	}
	return nil
}

type Tender struct {
	ID                 uuid.UUID
	BuyerOrgID         uuid.UUID
	Name               string
	Status             TenderStatus
	AwardLevel         AwardLevel
	SubmissionDeadline time.Time
	OpeningDate        time.Time
	BudgetMax          *decimal.Decimal
	Version            int
	Criteria           []EvaluationCriterion `gorm:"-"`
	CreatedAt          time.Time
}

// Opened reports whether the sealed-bid reveal instant has passed.
func (t *Tender) Opened(now time.Time) bool {
	return !now.Before(t.OpeningDate)
}

type LineItem struct {
	ID               uuid.UUID
	TenderID         uuid.UUID
	Description      string
	RequiredQuantity int64
	Unit             string
}
