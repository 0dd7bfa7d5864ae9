package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-awards/internal/model"
)

type TenderRepository struct {
	db *gorm.DB
}

func NewTenderRepository(db *gorm.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

func (r *TenderRepository) GetTender(ctx context.Context, id uuid.UUID) (*model.Tender, error) {
	var row struct {
		ID                 uuid.UUID
		BuyerOrgID         uuid.UUID
		Name               string
		Status             model.TenderStatus
		AwardLevel         model.AwardLevel
		SubmissionDeadline time.Time
		OpeningDate        time.Time
		BudgetMax          decimal.NullDecimal
		Version            int
		CreatedAt          time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			buyer_org_id,
			name,
			status,
			award_level,
			submission_deadline,
			opening_date,
			budget_max,
			version,
			created_at
		FROM tenders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	tender := &model.Tender{
		ID:                 row.ID,
		BuyerOrgID:         row.BuyerOrgID,
		Name:               row.Name,
		Status:             row.Status,
		AwardLevel:         row.AwardLevel,
		SubmissionDeadline: row.SubmissionDeadline,
		OpeningDate:        row.OpeningDate,
		Version:            row.Version,
		CreatedAt:          row.CreatedAt,
	}
	if row.BudgetMax.Valid {
		tender.BudgetMax = &row.BudgetMax.Decimal
	}

	var criteria []model.EvaluationCriterion
	err = r.db.WithContext(ctx).Raw(`
		SELECT name, weight
		FROM evaluation_criteria
		WHERE tender_id = ?
		ORDER BY position
	`, id).Scan(&criteria).Error
	if err != nil {
		return nil, err
	}
	tender.Criteria = criteria
	return tender, nil
}

func (r *TenderRepository) GetLineItems(ctx context.Context, tenderID uuid.UUID) ([]model.LineItem, error) {
	var items []model.LineItem
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, tender_id, description, required_quantity, unit
		FROM line_items
		WHERE tender_id = ?
		ORDER BY id
	`, tenderID).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetOffers loads the tender's offers. Price and score rows are hydrated only
// once the sealed-bid opening date has passed; before that offers come back
// with empty Prices and Scores so the buyer cannot see bid content early.
func (r *TenderRepository) GetOffers(ctx context.Context, tenderID uuid.UUID, now time.Time) ([]model.Offer, error) {
	var openingDate time.Time
	err := r.db.WithContext(ctx).Raw(`
		SELECT opening_date FROM tenders WHERE id = ?
	`, tenderID).Scan(&openingDate).Error
	if err != nil {
		return nil, err
	}
	if openingDate.IsZero() {
		return nil, gorm.ErrRecordNotFound
	}

	var offers []model.Offer
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, tender_id, supplier_id, status, total_amount, submitted_at
		FROM offers
		WHERE tender_id = ?
		ORDER BY submitted_at
	`, tenderID).Scan(&offers).Error
	if err != nil {
		return nil, err
	}
	if now.Before(openingDate) || len(offers) == 0 {
		return offers, nil
	}

	type priceRow struct {
		OfferID    uuid.UUID
		LineItemID uuid.UUID
		UnitPrice  decimal.Decimal
	}
	var prices []priceRow
	err = r.db.WithContext(ctx).Raw(`
		SELECT p.offer_id, p.line_item_id, p.unit_price
		FROM offer_prices p
		JOIN offers o ON o.id = p.offer_id
		WHERE o.tender_id = ?
	`, tenderID).Scan(&prices).Error
	if err != nil {
		return nil, err
	}

	type scoreRow struct {
		OfferID   uuid.UUID
		Criterion string
		Score     float64
	}
	var scores []scoreRow
	err = r.db.WithContext(ctx).Raw(`
		SELECT s.offer_id, s.criterion, s.score
		FROM offer_scores s
		JOIN offers o ON o.id = s.offer_id
		WHERE o.tender_id = ?
	`, tenderID).Scan(&scores).Error
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]int, len(offers))
	for i := range offers {
		index[offers[i].ID] = i
	}
	for _, p := range prices {
		if i, ok := index[p.OfferID]; ok {
			offers[i].Prices = append(offers[i].Prices, model.OfferPrice{
				LineItemID: p.LineItemID,
				UnitPrice:  p.UnitPrice,
			})
		}
	}
	for _, s := range scores {
		if i, ok := index[s.OfferID]; ok {
			offers[i].Scores = append(offers[i].Scores, model.OfferScore{
				Criterion: s.Criterion,
				Score:     s.Score,
			})
		}
	}
	return offers, nil
}

func (r *TenderRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, type, bin, head_full_name, address, phone
		FROM organizations
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &org, nil
}
