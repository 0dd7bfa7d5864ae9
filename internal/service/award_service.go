package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/tender-awards/internal/award"
	"github.com/nurpe/tender-awards/internal/config"
	"github.com/nurpe/tender-awards/internal/model"
	"github.com/nurpe/tender-awards/internal/notify"
)

// TenderRepository is the read side: tenders, line items, offers and parties.
// Offer prices are hydrated only once the tender's opening date has passed.
type TenderRepository interface {
	GetTender(ctx context.Context, id uuid.UUID) (*model.Tender, error)
	GetLineItems(ctx context.Context, tenderID uuid.UUID) ([]model.LineItem, error)
	GetOffers(ctx context.Context, tenderID uuid.UUID, now time.Time) ([]model.Offer, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error)
}

// AwardRepository owns allocation and purchase-order state. Every mutation
// runs as one transaction; FinalizeAward additionally locks the tender row and
// re-reads the allocations before handing them to build.
type AwardRepository interface {
	GetAllocations(ctx context.Context, tenderID uuid.UUID) ([]model.AwardAllocation, error)
	CreateAllocations(ctx context.Context, tenderID uuid.UUID, items []model.LineItem) ([]model.AwardAllocation, error)
	ReplaceDistribution(ctx context.Context, tenderID, lineItemID uuid.UUID, entries []model.AllocationEntry) (*model.AwardAllocation, error)
	FinalizeAward(ctx context.Context, tender *model.Tender,
		build func(allocations []model.AwardAllocation) ([]model.PurchaseOrder, error)) ([]model.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, tenderID, orderID uuid.UUID) (*model.PurchaseOrder, error)
}

type PDFGenerator interface {
	Generate(doc model.PurchaseOrderDocument) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(report model.EvaluationReport) ([]byte, error)
}

type AwardService struct {
	tenders  TenderRepository
	awards   AwardRepository
	notifier notify.Notifier
	pdf      PDFGenerator
	excel    ExcelGenerator
	log      zerolog.Logger
	poPrefix string
	now      func() time.Time
}

func NewAwardService(
	tenders TenderRepository,
	awards AwardRepository,
	notifier notify.Notifier,
	pdf PDFGenerator,
	excel ExcelGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) *AwardService {
	return &AwardService{
		tenders:  tenders,
		awards:   awards,
		notifier: notifier,
		pdf:      pdf,
		excel:    excel,
		log:      log,
		poPrefix: cfg.Awards.PONumberPrefix,
		now:      time.Now,
	}
}

type InitializeAwardInput struct {
	TenderID    uuid.UUID
	LineItemIDs []uuid.UUID
	Principal   model.Principal
}

// InitializeAward creates one empty allocation per requested line item.
// Calling it again before finalize is a no-op returning the existing records,
// so retried requests cannot duplicate state.
func (s *AwardService) InitializeAward(ctx context.Context, input InitializeAwardInput) ([]model.AwardAllocation, error) {
	if len(input.LineItemIDs) == 0 {
		return nil, fmt.Errorf("%w: lineItems must not be empty", award.ErrValidation)
	}

	tender, err := s.getOwnedTender(ctx, input.TenderID, input.Principal)
	if err != nil {
		return nil, err
	}
	if tender.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: tender is already %s", award.ErrConflict, tender.Status)
	}
	if err := award.CanInitializeAward(tender, s.now()); err != nil {
		return nil, err
	}

	items, err := s.tenders.GetLineItems(ctx, input.TenderID)
	if err != nil {
		return nil, err
	}
	itemByID := make(map[uuid.UUID]model.LineItem, len(items))
	for _, item := range items {
		itemByID[item.ID] = item
	}
	selected := make([]model.LineItem, 0, len(input.LineItemIDs))
	for _, id := range input.LineItemIDs {
		item, ok := itemByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: line item %s does not belong to tender %s", award.ErrValidation, id, input.TenderID)
		}
		selected = append(selected, item)
	}

	existing, err := s.awards.GetAllocations(ctx, input.TenderID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.audit("award.init", tender.ID, input.Principal).Bool("idempotent", true).Msg("award already initialized")
		return existing, nil
	}

	allocations, err := s.awards.CreateAllocations(ctx, input.TenderID, selected)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.audit("award.init", tender.ID, input.Principal).Int("line_items", len(allocations)).Msg("award initialized")
	return allocations, nil
}

type DistributeInput struct {
	TenderID   uuid.UUID
	LineItemID uuid.UUID
	Entries    []model.AllocationEntry
	Principal  model.Principal
}

// Distribute replaces a line item's distribution wholesale. It may be called
// repeatedly to correct mistakes until the tender is finalized.
func (s *AwardService) Distribute(ctx context.Context, input DistributeInput) (*model.AwardAllocation, error) {
	tender, err := s.getOwnedTender(ctx, input.TenderID, input.Principal)
	if err != nil {
		return nil, err
	}
	if err := award.CanDistribute(tender); err != nil {
		return nil, err
	}

	items, err := s.tenders.GetLineItems(ctx, input.TenderID)
	if err != nil {
		return nil, err
	}
	var item *model.LineItem
	for i := range items {
		if items[i].ID == input.LineItemID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("%w: line item %s", award.ErrNotFound, input.LineItemID)
	}

	offers, err := s.tenders.GetOffers(ctx, input.TenderID, s.now())
	if err != nil {
		return nil, err
	}
	if err := award.ValidateDistribution(tender, item, offers, input.Entries); err != nil {
		return nil, err
	}

	// The repository re-checks the quantity sum against the line item inside
	// the same transaction that rewrites the entries, so two concurrent
	// distributes on one line item cannot both pass on a stale sum.
	allocation, err := s.awards.ReplaceDistribution(ctx, input.TenderID, input.LineItemID, input.Entries)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.audit("award.distribute", tender.ID, input.Principal).
		Str("line_item_id", input.LineItemID.String()).
		Int64("allocated", allocation.AllocatedTotal()).
		Msg("distribution replaced")
	return allocation, nil
}

// GetDetails returns the tender's allocation records. Pricing never travels
// through this projection, but access is still refused before the opening
// date as defense in depth on top of the repository's read gate.
func (s *AwardService) GetDetails(ctx context.Context, tenderID uuid.UUID, principal model.Principal) ([]model.AwardAllocation, error) {
	tender, err := s.getOwnedTender(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}
	if !tender.Opened(s.now()) {
		return nil, fmt.Errorf("%w: offers are sealed until %s", award.ErrInvalidState, tender.OpeningDate.Format(time.RFC3339))
	}
	return s.awards.GetAllocations(ctx, tenderID)
}

// Scores returns the weighted composite per eligible offer as a decision aid.
func (s *AwardService) Scores(ctx context.Context, tenderID uuid.UUID, principal model.Principal) ([]award.OfferScoreResult, error) {
	tender, err := s.getOwnedTender(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}
	if !tender.Opened(s.now()) {
		return nil, fmt.Errorf("%w: offers are sealed until %s", award.ErrInvalidState, tender.OpeningDate.Format(time.RFC3339))
	}
	offers, err := s.tenders.GetOffers(ctx, tenderID, s.now())
	if err != nil {
		return nil, err
	}
	results, err := award.ScoreAll(offers, tender.Criteria)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Composite > results[j].Composite })
	return results, nil
}

type FinalizeResult struct {
	PurchaseOrders []model.PurchaseOrder
	SupplierCount  int
	Warnings       []string
}

// Finalize locks the allocation, generates one purchase order per winning
// supplier, transitions the tender to AWARDED and notifies winners and losers.
// The persistence steps run as one transaction in the repository; notification
// failures do not roll it back and come back as warnings.
func (s *AwardService) Finalize(ctx context.Context, tenderID uuid.UUID, principal model.Principal) (*FinalizeResult, error) {
	tender, err := s.getOwnedTender(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}
	allocations, err := s.awards.GetAllocations(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if err := award.CanFinalize(tender, allocations); err != nil {
		return nil, err
	}

	items, err := s.tenders.GetLineItems(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	offers, err := s.tenders.GetOffers(ctx, tenderID, s.now())
	if err != nil {
		return nil, err
	}

	build := func(current []model.AwardAllocation) ([]model.PurchaseOrder, error) {
		if err := award.ValidateFinalize(tender, current, offers); err != nil {
			return nil, err
		}
		return award.BuildPurchaseOrders(tender, items, current, offers, func(seq int) string {
			return s.poNumber(tender.ID, seq)
		})
	}

	orders, err := s.awards.FinalizeAward(ctx, tender, build)
	if err != nil {
		return nil, mapStoreError(err)
	}

	warnings := s.dispatchNotifications(ctx, tender.ID, orders, offers)
	s.audit("award.finalize", tender.ID, principal).
		Int("purchase_orders", len(orders)).
		Int("warnings", len(warnings)).
		Msg("award finalized")

	return &FinalizeResult{
		PurchaseOrders: orders,
		SupplierCount:  len(orders),
		Warnings:       warnings,
	}, nil
}

// dispatchNotifications runs after the finalize commit. Best effort: each
// failed delivery becomes one warning in the response.
func (s *AwardService) dispatchNotifications(ctx context.Context, tenderID uuid.UUID, orders []model.PurchaseOrder, offers []model.Offer) []string {
	var warnings []string
	winners := make(map[uuid.UUID]bool, len(orders))
	for _, po := range orders {
		winners[po.SupplierID] = true
		event := notify.Event{
			Type:       notify.EventAwardWon,
			TenderID:   tenderID,
			SupplierID: po.SupplierID,
			PONumber:   po.PONumber,
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("supplier_id", po.SupplierID.String()).Msg("winner notification failed")
			warnings = append(warnings, fmt.Sprintf("failed to notify supplier %s", po.SupplierID))
		}
	}
	for _, offer := range offers {
		if offer.Status == model.OfferStatusRejected || winners[offer.SupplierID] {
			continue
		}
		event := notify.Event{
			Type:       notify.EventAwardLost,
			TenderID:   tenderID,
			SupplierID: offer.SupplierID,
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("supplier_id", offer.SupplierID.String()).Msg("loser notification failed")
			warnings = append(warnings, fmt.Sprintf("failed to notify supplier %s", offer.SupplierID))
		}
	}
	return warnings
}

type DocumentResult struct {
	FileName string
	Content  []byte
}

// PurchaseOrderPDF renders one finalized purchase order as a PDF document.
func (s *AwardService) PurchaseOrderPDF(ctx context.Context, tenderID, orderID uuid.UUID, principal model.Principal) (*DocumentResult, error) {
	tender, err := s.getOwnedTender(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}
	order, err := s.awards.GetPurchaseOrder(ctx, tenderID, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	buyer, err := s.tenders.GetOrganization(ctx, tender.BuyerOrgID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	supplier, err := s.tenders.GetOrganization(ctx, order.SupplierID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	content, err := s.pdf.Generate(model.PurchaseOrderDocument{
		Order:    *order,
		Tender:   *tender,
		Buyer:    *buyer,
		Supplier: *supplier,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		FileName: fmt.Sprintf("%s.pdf", strings.ToLower(order.PONumber)),
		Content:  content,
	}, nil
}

// EvaluationExport renders the offer ranking workbook for a revealed tender.
func (s *AwardService) EvaluationExport(ctx context.Context, tenderID uuid.UUID, principal model.Principal) (*DocumentResult, error) {
	tender, err := s.getOwnedTender(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}
	scores, err := s.Scores(ctx, tenderID, principal)
	if err != nil {
		return nil, err
	}

	rows := make([]model.EvaluationRow, 0, len(scores))
	for _, result := range scores {
		subs := make([]float64, 0, len(tender.Criteria))
		for _, c := range tender.Criteria {
			sub, _ := result.Offer.SubScore(c.Name)
			subs = append(subs, sub)
		}
		rows = append(rows, model.EvaluationRow{
			Offer:       *result.Offer,
			SubScores:   subs,
			Composite:   result.Composite,
			TotalAmount: result.Offer.TotalAmount,
		})
	}

	content, err := s.excel.Generate(model.EvaluationReport{
		Tender:   *tender,
		Criteria: tender.Criteria,
		Rows:     rows,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		FileName: fmt.Sprintf("evaluation-%s.xlsx", tenderID),
		Content:  content,
	}, nil
}

func (s *AwardService) getOwnedTender(ctx context.Context, tenderID uuid.UUID, principal model.Principal) (*model.Tender, error) {
	tender, err := s.tenders.GetTender(ctx, tenderID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !principal.OwnsTender(tender) {
		return nil, award.ErrPermissionDenied
	}
	return tender, nil
}

func (s *AwardService) poNumber(tenderID uuid.UUID, seq int) string {
	short := strings.ToUpper(strings.ReplaceAll(tenderID.String(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%03d", s.poPrefix, short, seq)
}

func (s *AwardService) audit(action string, tenderID uuid.UUID, principal model.Principal) *zerolog.Event {
	return s.log.Info().
		Str("audit", action).
		Str("tender_id", tenderID.String()).
		Str("actor_id", principal.UserID.String())
}

func mapStoreError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", award.ErrNotFound, err)
	}
	return err
}
