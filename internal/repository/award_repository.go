package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-awards/internal/award"
	"github.com/nurpe/tender-awards/internal/model"
)

type AwardRepository struct {
	db *gorm.DB
}

func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{db: db}
}

func (r *AwardRepository) GetAllocations(ctx context.Context, tenderID uuid.UUID) ([]model.AwardAllocation, error) {
	return loadAllocations(r.db.WithContext(ctx), tenderID, false)
}

// CreateAllocations inserts one empty allocation per line item. The unique
// index on line_item_id makes retried requests converge on the same rows.
func (r *AwardRepository) CreateAllocations(ctx context.Context, tenderID uuid.UUID, items []model.LineItem) ([]model.AwardAllocation, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Exec(`
				INSERT INTO award_allocations (tender_id, line_item_id)
				VALUES (?, ?)
				ON CONFLICT (line_item_id) DO NOTHING
			`, tenderID, item.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetAllocations(ctx, tenderID)
}

// ReplaceDistribution rewrites one line item's entry rows wholesale. The
// allocation row is locked and the quantity sum is re-checked against the
// line item inside the same transaction, so concurrent distributes on the
// same line item serialize instead of both passing on a stale sum.
func (r *AwardRepository) ReplaceDistribution(
	ctx context.Context,
	tenderID, lineItemID uuid.UUID,
	entries []model.AllocationEntry,
) (*model.AwardAllocation, error) {
	var result *model.AwardAllocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			ID               uuid.UUID
			Locked           bool
			RequiredQuantity int64
			Status           model.TenderStatus
		}
		err := tx.Raw(`
			SELECT
				a.id,
				a.locked_at IS NOT NULL AS locked,
				li.required_quantity,
				t.status
			FROM award_allocations a
			JOIN line_items li ON li.id = a.line_item_id
			JOIN tenders t ON t.id = a.tender_id
			WHERE a.tender_id = ? AND a.line_item_id = ?
			FOR UPDATE OF a
		`, tenderID, lineItemID).Scan(&row).Error
		if err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return fmt.Errorf("%w: award has not been initialized for line item %s", award.ErrInvalidState, lineItemID)
		}
		if row.Locked || row.Status != model.TenderStatusClosed {
			return fmt.Errorf("%w: allocation is no longer editable (tender %s)", award.ErrConflict, row.Status)
		}

		var total int64
		for _, e := range entries {
			if e.Quantity < 0 {
				return fmt.Errorf("%w: negative quantity for supplier %s", award.ErrValidation, e.SupplierID)
			}
			total += e.Quantity
		}
		if total > row.RequiredQuantity {
			return fmt.Errorf("%w: allocated %d exceeds required quantity %d", award.ErrValidation, total, row.RequiredQuantity)
		}

		if err := tx.Exec(`
			DELETE FROM award_allocation_entries WHERE allocation_id = ?
		`, row.ID).Error; err != nil {
			return err
		}
		for _, e := range entries {
			if err := tx.Exec(`
				INSERT INTO award_allocation_entries (allocation_id, supplier_id, quantity)
				VALUES (?, ?, ?)
			`, row.ID, e.SupplierID, e.Quantity).Error; err != nil {
				return err
			}
		}

		allocations, err := loadAllocationsWhere(tx, `a.id = ?`, row.ID)
		if err != nil {
			return err
		}
		if len(allocations) != 1 {
			return gorm.ErrRecordNotFound
		}
		result = &allocations[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FinalizeAward is the single writer of the AWARDED status. It locks the
// tender row, re-checks the state, re-reads the allocations, asks build for
// the purchase orders, persists them, freezes the allocations and performs
// the status transition with an optimistic version check. Either everything
// commits or nothing does.
func (r *AwardRepository) FinalizeAward(
	ctx context.Context,
	tender *model.Tender,
	build func(allocations []model.AwardAllocation) ([]model.PurchaseOrder, error),
) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			ID      uuid.UUID
			Status  model.TenderStatus
			Version int
		}
		err := tx.Raw(`
			SELECT id, status, version
			FROM tenders
			WHERE id = ?
			FOR UPDATE
		`, tender.ID).Scan(&row).Error
		if err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if row.Status.IsTerminal() {
			return fmt.Errorf("%w: tender is already %s", award.ErrConflict, row.Status)
		}
		if !row.Status.CanTransitionTo(model.TenderStatusAwarded) {
			return fmt.Errorf("%w: cannot transition %s -> AWARDED", award.ErrInvalidState, row.Status)
		}

		allocations, err := loadAllocations(tx, tender.ID, true)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return fmt.Errorf("%w: award has not been initialized", award.ErrInvalidState)
		}

		built, err := build(allocations)
		if err != nil {
			return err
		}

		winners := make([]uuid.UUID, 0, len(built))
		for _, po := range built {
			if err := tx.Exec(`
				INSERT INTO purchase_orders (id, tender_id, supplier_id, po_number, status, total_price)
				VALUES (?, ?, ?, ?, ?, ?)
			`, po.ID, po.TenderID, po.SupplierID, po.PONumber, po.Status, po.TotalPrice).Error; err != nil {
				return err
			}
			for _, line := range po.Lines {
				if err := tx.Exec(`
					INSERT INTO purchase_order_lines (purchase_order_id, line_item_id, quantity, unit_price, line_total)
					VALUES (?, ?, ?, ?, ?)
				`, po.ID, line.LineItemID, line.Quantity, line.UnitPrice, line.LineTotal).Error; err != nil {
					return err
				}
			}
			winners = append(winners, po.SupplierID)
		}

		if err := tx.Exec(`
			UPDATE award_allocations SET locked_at = NOW() WHERE tender_id = ?
		`, tender.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			UPDATE offers SET status = 'AWARDED'
			WHERE tender_id = ? AND supplier_id IN ? AND status <> 'REJECTED'
		`, tender.ID, winners).Error; err != nil {
			return err
		}

		update := tx.Exec(`
			UPDATE tenders
			SET status = 'AWARDED', version = version + 1
			WHERE id = ? AND version = ?
		`, tender.ID, row.Version)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return fmt.Errorf("%w: tender was modified concurrently", award.ErrConflict)
		}

		orders = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *AwardRepository) GetPurchaseOrder(ctx context.Context, tenderID, orderID uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, tender_id, supplier_id, po_number, status, total_price, created_at
		FROM purchase_orders
		WHERE id = ? AND tender_id = ?
		LIMIT 1
	`, orderID, tenderID).Scan(&po).Error
	if err != nil {
		return nil, err
	}
	if po.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	type lineRow struct {
		LineItemID  uuid.UUID
		Description string
		Unit        string
		Quantity    int64
		UnitPrice   decimal.Decimal
		LineTotal   decimal.Decimal
	}
	var lines []lineRow
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			l.line_item_id,
			li.description,
			li.unit,
			l.quantity,
			l.unit_price,
			l.line_total
		FROM purchase_order_lines l
		JOIN line_items li ON li.id = l.line_item_id
		WHERE l.purchase_order_id = ?
		ORDER BY l.line_item_id
	`, orderID).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		po.Lines = append(po.Lines, model.PurchaseOrderLine{
			LineItemID:  l.LineItemID,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}
	return &po, nil
}

func loadAllocations(tx *gorm.DB, tenderID uuid.UUID, forUpdate bool) ([]model.AwardAllocation, error) {
	if forUpdate {
		// finalize holds the tender row lock; locking the allocation rows too
		// blocks in-flight distributes until the transaction settles.
		var ids []uuid.UUID
		if err := tx.Raw(`
			SELECT id FROM award_allocations WHERE tender_id = ? ORDER BY id FOR UPDATE
		`, tenderID).Scan(&ids).Error; err != nil {
			return nil, err
		}
	}
	return loadAllocationsWhere(tx, `a.tender_id = ?`, tenderID)
}

func loadAllocationsWhere(tx *gorm.DB, where string, arg interface{}) ([]model.AwardAllocation, error) {
	var rows []model.AwardAllocation
	err := tx.Raw(fmt.Sprintf(`
		SELECT
			a.id,
			a.tender_id,
			a.line_item_id,
			li.required_quantity,
			a.locked_at,
			a.created_at
		FROM award_allocations a
		JOIN line_items li ON li.id = a.line_item_id
		WHERE %s
		ORDER BY a.line_item_id
	`, where), arg).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
		index[rows[i].ID] = i
	}

	type entryRow struct {
		AllocationID uuid.UUID
		SupplierID   uuid.UUID
		Quantity     int64
	}
	var entries []entryRow
	err = tx.Raw(`
		SELECT allocation_id, supplier_id, quantity
		FROM award_allocation_entries
		WHERE allocation_id IN ?
		ORDER BY supplier_id
	`, ids).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if i, ok := index[e.AllocationID]; ok {
			rows[i].Entries = append(rows[i].Entries, model.AllocationEntry{
				SupplierID: e.SupplierID,
				Quantity:   e.Quantity,
			})
		}
	}
	return rows, nil
}
