package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'tender_status') THEN
			CREATE TYPE tender_status AS ENUM ('DRAFT', 'PUBLISHED', 'CLOSED', 'AWARDED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'award_level') THEN
			CREATE TYPE award_level AS ENUM ('GLOBAL', 'LOT', 'ARTICLE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'offer_status') THEN
			CREATE TYPE offer_status AS ENUM ('SUBMITTED', 'EVALUATED', 'AWARDED', 'REJECTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'purchase_order_status') THEN
			CREATE TYPE purchase_order_status AS ENUM ('APPROVED', 'INVOICED', 'PAID', 'CANCELLED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		type VARCHAR(32) NOT NULL,
		bin VARCHAR(32) NOT NULL DEFAULT '',
		head_full_name VARCHAR(255) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS tenders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		buyer_org_id UUID NOT NULL REFERENCES organizations(id),
		name VARCHAR(255) NOT NULL,
		status tender_status NOT NULL DEFAULT 'DRAFT',
		award_level award_level NOT NULL DEFAULT 'ARTICLE',
		submission_deadline TIMESTAMPTZ NOT NULL,
		opening_date TIMESTAMPTZ NOT NULL,
		budget_max NUMERIC(18,2),
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS evaluation_criteria (
		tender_id UUID NOT NULL REFERENCES tenders(id) ON DELETE CASCADE,
		position INT NOT NULL,
		name VARCHAR(128) NOT NULL,
		weight INT NOT NULL CHECK (weight > 0),
		PRIMARY KEY (tender_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS line_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tender_id UUID NOT NULL REFERENCES tenders(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		required_quantity BIGINT NOT NULL CHECK (required_quantity > 0),
		unit VARCHAR(32) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tender_id UUID NOT NULL REFERENCES tenders(id),
		supplier_id UUID NOT NULL REFERENCES organizations(id),
		status offer_status NOT NULL DEFAULT 'SUBMITTED',
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tender_id, supplier_id)
	);`,
	`CREATE TABLE IF NOT EXISTS offer_prices (
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		line_item_id UUID NOT NULL REFERENCES line_items(id),
		unit_price NUMERIC(18,4) NOT NULL CHECK (unit_price >= 0),
		PRIMARY KEY (offer_id, line_item_id)
	);`,
	`CREATE TABLE IF NOT EXISTS offer_scores (
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		criterion VARCHAR(128) NOT NULL,
		score NUMERIC(5,2) NOT NULL CHECK (score >= 0 AND score <= 100),
		PRIMARY KEY (offer_id, criterion)
	);`,
	`CREATE TABLE IF NOT EXISTS award_allocations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tender_id UUID NOT NULL REFERENCES tenders(id),
		line_item_id UUID NOT NULL REFERENCES line_items(id),
		locked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (line_item_id)
	);`,
	`CREATE TABLE IF NOT EXISTS award_allocation_entries (
		allocation_id UUID NOT NULL REFERENCES award_allocations(id) ON DELETE CASCADE,
		supplier_id UUID NOT NULL REFERENCES organizations(id),
		quantity BIGINT NOT NULL CHECK (quantity >= 0),
		PRIMARY KEY (allocation_id, supplier_id)
	);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id UUID PRIMARY KEY,
		tender_id UUID NOT NULL REFERENCES tenders(id),
		supplier_id UUID NOT NULL REFERENCES organizations(id),
		po_number VARCHAR(64) NOT NULL,
		status purchase_order_status NOT NULL DEFAULT 'APPROVED',
		total_price NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tender_id, supplier_id)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_po_number ON purchase_orders (po_number);`,
	`CREATE TABLE IF NOT EXISTS purchase_order_lines (
		purchase_order_id UUID NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		line_item_id UUID NOT NULL REFERENCES line_items(id),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(18,4) NOT NULL,
		line_total NUMERIC(18,2) NOT NULL,
		PRIMARY KEY (purchase_order_id, line_item_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tenders_status ON tenders (status);`,
	`CREATE INDEX IF NOT EXISTS idx_offers_tender_id ON offers (tender_id);`,
	`CREATE INDEX IF NOT EXISTS idx_line_items_tender_id ON line_items (tender_id);`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_tender_id ON award_allocations (tender_id);`,
	`CREATE INDEX IF NOT EXISTS idx_po_tender_id ON purchase_orders (tender_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
