package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS btree_gist;`,
	`CREATE TABLE IF NOT EXISTS disposers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		legal_name VARCHAR(255) NOT NULL,
		trade_name VARCHAR(255),
		tax_id VARCHAR(20) NOT NULL,
		website VARCHAR(255),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_disposers_tax_id ON disposers (tax_id);`,
	`CREATE TABLE IF NOT EXISTS disposer_contacts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		disposer_id UUID NOT NULL REFERENCES disposers(id) ON DELETE CASCADE,
		contact_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(20),
		role VARCHAR(100),
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_disposer_contacts_disposer_id ON disposer_contacts (disposer_id);`,
	`CREATE TABLE IF NOT EXISTS uoms (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(10) NOT NULL UNIQUE,
		description VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS currencies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(5) NOT NULL UNIQUE,
		symbol VARCHAR(10) NOT NULL,
		decimals INT NOT NULL DEFAULT 2
	);`,
	`CREATE TABLE IF NOT EXISTS waste_types (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT,
		color VARCHAR(7),
		icon VARCHAR(50),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS waste_categories (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		waste_type_id UUID NOT NULL REFERENCES waste_types(id) ON DELETE RESTRICT,
		code VARCHAR(30) NOT NULL UNIQUE,
		name VARCHAR(150) NOT NULL UNIQUE,
		description TEXT,
		technical_specs JSONB,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_waste_categories_type_id ON waste_categories (waste_type_id);`,
	`CREATE TABLE IF NOT EXISTS wastes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		waste_category_id UUID REFERENCES waste_categories(id) ON DELETE RESTRICT,
		code VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL UNIQUE,
		subproduct_name VARCHAR(255),
		description TEXT,
		hazard_class VARCHAR(10),
		specifications JSONB,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_wastes_category_id ON wastes (waste_category_id) WHERE waste_category_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS disposer_wastes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		disposer_id UUID NOT NULL REFERENCES disposers(id) ON DELETE RESTRICT,
		waste_id UUID NOT NULL REFERENCES wastes(id) ON DELETE RESTRICT,
		uom_id UUID NOT NULL REFERENCES uoms(id),
		currency_id UUID NOT NULL REFERENCES currencies(id),
		min_lot NUMERIC(10,2),
		lead_time_days INT,
		notes TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (disposer_id, waste_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_disposer_wastes_waste_id ON disposer_wastes (waste_id);`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		disposer_waste_id UUID NOT NULL REFERENCES disposer_wastes(id) ON DELETE RESTRICT,
		price NUMERIC(15,4) NOT NULL CHECK (price > 0),
		price_period TSTZRANGE NOT NULL,
		source VARCHAR(255),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_relation_id ON price_history (disposer_waste_id);`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_period ON price_history USING gist (price_period);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_price_history_open ON price_history (disposer_waste_id) WHERE upper_inf(price_period);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'excl_price_history_overlap') THEN
			ALTER TABLE price_history
				ADD CONSTRAINT excl_price_history_overlap
				EXCLUDE USING gist (disposer_waste_id WITH =, price_period WITH &&);
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
