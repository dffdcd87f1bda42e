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
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'bill_status') THEN
			CREATE TYPE bill_status AS ENUM ('DOWN_PAYMENT', 'INSTALLMENT', 'FINAL_INSTALLMENT');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		owner_id UUID NOT NULL,
		contract_number VARCHAR(128) NOT NULL,
		contract_date DATE NOT NULL,
		description TEXT NOT NULL,
		implementer TEXT NOT NULL,
		value NUMERIC(18,2) NOT NULL,
		realization NUMERIC(18,2) NOT NULL DEFAULT 0,
		remaining_value NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_owner_date ON contracts (owner_id, contract_date DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_owner_number ON contracts (owner_id, contract_number);`,
	`CREATE TABLE IF NOT EXISTS contract_addenda (
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		position INT NOT NULL,
		addendum_number VARCHAR(128) NOT NULL,
		addendum_date DATE NOT NULL,
		PRIMARY KEY (contract_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS bills (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		amount NUMERIC(18,2) NOT NULL,
		bill_date DATE NOT NULL,
		description TEXT NOT NULL,
		status bill_status NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bills_contract_id ON bills (contract_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
