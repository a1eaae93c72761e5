package infra

import (
	"fmt"

	"factorylink/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and tunes the pool.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	return db, nil
}

// Migrate creates or updates every table and then applies the constraints and
// sequences AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Supplier{},
		&model.Material{},
		&model.MaterialTransaction{},
		&model.Product{},
		&model.BOMEntry{},
		&model.Order{},
		&model.OrderItem{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.MaterialPriceHistory{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL. Each statement is guarded so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"materials non-negative stock", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_materials_stock_non_negative') THEN
    ALTER TABLE materials ADD CONSTRAINT chk_materials_stock_non_negative CHECK (current_stock >= 0);
  END IF;
END $$`},
		{"material_transactions positive quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_material_transactions_qty') THEN
    ALTER TABLE material_transactions ADD CONSTRAINT chk_material_transactions_qty
      CHECK (quantity > 0 AND type IN ('in', 'out'));
  END IF;
END $$`},
		{"bom_entries positive quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_bom_entries_qty') THEN
    ALTER TABLE bom_entries ADD CONSTRAINT chk_bom_entries_qty CHECK (quantity_per_unit > 0);
  END IF;
END $$`},
		{"orders status domain", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_orders_status') THEN
    ALTER TABLE orders ADD CONSTRAINT chk_orders_status
      CHECK (status IN ('new', 'manufacturing', 'completed', 'shipped'));
  END IF;
END $$`},
		{"order number sequence", `CREATE SEQUENCE IF NOT EXISTS orders_number_seq START 1`},
		{"purchase order number sequence", `CREATE SEQUENCE IF NOT EXISTS purchase_orders_number_seq START 1`},
		{"ledger by material index", `CREATE INDEX IF NOT EXISTS idx_material_transactions_material_created
  ON material_transactions (material_id, created_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
