package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The column tags must stay portable: the suite runs the schema through
// sqlite, which rejects postgres-only defaults.
func TestSchemaMigratesOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:models_schema?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&User{},
		&Sweet{},
		&Inventory{},
		&StockMovement{},
		&Purchase{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
}
