package inventory

import (
	"fmt"
	"testing"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Sweet{},
		&models.Inventory{},
		&models.StockMovement{},
		&models.Purchase{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func mustCreateTestSweet(t *testing.T, tx *gorm.DB, name string, quantity int) *models.Sweet {
	t.Helper()
	sweet := &models.Sweet{
		ID:       uuid.New(),
		Name:     name,
		Category: enums.SweetCategoryCandy,
		Price:    decimal.NewFromFloat(2.20),
		IsActive: true,
	}
	if err := tx.Create(sweet).Error; err != nil {
		t.Fatalf("create sweet: %v", err)
	}
	inventory := &models.Inventory{
		ID:            uuid.New(),
		SweetID:       sweet.ID,
		Quantity:      quantity,
		MinStockLevel: 5,
		MaxStockLevel: 100,
		ReorderPoint:  10,
	}
	if err := tx.Create(inventory).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	sweet.Inventory = inventory
	return sweet
}
