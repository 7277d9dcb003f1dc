package purchases

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
	dsn := fmt.Sprintf("file:purchases_%s?mode=memory&cache=shared", t.Name())
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

func mustCreateTestUser(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("shop_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Repo",
		LastName:     "Tester",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestSweet(t *testing.T, tx *gorm.DB, name string, quantity int) *models.Sweet {
	t.Helper()
	sweet := &models.Sweet{
		ID:       uuid.New(),
		Name:     name,
		Category: enums.SweetCategoryChocolate,
		Price:    decimal.NewFromFloat(2.50),
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

func currentQuantity(t *testing.T, tx *gorm.DB, inventoryID uuid.UUID) int {
	t.Helper()
	var inv models.Inventory
	if err := tx.First(&inv, "id = ?", inventoryID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return inv.Quantity
}
