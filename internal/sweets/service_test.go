package sweets

import (
	"context"
	"testing"

	"github.com/angelmondragon/sweetshop-backend/pkg/cache"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), cache.Noop{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestCreateSweetWithInventory(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	min := 3
	max := 50
	reorder := 8
	sweet, err := svc.Create(ctx, CreateSweetInput{
		Name:            "Dark Truffle",
		Category:        enums.SweetCategoryChocolate,
		Price:           decimal.NewFromFloat(4.25),
		InitialQuantity: 20,
		MinStockLevel:   &min,
		MaxStockLevel:   &max,
		ReorderPoint:    &reorder,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sweet.Inventory == nil {
		t.Fatal("expected inventory to be created with the sweet")
	}
	if sweet.Inventory.Quantity != 20 {
		t.Fatalf("expected quantity 20, got %d", sweet.Inventory.Quantity)
	}
	if sweet.Inventory.MinStockLevel != 3 || sweet.Inventory.MaxStockLevel != 50 || sweet.Inventory.ReorderPoint != 8 {
		t.Fatalf("thresholds not applied: %+v", sweet.Inventory)
	}

	var count int64
	if err := conn.Model(&models.Inventory{}).Where("sweet_id = ?", sweet.ID).Count(&count).Error; err != nil {
		t.Fatalf("count inventories: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one inventory row, got %d", count)
	}
}

func TestCreateSweetDuplicateActiveName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateSweetInput{
		Name:            "Lemon Drop",
		Category:        enums.SweetCategoryCandy,
		Price:           decimal.NewFromFloat(1.10),
		InitialQuantity: 5,
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	input.Name = "lemon DROP"
	_, err := svc.Create(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for case-insensitive duplicate, got %v", err)
	}
}

func TestCreateSweetValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateSweetInput
	}{
		{"emptyName", CreateSweetInput{Name: "  ", Category: enums.SweetCategoryCandy, Price: decimal.NewFromInt(1)}},
		{"badCategory", CreateSweetInput{Name: "X", Category: "cake", Price: decimal.NewFromInt(1)}},
		{"negativePrice", CreateSweetInput{Name: "X", Category: enums.SweetCategoryCandy, Price: decimal.NewFromInt(-1)}},
		{"negativeQuantity", CreateSweetInput{Name: "X", Category: enums.SweetCategoryCandy, Price: decimal.NewFromInt(1), InitialQuantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateSweet(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	sweet := mustCreateTestSweet(t, conn, "Caramel Swirl", 10)

	newName := "Salted Caramel Swirl"
	price := decimal.NewFromFloat(5.75)
	updated, err := svc.Update(ctx, sweet.ID, UpdateSweetInput{
		Name:  &newName,
		Price: &price,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected renamed sweet, got %q", updated.Name)
	}
	if !updated.Price.Equal(price) {
		t.Fatalf("expected price %s, got %s", price, updated.Price)
	}

	_, err = svc.Update(ctx, uuid.New(), UpdateSweetInput{Name: &newName})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateSweetNameConflict(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	mustCreateTestSweet(t, conn, "Rocky Road", 10)
	other := mustCreateTestSweet(t, conn, "Nougat Bite", 10)

	taken := "rocky road"
	_, err := svc.Update(ctx, other.ID, UpdateSweetInput{Name: &taken})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteSweetHardWithoutHistory(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	sweet := mustCreateTestSweet(t, conn, "Marzipan Loaf", 10)

	outcome, err := svc.Delete(ctx, sweet.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome != DeleteOutcomeHard {
		t.Fatalf("expected hard delete, got %s", outcome)
	}

	var count int64
	if err := conn.Model(&models.Sweet{}).Where("id = ?", sweet.ID).Count(&count).Error; err != nil {
		t.Fatalf("count sweets: %v", err)
	}
	if count != 0 {
		t.Fatal("expected sweet row removed")
	}
}

func TestDeleteSweetSoftWithHistory(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	sweet := mustCreateTestSweet(t, conn, "Fudge Brick", 10)
	user := mustCreateTestUser(t, conn)

	purchase := &models.Purchase{
		ID:          uuid.New(),
		OrderNumber: "ORD-000001-TEST01",
		UserID:      user.ID,
		SweetID:     sweet.ID,
		Quantity:    2,
		UnitPrice:   sweet.Price,
		TotalAmount: sweet.Price.Mul(decimal.NewFromInt(2)),
		Status:      enums.PurchaseStatusPending,
	}
	if err := conn.Create(purchase).Error; err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	outcome, err := svc.Delete(ctx, sweet.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if outcome != DeleteOutcomeSoft {
		t.Fatalf("expected soft delete, got %s", outcome)
	}

	var stored models.Sweet
	if err := conn.First(&stored, "id = ?", sweet.ID).Error; err != nil {
		t.Fatalf("load sweet: %v", err)
	}
	if stored.IsActive {
		t.Fatal("expected sweet to be deactivated")
	}
}

func TestListSweetsPaginationAndFilters(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	mustCreateTestSweet(t, conn, "Cocoa Bar", 10)
	mustCreateTestSweet(t, conn, "Cola Gummy", 10)
	gummy := mustCreateTestSweet(t, conn, "Sour Gummy", 10)
	gummy.Category = enums.SweetCategoryGummy
	if err := conn.Save(gummy).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	page, err := svc.List(ctx, ListFilters{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Sweets) != 2 {
		t.Fatalf("expected 2 sweets on first page, got %d", len(page.Sweets))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	rest, err := svc.List(ctx, ListFilters{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Sweets) != 1 {
		t.Fatalf("expected 1 sweet on second page, got %d", len(rest.Sweets))
	}

	cat := enums.SweetCategoryGummy
	filtered, err := svc.List(ctx, ListFilters{Category: &cat}, pagination.Params{})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered.Sweets) != 1 || filtered.Sweets[0].ID != gummy.ID {
		t.Fatalf("expected only the gummy sweet, got %d rows", len(filtered.Sweets))
	}

	byName, err := svc.List(ctx, ListFilters{Query: "gummy"}, pagination.Params{})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(byName.Sweets) != 2 {
		t.Fatalf("expected 2 name matches, got %d", len(byName.Sweets))
	}
}
