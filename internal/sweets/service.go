package sweets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/cache"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cache key patterns owned by the catalog.
const (
	sweetsCachePattern = "sweets:*"
)

// Service exposes catalog management operations.
type Service interface {
	Create(ctx context.Context, input CreateSweetInput) (*models.Sweet, error)
	Update(ctx context.Context, sweetID uuid.UUID, input UpdateSweetInput) (*models.Sweet, error)
	Get(ctx context.Context, sweetID uuid.UUID) (*models.Sweet, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
	Delete(ctx context.Context, sweetID uuid.UUID) (DeleteOutcome, error)
}

// CreateSweetInput holds the validated payload to create a catalog item.
type CreateSweetInput struct {
	Name            string
	Category        enums.SweetCategory
	Description     *string
	Price           decimal.Decimal
	InitialQuantity int
	MinStockLevel   *int
	MaxStockLevel   *int
	ReorderPoint    *int
}

// UpdateSweetInput holds optional mutation values for a catalog item.
type UpdateSweetInput struct {
	Name        *string
	Category    *enums.SweetCategory
	Description *string
	Price       *decimal.Decimal
	IsActive    *bool
}

// DeleteOutcome reports whether the sweet was removed or only deactivated.
type DeleteOutcome string

const (
	DeleteOutcomeHard DeleteOutcome = "deleted"
	DeleteOutcomeSoft DeleteOutcome = "deactivated"
)

type service struct {
	repo        *Repository
	dbClient    *db.Client
	invalidator cache.Invalidator
	logg        *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, invalidator cache.Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sweets repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if invalidator == nil {
		invalidator = cache.Noop{}
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		invalidator: invalidator,
		logg:        logg,
	}, nil
}

// Create inserts the sweet together with its inventory row in one transaction.
func (s *service) Create(ctx context.Context, input CreateSweetInput) (*models.Sweet, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateSweetFields(name, input.Category, input.Price); err != nil {
		return nil, err
	}
	if input.InitialQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity must be non-negative")
	}
	if err := validateThresholds(input.MinStockLevel, input.MaxStockLevel, input.ReorderPoint); err != nil {
		return nil, err
	}

	exists, err := s.repo.ActiveNameExists(ctx, name, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check name uniqueness")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("a sweet named %q already exists", name))
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		sweet := &models.Sweet{
			ID:          uuid.New(),
			Name:        name,
			Category:    input.Category,
			Description: input.Description,
			Price:       input.Price,
			IsActive:    true,
		}
		created, err := txRepo.Create(ctx, sweet)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("a sweet named %q already exists", name))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sweet")
		}
		createdID = created.ID

		inventory := &models.Inventory{
			ID:       uuid.New(),
			SweetID:  created.ID,
			Quantity: input.InitialQuantity,
		}
		applyThresholdDefaults(inventory, input.MinStockLevel, input.MaxStockLevel, input.ReorderPoint)
		if err := tx.WithContext(ctx).Create(inventory).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sweet")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, sweetsCachePattern)

	return s.loadDetail(ctx, createdID)
}

// Update mutates catalog fields; inventory quantities are out of scope here.
func (s *service) Update(ctx context.Context, sweetID uuid.UUID, input UpdateSweetInput) (*models.Sweet, error) {
	sweet, err := s.repo.FindByID(ctx, sweetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweet")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		exists, err := s.repo.ActiveNameExists(ctx, name, &sweetID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check name uniqueness")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("a sweet named %q already exists", name))
		}
		sweet.Name = name
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		sweet.Category = *input.Category
	}
	if input.Description != nil {
		sweet.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		sweet.Price = *input.Price
	}
	if input.IsActive != nil {
		sweet.IsActive = *input.IsActive
	}

	if _, err := s.repo.Update(ctx, sweet); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("a sweet named %q already exists", sweet.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sweet")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, sweetsCachePattern)

	return s.loadDetail(ctx, sweetID)
}

// Get returns one sweet with its inventory.
func (s *service) Get(ctx context.Context, sweetID uuid.UUID) (*models.Sweet, error) {
	return s.loadDetail(ctx, sweetID)
}

// List returns a cursor-paginated catalog page.
func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	result, err := s.repo.List(ctx, filters, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sweets")
	}
	return result, nil
}

// Delete removes the sweet outright unless purchase history pins it, in which
// case the row is deactivated and its name freed for reuse.
func (s *service) Delete(ctx context.Context, sweetID uuid.UUID) (DeleteOutcome, error) {
	sweet, err := s.repo.FindByID(ctx, sweetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweet")
	}

	hasHistory, err := s.repo.HasPurchaseHistory(ctx, sweetID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}

	outcome := DeleteOutcomeHard
	if hasHistory {
		outcome = DeleteOutcomeSoft
		sweet.IsActive = false
		if _, err := s.repo.Update(ctx, sweet); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate sweet")
		}
	} else {
		if err := s.repo.Delete(ctx, sweetID); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete sweet")
		}
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, sweetsCachePattern)

	return outcome, nil
}

func (s *service) loadDetail(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	sweet, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweet")
	}
	return sweet, nil
}

func validateSweetFields(name string, category enums.SweetCategory, price decimal.Decimal) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return nil
}

func validateThresholds(min, max, reorder *int) error {
	if min != nil && *min < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min stock level must be non-negative")
	}
	if max != nil && *max <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max stock level must be positive")
	}
	if min != nil && max != nil && *min >= *max {
		return pkgerrors.New(pkgerrors.CodeValidation, "min stock level must be below max stock level")
	}
	if reorder != nil && *reorder < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder point must be non-negative")
	}
	if reorder != nil && min != nil && *reorder < *min {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder point must be at least the min stock level")
	}
	return nil
}

func applyThresholdDefaults(inv *models.Inventory, min, max, reorder *int) {
	inv.MinStockLevel = 5
	inv.MaxStockLevel = 100
	inv.ReorderPoint = 10
	if min != nil {
		inv.MinStockLevel = *min
	}
	if max != nil {
		inv.MaxStockLevel = *max
	}
	if reorder != nil {
		inv.ReorderPoint = *reorder
	}
}
