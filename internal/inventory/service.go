package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/cache"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Restock quantities outside this window are operator mistakes.
	maxRestockQty = 10000

	inventoryCachePattern = "inventory:*"
	sweetsCachePattern    = "sweets:*"
)

// Service exposes stock management operations.
type Service interface {
	Restock(ctx context.Context, sweetID uuid.UUID, qty int, reason string) (*RestockResult, error)
	SetThresholds(ctx context.Context, sweetID uuid.UUID, input ThresholdInput) (*models.Inventory, error)
	Movements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementPage, error)
	LowStock(ctx context.Context) ([]LowStockRow, error)
	Status(ctx context.Context) (*Stats, error)
}

// RestockResult reports the applied restock.
type RestockResult struct {
	Sweet            *models.Sweet         `json:"sweet"`
	Inventory        *models.Inventory     `json:"inventory"`
	Movement         *models.StockMovement `json:"movement"`
	PreviousQuantity int                   `json:"previousQuantity"`
	NewQuantity      int                   `json:"newQuantity"`
}

// ThresholdInput carries optional threshold updates; Quantity, when set, is
// an admin correction that is forced through the ledger as an ADJUSTMENT.
type ThresholdInput struct {
	Quantity      *int
	MinStockLevel *int
	MaxStockLevel *int
	ReorderPoint  *int
}

type sweetLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error)
}

type service struct {
	repo        *Repository
	dbClient    *db.Client
	sweetRepo   sweetLoader
	invalidator cache.Invalidator
	logg        *logger.Logger
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, dbClient *db.Client, sweetRepo sweetLoader, invalidator cache.Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if sweetRepo == nil {
		return nil, fmt.Errorf("sweet repository required")
	}
	if invalidator == nil {
		invalidator = cache.Noop{}
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		sweetRepo:   sweetRepo,
		invalidator: invalidator,
		logg:        logg,
	}, nil
}

// Restock increments stock and appends the RESTOCK ledger entry in one
// transaction.
func (s *service) Restock(ctx context.Context, sweetID uuid.UUID, qty int, reason string) (*RestockResult, error) {
	if qty < 1 || qty > maxRestockQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("restock quantity must be between 1 and %d", maxRestockQty))
	}

	sweet, err := s.loadSweet(ctx, sweetID)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = fmt.Sprintf("restock of %d units", qty)
	}

	var (
		result   RestockResult
		movement *models.StockMovement
	)
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		inv, err := txRepo.FindBySweetID(ctx, sweetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		result.PreviousQuantity = inv.Quantity

		if err := txRepo.ApplyDelta(ctx, inv.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply restock delta")
		}
		now := time.Now().UTC()
		if err := txRepo.MarkRestocked(ctx, inv.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: stamp restock time")
		}

		movement = &models.StockMovement{
			ID:          uuid.New(),
			InventoryID: inv.ID,
			Type:        enums.MovementTypeRestock,
			Quantity:    qty,
			Reason:      reason,
			Reference:   newReference("RST"),
		}
		if _, err := txRepo.AppendMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append restock movement")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, inventoryCachePattern, sweetsCachePattern)

	inv, err := s.repo.FindBySweetID(ctx, sweetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
	}
	result.Sweet = sweet
	result.Inventory = inv
	result.Movement = movement
	result.NewQuantity = inv.Quantity
	return &result, nil
}

// SetThresholds validates and applies threshold changes; an explicit quantity
// emits a synthetic ADJUSTMENT movement so the ledger invariant keeps holding.
func (s *service) SetThresholds(ctx context.Context, sweetID uuid.UUID, input ThresholdInput) (*models.Inventory, error) {
	if _, err := s.loadSweet(ctx, sweetID); err != nil {
		return nil, err
	}

	inv, err := s.repo.FindBySweetID(ctx, sweetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	// Resolve against current values so a partial update is validated as the
	// row it would produce, and nothing mutates when validation fails.
	min := inv.MinStockLevel
	max := inv.MaxStockLevel
	reorder := inv.ReorderPoint
	if input.MinStockLevel != nil {
		min = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		max = *input.MaxStockLevel
	}
	if input.ReorderPoint != nil {
		reorder = *input.ReorderPoint
	}
	switch {
	case min < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock level must be non-negative")
	case max <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max stock level must be positive")
	case min >= max:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock level must be below max stock level")
	case reorder < min:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder point must be at least the min stock level")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		// Reload inside the transaction: a purchase may have committed since
		// the validation read, and the override delta must land on the row as
		// it is now.
		current, err := txRepo.FindBySweetID(ctx, sweetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
		}

		current.MinStockLevel = min
		current.MaxStockLevel = max
		current.ReorderPoint = reorder
		if err := txRepo.UpdateThresholds(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update thresholds")
		}

		if input.Quantity != nil && *input.Quantity != current.Quantity {
			delta := *input.Quantity - current.Quantity
			if err := txRepo.ApplyDelta(ctx, current.ID, delta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply adjustment delta")
			}
			movement := &models.StockMovement{
				ID:          uuid.New(),
				InventoryID: current.ID,
				Type:        enums.MovementTypeAdjustment,
				Quantity:    delta,
				Reason:      fmt.Sprintf("manual correction from %d to %d", current.Quantity, *input.Quantity),
				Reference:   newReference("ADJ"),
			}
			if _, err := txRepo.AppendMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append adjustment movement")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, inventoryCachePattern, sweetsCachePattern)

	updated, err := s.repo.FindBySweetID(ctx, sweetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
	}
	return updated, nil
}

// Movements exposes the ledger with filters and per-type aggregates.
func (s *service) Movements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementPage, error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	page, err := s.repo.Movements(ctx, filters, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return page, nil
}

// LowStock lists inventories at or below their reorder point.
func (s *service) LowStock(ctx context.Context) ([]LowStockRow, error) {
	rows, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return rows, nil
}

// Status returns the inventory overview.
func (s *service) Status(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.CollectStats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect inventory stats")
	}
	return stats, nil
}

func (s *service) loadSweet(ctx context.Context, sweetID uuid.UUID) (*models.Sweet, error) {
	sweet, err := s.sweetRepo.FindByID(ctx, sweetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweet")
	}
	return sweet, nil
}
