package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/sweetshop-backend/internal/inventory"
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

const (
	// Purchases above this size go through support, not the storefront.
	maxPurchaseQty = 100

	inventoryCachePattern = "inventory:*"
	sweetsCachePattern    = "sweets:*"
)

// Service owns the purchase lifecycle and the cross-entity writes it implies.
type Service interface {
	Create(ctx context.Context, userID, sweetID uuid.UUID, qty int) (*models.Purchase, error)
	Cancel(ctx context.Context, purchaseID, requestingUserID uuid.UUID) (*models.Purchase, error)
	UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*models.Purchase, error)
	Get(ctx context.Context, purchaseID, requesterID uuid.UUID, admin bool) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	ListAll(ctx context.Context, params pagination.Params) (*ListResult, error)
}

type sweetLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error)
}

type service struct {
	repo          *Repository
	inventoryRepo *inventory.Repository
	sweetRepo     sweetLoader
	dbClient      *db.Client
	invalidator   cache.Invalidator
	logg          *logger.Logger
}

// NewService constructs a purchase service instance.
func NewService(repo *Repository, inventoryRepo *inventory.Repository, sweetRepo sweetLoader, dbClient *db.Client, invalidator cache.Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if sweetRepo == nil {
		return nil, fmt.Errorf("sweet repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if invalidator == nil {
		invalidator = cache.Noop{}
	}
	return &service{
		repo:          repo,
		inventoryRepo: inventoryRepo,
		sweetRepo:     sweetRepo,
		dbClient:      dbClient,
		invalidator:   invalidator,
		logg:          logg,
	}, nil
}

// Create places a purchase: one transaction inserts the PENDING row, decrements
// stock through the guarded relative update, and appends the SALE ledger entry.
func (s *service) Create(ctx context.Context, userID, sweetID uuid.UUID, qty int) (*models.Purchase, error) {
	if qty < 1 || qty > maxPurchaseQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between 1 and %d", maxPurchaseQty))
	}

	sweet, err := s.sweetRepo.FindByID(ctx, sweetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sweet")
	}
	if !sweet.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found")
	}

	var purchaseID uuid.UUID
	attempt := func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			txInventory := s.inventoryRepo.WithTx(tx)

			inv, err := txInventory.FindBySweetID(ctx, sweetID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
			}
			if inv.Quantity < qty {
				return outOfStockError(inv.Quantity)
			}

			unitPrice := sweet.Price
			purchase := &models.Purchase{
				ID:          uuid.New(),
				OrderNumber: newOrderNumber(time.Now().UTC()),
				UserID:      userID,
				SweetID:     sweetID,
				Quantity:    qty,
				UnitPrice:   unitPrice,
				TotalAmount: unitPrice.Mul(decimal.NewFromInt(int64(qty))),
				Status:      enums.PurchaseStatusPending,
			}
			if _, err := txRepo.Create(ctx, purchase); err != nil {
				return err
			}
			purchaseID = purchase.ID

			if err := txInventory.ApplyDelta(ctx, inv.ID, -qty); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					// Someone got there between the read and the guarded
					// update; report the quantity that is actually left.
					current, loadErr := txInventory.FindByID(ctx, inv.ID)
					if loadErr != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "reload inventory")
					}
					return outOfStockError(current.Quantity)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deduct stock")
			}

			movement := &models.StockMovement{
				ID:          uuid.New(),
				InventoryID: inv.ID,
				Type:        enums.MovementTypeSale,
				Quantity:    qty,
				Reason:      fmt.Sprintf("sale of %d x %s", qty, sweet.Name),
				Reference:   purchase.ID.String(),
			}
			if _, err := txInventory.AppendMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append sale movement")
			}
			return nil
		})
	}

	err = attempt()
	if err != nil && db.IsUniqueViolation(err, "idx_purchases_order_number") {
		// Order number collision: regenerate once before giving up.
		err = attempt()
		if err != nil && db.IsUniqueViolation(err, "idx_purchases_order_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision")
		}
	}
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, inventoryCachePattern, sweetsCachePattern)

	return s.loadDetail(ctx, purchaseID)
}

// Cancel restores the deducted stock and appends the RETURN ledger entry. Only
// the owner may cancel, and only from PENDING.
func (s *service) Cancel(ctx context.Context, purchaseID, requestingUserID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	// Not owning a purchase and it not existing look identical to the caller.
	if purchase.UserID != requestingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	if purchase.Status != enums.PurchaseStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel a %s purchase", purchase.Status))
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txInventory := s.inventoryRepo.WithTx(tx)

		// Guarded transition, so two concurrent cancels (or a racing admin
		// status write) cannot both restore stock.
		affected, err := txRepo.TransitionStatus(ctx, purchaseID, enums.PurchaseStatusPending, enums.PurchaseStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase is no longer pending")
		}

		inv, err := txInventory.FindBySweetID(ctx, purchase.SweetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		if err := txInventory.ApplyDelta(ctx, inv.ID, purchase.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore stock")
		}

		movement := &models.StockMovement{
			ID:          uuid.New(),
			InventoryID: inv.ID,
			Type:        enums.MovementTypeReturn,
			Quantity:    purchase.Quantity,
			Reason:      fmt.Sprintf("cancellation of order %s", purchase.OrderNumber),
			Reference:   purchase.ID.String(),
		}
		if _, err := txInventory.AppendMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append return movement")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel purchase")
	}

	cache.InvalidateAfterCommit(ctx, s.invalidator, s.logg, inventoryCachePattern, sweetsCachePattern)

	return s.loadDetail(ctx, purchaseID)
}

// UpdateStatus is the admin-side status write. It never touches inventory or
// the ledger; refunds and restores go through Cancel.
func (s *service) UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*models.Purchase, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition a %s purchase", purchase.Status))
	}

	affected, err := s.repo.UpdateStatus(ctx, purchaseID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already reached a terminal state")
	}

	return s.loadDetail(ctx, purchaseID)
}

// Get loads one purchase; non-admins only see their own.
func (s *service) Get(ctx context.Context, purchaseID, requesterID uuid.UUID, admin bool) (*models.Purchase, error) {
	purchase, err := s.loadDetail(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if !admin && purchase.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return purchase, nil
}

// ListByUser returns the caller's purchase history.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	result, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return result, nil
}

// ListAll returns every purchase for back-office views.
func (s *service) ListAll(ctx context.Context, params pagination.Params) (*ListResult, error) {
	result, err := s.repo.ListAll(ctx, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return result, nil
}

func (s *service) loadDetail(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return purchase, nil
}

func outOfStockError(available int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock,
		fmt.Sprintf("insufficient stock: only %d available", available)).
		WithDetails(map[string]any{"available": available})
}
