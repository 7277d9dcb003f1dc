package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock signals that a guarded decrement found the row but the
// remaining quantity could not cover the delta.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository wires together inventory and ledger persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads one inventory row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindBySweetID loads the inventory row owned by the sweet.
func (r *Repository) FindBySweetID(ctx context.Context, sweetID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.WithContext(ctx).First(&inv, "sweet_id = ?", sweetID).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// ApplyDelta applies a relative quantity change with a non-negativity guard.
// The guard lives in the WHERE clause so two concurrent decrements can never
// drive the quantity below zero: the second one simply matches no row.
func (r *Repository) ApplyDelta(ctx context.Context, inventoryID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventories
		SET quantity = quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity + ? >= 0
	`, delta, inventoryID, delta)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Inventory{}).
			Where("id = ?", inventoryID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// MarkRestocked stamps last_restocked_at on the inventory row.
func (r *Repository) MarkRestocked(ctx context.Context, inventoryID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ?", inventoryID).
		Update("last_restocked_at", at).
		Error
}

// UpdateThresholds persists the threshold columns only.
func (r *Repository) UpdateThresholds(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ?", inv.ID).
		Updates(map[string]any{
			"min_stock_level": inv.MinStockLevel,
			"max_stock_level": inv.MaxStockLevel,
			"reorder_point":   inv.ReorderPoint,
		}).
		Error
}

// AppendMovement inserts one ledger entry. Entries are never updated or
// deleted afterwards.
func (r *Repository) AppendMovement(ctx context.Context, movement *models.StockMovement) (*models.StockMovement, error) {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

// MovementFilters narrows ledger queries.
type MovementFilters struct {
	InventoryID *uuid.UUID
	Type        *enums.MovementType
	From        *time.Time
	To          *time.Time
}

// MovementTypeSummary aggregates one movement type over the filtered set.
type MovementTypeSummary struct {
	Type        enums.MovementType `json:"type"`
	Count       int64              `json:"count"`
	TotalSigned int64              `json:"totalSigned"`
}

// MovementPage is one ledger page plus the aggregate over the whole filtered
// set (not just the page).
type MovementPage struct {
	Movements  []models.StockMovement `json:"movements"`
	Summary    []MovementTypeSummary  `json:"summary"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

// Movements returns a cursor-paginated ledger slice with per-type aggregates.
func (r *Repository) Movements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementPage, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	base := r.db.WithContext(ctx).Model(&models.StockMovement{})
	base = applyMovementFilters(base, filters)

	var summary []MovementTypeSummary
	err = base.Session(&gorm.Session{}).
		Select("type, COUNT(*) AS count, SUM(CASE WHEN type = ? THEN -quantity ELSE quantity END) AS total_signed", enums.MovementTypeSale).
		Group("type").
		Order("type").
		Scan(&summary).
		Error
	if err != nil {
		return nil, err
	}

	qb := base.Session(&gorm.Session{})
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.StockMovement
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &MovementPage{Movements: rows, Summary: summary, NextCursor: nextCursor}, nil
}

// SumSignedDeltas folds the full ledger of one inventory into a net delta.
func (r *Repository) SumSignedDeltas(ctx context.Context, inventoryID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("SUM(CASE WHEN type = ? THEN -quantity ELSE quantity END)", enums.MovementTypeSale).
		Where("inventory_id = ?", inventoryID).
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// LowStockRow pairs an inventory with its sweet for reorder reporting.
type LowStockRow struct {
	SweetID      uuid.UUID           `json:"sweetId"`
	SweetName    string              `json:"sweetName"`
	Category     enums.SweetCategory `json:"category"`
	Quantity     int                 `json:"quantity"`
	ReorderPoint int                 `json:"reorderPoint"`
}

// LowStock lists active sweets whose quantity is at or below the reorder
// point, worst first.
func (r *Repository) LowStock(ctx context.Context) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).
		Table("inventories i").
		Select("s.id AS sweet_id, s.name AS sweet_name, s.category, i.quantity, i.reorder_point").
		Joins("JOIN sweets s ON s.id = i.sweet_id").
		Where("s.is_active = ?", true).
		Where("i.quantity <= i.reorder_point").
		Order("i.quantity ASC").
		Scan(&rows).
		Error
	return rows, err
}

// Stats summarizes the whole active inventory.
type Stats struct {
	TotalItems    int64 `json:"totalItems"`
	TotalUnits    int64 `json:"totalUnits"`
	LowStockCount int64 `json:"lowStockCount"`
	OutOfStock    int64 `json:"outOfStockCount"`
}

// CollectStats computes the status overview in one scan.
func (r *Repository) CollectStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).
		Table("inventories i").
		Select(`COUNT(*) AS total_items,
			COALESCE(SUM(i.quantity), 0) AS total_units,
			COALESCE(SUM(CASE WHEN i.quantity <= i.reorder_point THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN i.quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock`).
		Joins("JOIN sweets s ON s.id = i.sweet_id").
		Where("s.is_active = ?", true).
		Scan(&stats).
		Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func applyMovementFilters(qb *gorm.DB, filters MovementFilters) *gorm.DB {
	if filters.InventoryID != nil {
		qb = qb.Where("inventory_id = ?", *filters.InventoryID)
	}
	if filters.Type != nil {
		qb = qb.Where("type = ?", *filters.Type)
	}
	if filters.From != nil {
		qb = qb.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		qb = qb.Where("created_at <= ?", *filters.To)
	}
	return qb
}
