package purchases

import (
	"context"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together purchase persistence helpers.
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

// Create inserts a new purchase row.
func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

// FindByID loads the purchase without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindDetail loads the purchase with user and sweet preloaded.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Sweet").
		First(&purchase, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// TransitionStatus flips the status only while the row still holds from, the
// same relative-guard shape as the inventory delta. Zero rows affected means
// another writer moved the purchase first.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// UpdateStatus writes the status column, refusing rows that already reached a
// terminal state. Zero rows affected means the purchase was not writable.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status NOT IN ?", id, []enums.PurchaseStatus{
			enums.PurchaseStatusCancelled,
			enums.PurchaseStatusReturned,
		}).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// ListResult is one page of purchases plus the cursor for the next page.
type ListResult struct {
	Purchases  []models.Purchase `json:"purchases"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// ListByUser returns the user's purchases, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	return r.list(ctx, params, func(qb *gorm.DB) *gorm.DB {
		return qb.Where("user_id = ?", userID)
	})
}

// ListAll returns every purchase, newest first.
func (r *Repository) ListAll(ctx context.Context, params pagination.Params) (*ListResult, error) {
	return r.list(ctx, params, nil)
}

func (r *Repository) list(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Preload("Sweet").
		Preload("User")
	if scope != nil {
		qb = scope(qb)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Purchase
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

	return &ListResult{Purchases: rows, NextCursor: nextCursor}, nil
}
