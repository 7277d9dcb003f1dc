package sweets

import (
	"context"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together catalog persistence helpers.
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

// FindByID loads the sweet without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := r.db.WithContext(ctx).First(&sweet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}

// FindDetail loads the sweet with its inventory row.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&sweet, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

// ActiveNameExists reports whether an active sweet already uses the name,
// case-insensitively. excludeID skips the sweet itself on updates.
func (r *Repository) ActiveNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Sweet{}).
		Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(name)), true)
	if excludeID != nil {
		qb = qb.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := qb.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new sweet row.
func (r *Repository) Create(ctx context.Context, sweet *models.Sweet) (*models.Sweet, error) {
	if err := r.db.WithContext(ctx).Create(sweet).Error; err != nil {
		return nil, err
	}
	return sweet, nil
}

// Update persists the full sweet row.
func (r *Repository) Update(ctx context.Context, sweet *models.Sweet) (*models.Sweet, error) {
	if err := r.db.WithContext(ctx).Save(sweet).Error; err != nil {
		return nil, err
	}
	return sweet, nil
}

// Delete removes a sweet by ID; inventory and movements cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sweet{}).Error
}

// HasPurchaseHistory reports whether any purchase references the sweet.
func (r *Repository) HasPurchaseHistory(ctx context.Context, sweetID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("sweet_id = ?", sweetID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Category        *enums.SweetCategory
	Query           string
	IncludeInactive bool
}

// ListResult is one page of sweets plus the cursor for the next page.
type ListResult struct {
	Sweets     []models.Sweet `json:"sweets"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// List returns a cursor-paginated page of sweets with inventories preloaded.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
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
		Model(&models.Sweet{}).
		Preload("Inventory")

	if !filters.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		qb = qb.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Sweet
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

	return &ListResult{Sweets: rows, NextCursor: nextCursor}, nil
}
