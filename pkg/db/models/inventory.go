package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks the current stock count and thresholds for one sweet.
// Quantity is only changed through movement-emitting operations, so at any
// point it equals the initial quantity plus the sum of its movements' deltas.
type Inventory struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SweetID         uuid.UUID       `gorm:"column:sweet_id;type:uuid;uniqueIndex;not null" json:"sweetId"`
	Quantity        int             `gorm:"column:quantity;not null;default:0" json:"quantity"`
	MinStockLevel   int             `gorm:"column:min_stock_level;not null;default:5" json:"minStockLevel"`
	MaxStockLevel   int             `gorm:"column:max_stock_level;not null;default:100" json:"maxStockLevel"`
	ReorderPoint    int             `gorm:"column:reorder_point;not null;default:10" json:"reorderPoint"`
	LastRestockedAt *time.Time      `gorm:"column:last_restocked_at" json:"lastRestockedAt,omitempty"`
	Movements       []StockMovement `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
