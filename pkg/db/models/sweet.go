package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
)

// Sweet is a catalog item. Each active sweet owns exactly one Inventory row;
// active names are unique case-insensitively (enforced by a partial index on
// LOWER(name) in migrations).
type Sweet struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string              `gorm:"column:name;not null" json:"name"`
	Category    enums.SweetCategory `gorm:"column:category;not null" json:"category"`
	Description *string             `gorm:"column:description" json:"description,omitempty"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true" json:"isActive"`
	Inventory   *Inventory          `gorm:"foreignKey:SweetID;constraint:OnDelete:CASCADE" json:"inventory,omitempty"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
