package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
)

// StockMovement is one immutable entry in the inventory audit trail. Quantity
// is a positive magnitude for RESTOCK/SALE/RETURN (direction comes from the
// type); ADJUSTMENT stores a signed delta.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InventoryID uuid.UUID          `gorm:"column:inventory_id;type:uuid;not null;index" json:"inventoryId"`
	Type        enums.MovementType `gorm:"column:type;not null" json:"type"`
	Quantity    int                `gorm:"column:quantity;not null" json:"quantity"`
	Reason      string             `gorm:"column:reason;not null" json:"reason"`
	Reference   string             `gorm:"column:reference;not null" json:"reference"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// SignedDelta returns the net change the movement applied to inventory.
func (m StockMovement) SignedDelta() int {
	if dir := m.Type.Direction(); dir != 0 {
		return dir * m.Quantity
	}
	return m.Quantity
}
