package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
)

// Purchase records one order of a single sweet. UnitPrice is a snapshot of the
// sweet's price at purchase time and is never recomputed; TotalAmount is fixed
// at creation. The sweet FK is RESTRICT so catalog rows with purchase history
// cannot be hard-deleted.
type Purchase struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber string               `gorm:"column:order_number;uniqueIndex;not null" json:"orderNumber"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	SweetID     uuid.UUID            `gorm:"column:sweet_id;type:uuid;not null;index" json:"sweetId"`
	Quantity    int                  `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal      `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unitPrice"`
	TotalAmount decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null" json:"totalAmount"`
	Status      enums.PurchaseStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	User        *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Sweet       *Sweet               `gorm:"foreignKey:SweetID;constraint:OnDelete:RESTRICT" json:"sweet,omitempty"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
