package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier struct {
	ID           string          `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name         string          `gorm:"column:name;type:varchar(50);not null;unique" json:"name"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	CoinsAwarded int64           `gorm:"column:coins_awarded;not null" json:"coins_awarded"`
	Description  string          `gorm:"column:description;not null" json:"description"`
	DurationDays int             `gorm:"column:duration_days;not null;default:30" json:"duration_days"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Tier) TableName() string { return "subscription_tiers" }

type CreateRequest struct {
	Name         string          `json:"name" binding:"required,max=50"`
	Price        decimal.Decimal `json:"price"`
	CoinsAwarded int64           `json:"coins_awarded" binding:"min=0"`
	Description  string          `json:"description"`
	DurationDays int             `json:"duration_days" binding:"omitempty,min=1"`
}
