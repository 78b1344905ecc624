package account

import (
	"time"
)

type Account struct {
	ID                 string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Email              string    `gorm:"column:email;type:varchar(254);not null;unique" json:"email"`
	FullName           string    `gorm:"column:full_name;type:varchar(150);not null" json:"full_name"`
	CoinBalance        int64     `gorm:"column:coin_balance;not null;default:0" json:"coin_balance"`
	SubscriptionTierID *string   `gorm:"column:subscription_tier_id;type:uuid" json:"subscription_tier_id"`
	CreatedAt          time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Account) TableName() string { return "users" }

// HasSufficient reports whether the balance covers amount.
func (a *Account) HasSufficient(amount int64) bool {
	return a.CoinBalance >= amount
}

type OpenRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	FullName string `json:"full_name" binding:"max=150"`
}

type AdjustRequest struct {
	// Delta is positive for a grant and negative for a deduction.
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=200"`
}

type BalanceUpdate struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ReasonBooking      = "booking"
	ReasonRefund       = "refund"
	ReasonPayment      = "payment"
	ReasonSubscription = "subscription"
	ReasonAdjustment   = "adjustment"
)
