package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TypeSubscription = "subscription"
	TypeBooking      = "booking"
	TypeRefund       = "refund"
)

const (
	StatusPending   = "pending"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type Transaction struct {
	ID                 string            `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID             string            `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Type               string            `gorm:"column:transaction_type;type:varchar(20);not null" json:"transaction_type"`
	Amount             decimal.Decimal   `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	CoinsInvolved      int64             `gorm:"column:coins_involved;not null" json:"coins_involved"`
	Reference          string            `gorm:"column:reference;type:varchar(100);not null;unique" json:"reference"`
	Status             string            `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Metadata           datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null" json:"metadata"`
	SubscriptionTierID *string           `gorm:"column:subscription_tier_id;type:uuid" json:"subscription_tier_id,omitempty"`
	GameID             *string           `gorm:"column:game_id;type:uuid" json:"game_id,omitempty"`
	Description        string            `gorm:"column:description;not null" json:"description"`
	CreatedAt          time.Time         `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

type OpenParams struct {
	UserID             string
	Type               string
	Amount             decimal.Decimal
	CoinsInvolved      int64
	Reference          string
	Status             string
	Description        string
	SubscriptionTierID *string
	GameID             *string
	Metadata           map[string]any
}

type InitializeRequest struct {
	SubscriptionTierID string `json:"subscription_tier_id" binding:"omitempty,uuid"`
	GameID             string `json:"game_id" binding:"omitempty,uuid"`
}

type Checkout struct {
	AuthorizationURL string          `json:"authorization_url"`
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	Coins            int64           `json:"coins"`
}

type WebhookResult string

const (
	WebhookProcessed        WebhookResult = "processed"
	WebhookIgnored          WebhookResult = "ignored"
	WebhookUnknownReference WebhookResult = "unknown_reference"
	WebhookAlreadyProcessed WebhookResult = "already_processed"
	WebhookAmountMismatch   WebhookResult = "amount_mismatch"
)

// Outcome is the gateway's verdict on a pending transaction. Amount is in
// subunits and, with Currency, must match the transaction before a success
// is credited.
type Outcome struct {
	Success  bool
	Amount   int64
	Currency string
	Metadata map[string]any
}

type Event struct {
	Reference     string    `json:"reference"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"transaction_type"`
	Status        string    `json:"status"`
	CoinsInvolved int64     `json:"coins_involved"`
	Timestamp     time.Time `json:"timestamp"`
}
