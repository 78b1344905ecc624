package booking

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Booking struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	GameID    string    `gorm:"column:game_id;type:uuid;not null" json:"game_id"`
	Reference string    `gorm:"column:booking_reference;type:varchar(20);not null;unique" json:"booking_reference"`
	CoinsPaid int64     `gorm:"column:coins_paid;not null" json:"coins_paid"` // immutable once written
	Status    string    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Notes     string    `gorm:"column:notes;not null" json:"notes"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

type CreateRequest struct {
	GameID string `json:"game_id" binding:"required,uuid"`
	Notes  string `json:"notes" binding:"max=500"`
}

type Summary struct {
	Total      int64 `json:"total_bookings"`
	Confirmed  int64 `json:"confirmed_bookings"`
	Cancelled  int64 `json:"cancelled_bookings"`
	Completed  int64 `json:"completed_bookings"`
	CoinsSpent int64 `json:"coins_spent"`
}

type Event struct {
	Reference string    `json:"booking_reference"`
	UserID    string    `json:"user_id"`
	GameID    string    `json:"game_id"`
	Coins     int64     `json:"coins"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
