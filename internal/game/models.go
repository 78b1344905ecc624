package game

import (
	"time"
)

const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Game struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Location    string    `gorm:"column:location;type:varchar(200);not null" json:"location"`
	DateTime    time.Time `gorm:"column:date_time;not null" json:"date_time"`
	CoinPrice   int64     `gorm:"column:coin_price;not null" json:"coin_price"`
	TotalSlots  int       `gorm:"column:total_slots;not null" json:"total_slots"`
	BookedSlots int       `gorm:"column:booked_slots;not null;default:0" json:"booked_slots"`
	Status      string    `gorm:"column:status;type:varchar(20);not null;default:'upcoming'" json:"status"`
	Description string    `gorm:"column:description;not null" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (g *Game) AvailableSlots() int {
	return g.TotalSlots - g.BookedSlots
}

func (g *Game) IsFull() bool {
	return g.BookedSlots >= g.TotalSlots
}

// CanBook is true only for an upcoming game that has a free slot and starts
// strictly after now.
func (g *Game) CanBook(now time.Time) bool {
	return g.Status == StatusUpcoming && !g.IsFull() && g.DateTime.After(now)
}

func ValidStatus(status string) bool {
	switch status {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type CreateRequest struct {
	Name        string    `json:"name" binding:"required,max=200"`
	Location    string    `json:"location" binding:"required,max=200"`
	DateTime    time.Time `json:"date_time" binding:"required"`
	CoinPrice   int64     `json:"coin_price" binding:"required,min=1"`
	TotalSlots  int       `json:"total_slots" binding:"required,min=1"`
	Description string    `json:"description"`
}

type Filter struct {
	Location string
	From     *time.Time
	To       *time.Time
}
