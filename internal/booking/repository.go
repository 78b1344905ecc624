package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"booking_service/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const activeBookingIndex = "bookings_active_user_game_uq"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("user already has an active booking for this game")
	ErrAlreadyCancelled = errors.New("booking is not active")
	ErrNotCompletable   = errors.New("only confirmed bookings can be completed")
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, b *Booking) error
	HasActive(ctx context.Context, tx *gorm.DB, userID, gameID string) (bool, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	GetByReferenceForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*Booking, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id, from, to string) error
	ListForUser(ctx context.Context, userID string) ([]Booking, error)
	Summary(ctx context.Context, userID string) (*Summary, error)
}

type BookingRepositoryImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// NewReference returns "BK-" followed by 8 upper-case hex characters.
func NewReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx *gorm.DB, b *Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Reference == "" {
		b.Reference = NewReference()
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		if database.IsUniqueViolation(err, activeBookingIndex) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepositoryImpl) HasActive(ctx context.Context, tx *gorm.DB, userID, gameID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ? AND game_id = ? AND status <> ?", userID, gameID, StatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check active booking: %w", err)
	}
	return count > 0, nil
}

func (r *BookingRepositoryImpl) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).Where("booking_reference = ?", reference).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepositoryImpl) GetByReferenceForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*Booking, error) {
	var b Booking
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_reference = ?", reference).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	return &b, nil
}

// TransitionStatus moves a booking from one status to another; it fails with
// ErrAlreadyCancelled when the booking is no longer in from.
func (r *BookingRepositoryImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, id, from, to string) error {
	result := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error, activeBookingIndex) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (r *BookingRepositoryImpl) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepositoryImpl) Summary(ctx context.Context, userID string) (*Summary, error) {
	var rows []struct {
		Status string
		Count  int64
		Coins  int64
	}
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(coins_paid), 0) AS coins").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize bookings: %w", err)
	}

	s := &Summary{}
	for _, row := range rows {
		s.Total += row.Count
		switch row.Status {
		case StatusConfirmed:
			s.Confirmed = row.Count
			s.CoinsSpent += row.Coins
		case StatusCompleted:
			s.Completed = row.Count
			s.CoinsSpent += row.Coins
		case StatusCancelled:
			s.Cancelled = row.Count
		}
	}
	return s, nil
}
