package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"booking_service/internal/account"
	"booking_service/internal/events"
	"booking_service/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("booking_service/booking")

// RefundRecorder writes the ledger entry for a cancellation refund inside
// the cancelling transaction.
type RefundRecorder interface {
	RecordRefund(ctx context.Context, tx *gorm.DB, userID string, coins int64, bookingReference string) error
}

// BookingService creates and cancels bookings. Every mutation runs in one
// database transaction and locks rows in the order booking, game, user.
type BookingService struct {
	db        *gorm.DB
	repo      BookingRepository
	accounts  *account.Service
	games     *game.Service
	refunds   RefundRecorder
	publisher events.Publisher
}

func NewBookingService(db *gorm.DB, repo BookingRepository, accounts *account.Service, games *game.Service, refunds RefundRecorder, publisher events.Publisher) *BookingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &BookingService{
		db:        db,
		repo:      repo,
		accounts:  accounts,
		games:     games,
		refunds:   refunds,
		publisher: publisher,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, userID string, req CreateRequest) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(attribute.String("game.id", req.GameID))

	var (
		b       *Booking
		balance int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := s.games.GetForUpdate(ctx, tx, req.GameID)
		if err != nil {
			return err
		}
		if !g.CanBook(s.games.Now()) {
			return game.ErrGameNotBookable
		}

		exists, err := s.repo.HasActive(ctx, tx, userID, g.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBooking
		}

		acct, err := s.accounts.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !acct.HasSufficient(g.CoinPrice) {
			return account.ErrInsufficientFunds
		}

		if balance, err = s.accounts.Debit(ctx, tx, userID, g.CoinPrice); err != nil {
			return err
		}
		if err := s.games.ReserveSlot(ctx, tx, g); err != nil {
			return err
		}

		b = &Booking{
			UserID:    userID,
			GameID:    g.ID,
			CoinsPaid: g.CoinPrice,
			Status:    StatusConfirmed,
			Notes:     strings.TrimSpace(req.Notes),
		}
		return s.repo.Create(ctx, tx, b)
	})
	if err != nil {
		span.RecordError(err)
		slog.InfoContext(ctx, "booking rejected", "user_id", userID, "game_id", req.GameID, "error", err)
		return nil, err
	}

	s.accounts.Notify(ctx, userID, balance, -b.CoinsPaid, account.ReasonBooking)
	s.publish(ctx, events.BookingCreated, b)
	slog.InfoContext(ctx, "booking created",
		"booking_reference", b.Reference, "user_id", userID, "game_id", b.GameID, "coins", b.CoinsPaid)
	return b, nil
}

// CancelBooking refunds coins_paid and frees the slot. Cancelling a booking
// that is not confirmed fails with ErrAlreadyCancelled and changes nothing.
func (s *BookingService) CancelBooking(ctx context.Context, userID, reference string) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking.reference", reference))

	var (
		b       *Booking
		balance int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = s.repo.GetByReferenceForUpdate(ctx, tx, reference)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrBookingNotFound
		}
		if b.Status != StatusConfirmed {
			return ErrAlreadyCancelled
		}

		if _, err := s.games.GetForUpdate(ctx, tx, b.GameID); err != nil {
			return err
		}
		if _, err := s.accounts.GetForUpdate(ctx, tx, userID); err != nil {
			return err
		}

		if err := s.repo.TransitionStatus(ctx, tx, b.ID, StatusConfirmed, StatusCancelled); err != nil {
			return err
		}
		b.Status = StatusCancelled

		if b.CoinsPaid > 0 {
			if balance, err = s.accounts.Credit(ctx, tx, userID, b.CoinsPaid); err != nil {
				return err
			}
		}
		if err := s.games.ReleaseSlot(ctx, tx, b.GameID); err != nil {
			return err
		}
		return s.refunds.RecordRefund(ctx, tx, userID, b.CoinsPaid, b.Reference)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if b.CoinsPaid > 0 {
		s.accounts.Notify(ctx, userID, balance, b.CoinsPaid, account.ReasonRefund)
	}
	s.publish(ctx, events.BookingCancelled, b)
	slog.InfoContext(ctx, "booking cancelled", "booking_reference", b.Reference, "user_id", userID, "refund", b.CoinsPaid)
	return b, nil
}

// CompleteBooking marks a confirmed booking as played. Operator only.
func (s *BookingService) CompleteBooking(ctx context.Context, reference string) (*Booking, error) {
	var b *Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = s.repo.GetByReferenceForUpdate(ctx, tx, reference)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return ErrNotCompletable
		}
		if err := s.repo.TransitionStatus(ctx, tx, b.ID, StatusConfirmed, StatusCompleted); err != nil {
			return err
		}
		b.Status = StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCompleted, b)
	return b, nil
}

func (s *BookingService) Get(ctx context.Context, userID, reference string) (*Booking, error) {
	b, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *BookingService) Summary(ctx context.Context, userID string) (*Summary, error) {
	return s.repo.Summary(ctx, userID)
}

func (s *BookingService) publish(ctx context.Context, key string, b *Booking) {
	err := s.publisher.PublishJSON(ctx, key, Event{
		Reference: b.Reference,
		UserID:    b.UserID,
		GameID:    b.GameID,
		Coins:     b.CoinsPaid,
		Status:    b.Status,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "publish booking event failed", "key", key, "booking_reference", b.Reference, "error", err)
	}
}
