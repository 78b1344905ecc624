package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking_service/internal/events"

	"gorm.io/gorm"
)

// Service owns coin balances. Credit and Debit run inside a caller's
// transaction; Notify must be called once that transaction has committed.
type Service struct {
	db        *gorm.DB
	repo      AccountRepository
	hub       *NotificationHub
	publisher events.Publisher
}

func NewService(db *gorm.DB, repo AccountRepository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:        db,
		repo:      repo,
		hub:       NewNotificationHub(),
		publisher: publisher,
	}
}

func (s *Service) Open(ctx context.Context, req OpenRequest) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidAccount)
	}
	a := &Account{
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "account opened", "user_id", a.ID)
	return a, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Account, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) GetForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*Account, error) {
	return s.repo.GetForUpdate(ctx, tx, userID)
}

func (s *Service) Credit(ctx context.Context, tx *gorm.DB, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.Credit(ctx, tx, userID, amount)
}

func (s *Service) Debit(ctx context.Context, tx *gorm.DB, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.Debit(ctx, tx, userID, amount)
}

func (s *Service) SetSubscriptionTier(ctx context.Context, tx *gorm.DB, userID string, tierID string) error {
	return s.repo.SetSubscriptionTier(ctx, tx, userID, tierID)
}

// Adjust applies an operator grant (delta > 0) or deduction (delta < 0) in its
// own transaction.
func (s *Service) Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	if reason == "" {
		reason = ReasonAdjustment
	}

	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.GetForUpdate(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		if delta > 0 {
			balance, err = s.Credit(ctx, tx, userID, delta)
		} else {
			balance, err = s.Debit(ctx, tx, userID, -delta)
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	s.Notify(ctx, userID, balance, delta, reason)
	return balance, nil
}

// Notify pushes a committed balance change to live subscribers and the event bus.
func (s *Service) Notify(ctx context.Context, userID string, balance, delta int64, reason string) {
	update := BalanceUpdate{
		UserID:    userID,
		Balance:   balance,
		Delta:     delta,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	s.hub.Notify(userID, update)
	if err := s.publisher.PublishJSON(ctx, events.BalanceChanged, update); err != nil {
		slog.WarnContext(ctx, "publish balance update failed", "user_id", userID, "error", err)
	}
}

func (s *Service) Subscribe(userID string) (<-chan BalanceUpdate, func()) {
	return s.hub.Subscribe(userID)
}
