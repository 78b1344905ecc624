package account

import (
	"context"
	"errors"
	"fmt"

	"booking_service/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientFunds = errors.New("insufficient coin balance")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInvalidAccount    = errors.New("invalid account")
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Account, error)
	Credit(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error)
	Debit(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error)
	SetSubscriptionTier(ctx context.Context, tx *gorm.DB, id string, tierID string) error
}

type AccountRepositoryImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if database.IsUniqueViolation(err, "") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepositoryImpl) Get(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepositoryImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Account, error) {
	var a Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &a, nil
}

// Credit adds amount to the balance and returns the new balance.
func (r *AccountRepositoryImpl) Credit(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"coin_balance": gorm.Expr("coin_balance + ?", amount),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to credit account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrAccountNotFound
	}
	return r.balance(ctx, tx, id)
}

// Debit subtracts amount only while the balance covers it, so the balance
// can never go negative even without a prior lock.
func (r *AccountRepositoryImpl) Debit(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Account{}).
		Where("id = ? AND coin_balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"coin_balance": gorm.Expr("coin_balance - ?", amount),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to debit account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("failed to check account: %w", err)
		}
		if count == 0 {
			return 0, ErrAccountNotFound
		}
		return 0, ErrInsufficientFunds
	}
	return r.balance(ctx, tx, id)
}

func (r *AccountRepositoryImpl) SetSubscriptionTier(ctx context.Context, tx *gorm.DB, id string, tierID string) error {
	result := tx.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_tier_id": tierID,
			"updated_at":           gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set subscription tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) balance(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	var balance int64
	err := tx.WithContext(ctx).
		Model(&Account{}).
		Select("coin_balance").
		Where("id = ?", id).
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}
