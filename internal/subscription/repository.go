package subscription

import (
	"context"
	"errors"
	"fmt"

	"booking_service/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTierNotFound  = errors.New("subscription tier not found")
	ErrTierInactive  = errors.New("subscription tier is not active")
	ErrDuplicateTier = errors.New("subscription tier name already exists")
	ErrInvalidTier   = errors.New("invalid subscription tier")
)

type TierRepository interface {
	Create(ctx context.Context, t *Tier) error
	Get(ctx context.Context, id string) (*Tier, error)
	ListActive(ctx context.Context) ([]Tier, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type TierRepositoryImpl struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepositoryImpl {
	return &TierRepositoryImpl{db: db}
}

func (r *TierRepositoryImpl) Create(ctx context.Context, t *Tier) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if database.IsUniqueViolation(err, "") {
			return ErrDuplicateTier
		}
		return fmt.Errorf("failed to create tier: %w", err)
	}
	return nil
}

func (r *TierRepositoryImpl) Get(ctx context.Context, id string) (*Tier, error) {
	var t Tier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return &t, nil
}

func (r *TierRepositoryImpl) ListActive(ctx context.Context) ([]Tier, error) {
	var tiers []Tier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

func (r *TierRepositoryImpl) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&Tier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTierNotFound
	}
	return nil
}
