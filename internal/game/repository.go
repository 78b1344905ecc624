package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotBookable = errors.New("game is not available for booking")
	ErrInvalidGame     = errors.New("invalid game")
	ErrInvalidStatus   = errors.New("invalid game status")
)

type GameRepository interface {
	Create(ctx context.Context, g *Game) error
	Get(ctx context.Context, id string) (*Game, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Game, error)
	ListUpcoming(ctx context.Context, now time.Time, f Filter) ([]Game, error)
	ReserveSlot(ctx context.Context, tx *gorm.DB, id string, now time.Time) error
	ReleaseSlot(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

type GameRepositoryImpl struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepositoryImpl {
	return &GameRepositoryImpl{db: db}
}

func (r *GameRepositoryImpl) Create(ctx context.Context, g *Game) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Status == "" {
		g.Status = StatusUpcoming
	}
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *GameRepositoryImpl) Get(ctx context.Context, id string) (*Game, error) {
	var g Game
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &g, nil
}

func (r *GameRepositoryImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Game, error) {
	var g Game
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	return &g, nil
}

func (r *GameRepositoryImpl) ListUpcoming(ctx context.Context, now time.Time, f Filter) ([]Game, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND date_time > ?", StatusUpcoming, now)
	if f.Location != "" {
		q = q.Where("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.From != nil {
		q = q.Where("date_time >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date_time <= ?", *f.To)
	}

	var games []Game
	if err := q.Order("date_time ASC").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// ReserveSlot increments booked_slots only while the game is still bookable.
func (r *GameRepositoryImpl) ReserveSlot(ctx context.Context, tx *gorm.DB, id string, now time.Time) error {
	result := tx.WithContext(ctx).
		Model(&Game{}).
		Where("id = ? AND status = ? AND booked_slots < total_slots AND date_time > ?", id, StatusUpcoming, now).
		Updates(map[string]interface{}{
			"booked_slots": gorm.Expr("booked_slots + 1"),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reserve slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGameNotBookable
	}
	return nil
}

// ReleaseSlot decrements booked_slots if above zero and reports whether it did.
func (r *GameRepositoryImpl) ReleaseSlot(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&Game{}).
		Where("id = ? AND booked_slots > 0", id).
		Updates(map[string]interface{}{
			"booked_slots": gorm.Expr("booked_slots - 1"),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to release slot: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *GameRepositoryImpl) UpdateStatus(ctx context.Context, id string, status string) error {
	result := r.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update game status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}
