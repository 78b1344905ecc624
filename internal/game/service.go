package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Service struct {
	repo GameRepository
	now  func() time.Time
}

func NewService(repo GameRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the time source used for bookability checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Game, error) {
	name := strings.TrimSpace(req.Name)
	location := strings.TrimSpace(req.Location)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidGame)
	case location == "":
		return nil, fmt.Errorf("%w: location is required", ErrInvalidGame)
	case req.DateTime.IsZero():
		return nil, fmt.Errorf("%w: date_time is required", ErrInvalidGame)
	case req.CoinPrice < 1:
		return nil, fmt.Errorf("%w: coin_price must be at least 1", ErrInvalidGame)
	case req.TotalSlots < 1:
		return nil, fmt.Errorf("%w: total_slots must be at least 1", ErrInvalidGame)
	}

	g := &Game{
		Name:        name,
		Location:    location,
		DateTime:    req.DateTime.UTC(),
		CoinPrice:   req.CoinPrice,
		TotalSlots:  req.TotalSlots,
		Status:      StatusUpcoming,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "game created", "game_id", g.ID, "slots", g.TotalSlots, "coin_price", g.CoinPrice)
	return g, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Game, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Game, error) {
	return s.repo.GetForUpdate(ctx, tx, id)
}

func (s *Service) ListUpcoming(ctx context.Context, f Filter) ([]Game, error) {
	return s.repo.ListUpcoming(ctx, s.now(), f)
}

// ReserveSlot takes one slot of a game whose row the caller has locked.
func (s *Service) ReserveSlot(ctx context.Context, tx *gorm.DB, g *Game) error {
	now := s.now()
	if !g.CanBook(now) {
		return ErrGameNotBookable
	}
	if err := s.repo.ReserveSlot(ctx, tx, g.ID, now); err != nil {
		return err
	}
	g.BookedSlots++
	return nil
}

// ReleaseSlot gives a slot back. Releasing on an empty game is a no-op.
func (s *Service) ReleaseSlot(ctx context.Context, tx *gorm.DB, gameID string) error {
	released, err := s.repo.ReleaseSlot(ctx, tx, gameID)
	if err != nil {
		return err
	}
	if !released {
		slog.WarnContext(ctx, "release on game with no booked slots", "game_id", gameID)
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*Game, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "game status updated", "game_id", id, "status", status)
	return s.repo.Get(ctx, id)
}
