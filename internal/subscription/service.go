package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const defaultDurationDays = 30

type Service struct {
	repo TierRepository
}

func NewService(repo TierRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Tier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTier)
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidTier)
	}
	if req.CoinsAwarded < 0 {
		return nil, fmt.Errorf("%w: coins_awarded must not be negative", ErrInvalidTier)
	}
	duration := req.DurationDays
	if duration == 0 {
		duration = defaultDurationDays
	}

	t := &Tier{
		Name:         name,
		Price:        req.Price.Round(2),
		CoinsAwarded: req.CoinsAwarded,
		Description:  req.Description,
		DurationDays: duration,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "subscription tier created", "tier_id", t.ID, "name", t.Name, "price", t.Price.String())
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tier, error) {
	return s.repo.Get(ctx, id)
}

// GetActive returns the tier only if it can currently be purchased.
func (s *Service) GetActive(ctx context.Context, id string) (*Tier, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTierInactive
	}
	return t, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Tier, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*Tier, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
