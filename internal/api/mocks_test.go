package api

import (
	"context"

	"booking_service/internal/account"
	"booking_service/internal/booking"
	"booking_service/internal/game"
	"booking_service/internal/payment"
	"booking_service/internal/subscription"

	"github.com/stretchr/testify/mock"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) CreateBooking(ctx context.Context, userID string, req booking.CreateRequest) (*booking.Booking, error) {
	args := m.Called(ctx, userID, req)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) CancelBooking(ctx context.Context, userID, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, userID, reference)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) CompleteBooking(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Get(ctx context.Context, userID, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, userID, reference)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) ListForUser(ctx context.Context, userID string) ([]booking.Booking, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).([]booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Summary(ctx context.Context, userID string) (*booking.Summary, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*booking.Summary)
	return s, args.Error(1)
}

type mockGames struct{ mock.Mock }

func (m *mockGames) Create(ctx context.Context, req game.CreateRequest) (*game.Game, error) {
	args := m.Called(ctx, req)
	g, _ := args.Get(0).(*game.Game)
	return g, args.Error(1)
}

func (m *mockGames) Get(ctx context.Context, id string) (*game.Game, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*game.Game)
	return g, args.Error(1)
}

func (m *mockGames) ListUpcoming(ctx context.Context, f game.Filter) ([]game.Game, error) {
	args := m.Called(ctx, f)
	g, _ := args.Get(0).([]game.Game)
	return g, args.Error(1)
}

func (m *mockGames) UpdateStatus(ctx context.Context, id string, status string) (*game.Game, error) {
	args := m.Called(ctx, id, status)
	g, _ := args.Get(0).(*game.Game)
	return g, args.Error(1)
}

type mockTiers struct{ mock.Mock }

func (m *mockTiers) Create(ctx context.Context, req subscription.CreateRequest) (*subscription.Tier, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*subscription.Tier)
	return t, args.Error(1)
}

func (m *mockTiers) ListActive(ctx context.Context) ([]subscription.Tier, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).([]subscription.Tier)
	return t, args.Error(1)
}

func (m *mockTiers) SetActive(ctx context.Context, id string, active bool) (*subscription.Tier, error) {
	args := m.Called(ctx, id, active)
	t, _ := args.Get(0).(*subscription.Tier)
	return t, args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Open(ctx context.Context, req account.OpenRequest) (*account.Account, error) {
	args := m.Called(ctx, req)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *mockAccounts) Get(ctx context.Context, userID string) (*account.Account, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *mockAccounts) Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	args := m.Called(ctx, userID, delta, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccounts) Subscribe(userID string) (<-chan account.BalanceUpdate, func()) {
	args := m.Called(userID)
	return args.Get(0).(<-chan account.BalanceUpdate), args.Get(1).(func())
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Initialize(ctx context.Context, userID string, req payment.InitializeRequest, callbackURL string) (*payment.Checkout, error) {
	args := m.Called(ctx, userID, req, callbackURL)
	co, _ := args.Get(0).(*payment.Checkout)
	return co, args.Error(1)
}

func (m *mockPayments) Verify(ctx context.Context, userID, reference string) (*payment.Transaction, error) {
	args := m.Called(ctx, userID, reference)
	t, _ := args.Get(0).(*payment.Transaction)
	return t, args.Error(1)
}

func (m *mockPayments) HandleWebhook(ctx context.Context, body []byte, signature string) (payment.WebhookResult, error) {
	args := m.Called(ctx, body, signature)
	return args.Get(0).(payment.WebhookResult), args.Error(1)
}

func (m *mockPayments) ListForUser(ctx context.Context, userID string, limit int) ([]payment.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	t, _ := args.Get(0).([]payment.Transaction)
	return t, args.Error(1)
}

func (m *mockPayments) Cancel(ctx context.Context, userID, reference string) (*payment.Transaction, error) {
	args := m.Called(ctx, userID, reference)
	t, _ := args.Get(0).(*payment.Transaction)
	return t, args.Error(1)
}

type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, error) { return "token-" + userID, nil }
