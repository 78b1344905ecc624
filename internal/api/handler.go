package api

import (
	"context"

	"booking_service/internal/account"
	"booking_service/internal/booking"
	"booking_service/internal/game"
	"booking_service/internal/payment"
	"booking_service/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req booking.CreateRequest) (*booking.Booking, error)
	CancelBooking(ctx context.Context, userID, reference string) (*booking.Booking, error)
	CompleteBooking(ctx context.Context, reference string) (*booking.Booking, error)
	Get(ctx context.Context, userID, reference string) (*booking.Booking, error)
	ListForUser(ctx context.Context, userID string) ([]booking.Booking, error)
	Summary(ctx context.Context, userID string) (*booking.Summary, error)
}

type GameService interface {
	Create(ctx context.Context, req game.CreateRequest) (*game.Game, error)
	Get(ctx context.Context, id string) (*game.Game, error)
	ListUpcoming(ctx context.Context, f game.Filter) ([]game.Game, error)
	UpdateStatus(ctx context.Context, id string, status string) (*game.Game, error)
}

type TierService interface {
	Create(ctx context.Context, req subscription.CreateRequest) (*subscription.Tier, error)
	ListActive(ctx context.Context) ([]subscription.Tier, error)
	SetActive(ctx context.Context, id string, active bool) (*subscription.Tier, error)
}

type AccountService interface {
	Open(ctx context.Context, req account.OpenRequest) (*account.Account, error)
	Get(ctx context.Context, userID string) (*account.Account, error)
	Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error)
	Subscribe(userID string) (<-chan account.BalanceUpdate, func())
}

type PaymentService interface {
	Initialize(ctx context.Context, userID string, req payment.InitializeRequest, callbackURL string) (*payment.Checkout, error)
	Verify(ctx context.Context, userID, reference string) (*payment.Transaction, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (payment.WebhookResult, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]payment.Transaction, error)
	Cancel(ctx context.Context, userID, reference string) (*payment.Transaction, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	Bookings BookingService
	Games    GameService
	Tiers    TierService
	Accounts AccountService
	Payments PaymentService
	Tokens   TokenIssuer
}

// pathID returns the :id parameter. Anything that is not a UUID cannot name a
// row, so it is answered with notFound.
func pathID(c *gin.Context, notFound error) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, notFound)
		return "", false
	}
	return id, true
}
