package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"booking_service/internal/account"
	"booking_service/internal/dbtest"
	"booking_service/internal/events"
	"booking_service/internal/game"
	"booking_service/internal/payment"
	"booking_service/internal/paystack"
	"booking_service/internal/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "sk_test_webhook_secret"

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*paystack.InitializeResponse)
	return out, args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyResponse, error) {
	args := m.Called(ctx, reference)
	out, _ := args.Get(0).(*paystack.VerifyResponse)
	return out, args.Error(1)
}

type fixture struct {
	service   *payment.Service
	log       *payment.TransactionLogImpl
	accounts  *account.Service
	tiers     *subscription.Service
	games     *game.Service
	gateway   *mockGateway
	publisher *events.Recorder
	user      *account.Account
	tier      *subscription.Tier
}

func setUp(t *testing.T) *fixture {
	db := dbtest.Open(t)
	ctx := context.Background()

	f := &fixture{
		gateway:   new(mockGateway),
		publisher: &events.Recorder{},
		log:       payment.NewTransactionLog(db),
	}
	f.accounts = account.NewService(db, account.NewAccountRepository(db), f.publisher)
	f.tiers = subscription.NewService(subscription.NewTierRepository(db))
	f.games = game.NewService(game.NewGameRepository(db))
	f.service = payment.NewService(db, f.log, payment.Deps{
		Accounts:  f.accounts,
		Tiers:     f.tiers,
		Games:     f.games,
		Gateway:   f.gateway,
		Publisher: f.publisher,
	}, payment.Config{
		SecretKey:     secret,
		Currency:      "NGN",
		CoinUnitPrice: decimal.NewFromInt(5),
	})

	var err error
	f.user, err = f.accounts.Open(ctx, account.OpenRequest{Email: uuid.NewString() + "@example.com"})
	require.NoError(t, err)

	f.tier, err = f.tiers.Create(ctx, subscription.CreateRequest{
		Name:         "Silver-" + uuid.NewString()[:8],
		Price:        decimal.NewFromInt(2500),
		CoinsAwarded: 500,
	})
	require.NoError(t, err)
	return f
}

// openSubscription creates a pending subscription transaction directly.
func (f *fixture) openSubscription(t *testing.T) *payment.Transaction {
	tierID := f.tier.ID
	txn, err := f.log.Open(context.Background(), nil, payment.OpenParams{
		UserID:             f.user.ID,
		Type:               payment.TypeSubscription,
		Amount:             f.tier.Price,
		CoinsInvolved:      f.tier.CoinsAwarded,
		SubscriptionTierID: &tierID,
	})
	require.NoError(t, err)
	return txn
}

func (f *fixture) balance(t *testing.T) int64 {
	a, err := f.accounts.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	return a.CoinBalance
}

// webhookBody carries the subscription tier's price, 2500 NGN in kobo.
func webhookBody(t *testing.T, event, reference string) []byte {
	return chargeBody(t, event, reference, 250000, "NGN")
}

func chargeBody(t *testing.T, event, reference string, amount int64, currency string) []byte {
	body, err := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"id":        1001,
			"reference": reference,
			"status":    "success",
			"amount":    amount,
			"currency":  currency,
		},
	})
	require.NoError(t, err)
	return body
}

func TestNewReferenceFormat(t *testing.T) {
	assert.Regexp(t, `^GT_[0-9A-F]{16}$`, payment.NewReference())
	assert.NotEqual(t, payment.NewReference(), payment.NewReference())
}

func TestOpenDuplicateReference(t *testing.T) {
	f := setUp(t)
	txn := f.openSubscription(t)

	_, err := f.log.Open(context.Background(), nil, payment.OpenParams{
		UserID:    f.user.ID,
		Type:      payment.TypeBooking,
		Amount:    decimal.NewFromInt(10),
		Reference: txn.Reference,
	})
	assert.ErrorIs(t, err, payment.ErrDuplicateReference)
}

func TestMarkIsOneWay(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	got, err := f.log.MarkFailed(ctx, nil, txn.Reference, map[string]any{"reason": "declined"})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, got.Status)
	assert.Equal(t, "declined", got.Metadata["reason"])

	got, err = f.log.MarkSuccessful(ctx, nil, txn.Reference, nil)
	assert.ErrorIs(t, err, payment.ErrAlreadyResolved)
	assert.Equal(t, payment.StatusFailed, got.Status)

	_, err = f.log.MarkCancelled(ctx, nil, txn.Reference, nil)
	assert.ErrorIs(t, err, payment.ErrAlreadyResolved)

	_, err = f.log.MarkSuccessful(ctx, nil, "GT_DOESNOTEXIST00", nil)
	assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
}

func TestWebhookSuccessCreditsAndSetsTier(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookProcessed, result)

	a, err := f.accounts.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), a.CoinBalance)
	require.NotNil(t, a.SubscriptionTierID)
	assert.Equal(t, f.tier.ID, *a.SubscriptionTierID)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, stored.Status)
	assert.Equal(t, paystack.EventChargeSuccess, stored.Metadata["webhook_event"])
	assert.Equal(t, 1, f.publisher.Count(events.PaymentSucceeded))
}

func TestDuplicateWebhookCreditsOnce(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)
	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	sig := paystack.Sign([]byte(secret), body)

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := map[payment.WebhookResult]int{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.service.HandleWebhook(ctx, body, sig)
			assert.NoError(t, err)
			mu.Lock()
			results[result]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, results[payment.WebhookProcessed])
	assert.Equal(t, 7, results[payment.WebhookAlreadyProcessed])
	assert.Equal(t, int64(500), f.balance(t))
}

func TestWebhookInvalidSignatureMutatesNothing(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)
	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)

	for _, sig := range []string{"", "deadbeef", paystack.Sign([]byte("wrong"), body)} {
		_, err := f.service.HandleWebhook(ctx, body, sig)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	}

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, int64(0), f.balance(t))
	assert.Empty(t, f.publisher.Keys())
}

func TestWebhookChargeFailed(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)
	body := webhookBody(t, paystack.EventChargeFailed, txn.Reference)

	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookProcessed, result)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, stored.Status)
	assert.Equal(t, int64(0), f.balance(t))
}

func TestWebhookUnknownReferenceAndIgnoredEvents(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	body := webhookBody(t, paystack.EventChargeSuccess, "GT_"+uuid.NewString())
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookUnknownReference, result)

	body = webhookBody(t, "transfer.success", "whatever")
	result, err = f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookIgnored, result)

	body = []byte(`{not json`)
	_, err = f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	assert.ErrorIs(t, err, paystack.ErrMalformedEvent)
}

func TestVerifyFailedOutcome(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusFailed, Reference: txn.Reference}, nil).Once()

	got, err := f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, got.Status)
	assert.Equal(t, int64(0), f.balance(t))

	a, err := f.accounts.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, a.SubscriptionTierID)
	f.gateway.AssertExpectations(t)
}

func TestVerifySuccessThenWebhookIsNoop(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusSuccess, Reference: txn.Reference, Amount: 250000, Currency: "NGN"}, nil).Once()

	got, err := f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, got.Status)

	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookAlreadyProcessed, result)

	// resolved transactions are answered without another gateway call
	got, err = f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, got.Status)

	assert.Equal(t, int64(500), f.balance(t))
	f.gateway.AssertNumberOfCalls(t, "Verify", 1)
}

func TestVerifyGatewayErrorKeepsPending(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(nil, errors.New("connection reset")).Once()

	_, err := f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.ErrorIs(t, err, payment.ErrPaymentFailed)
	assert.NotContains(t, err.Error(), "connection reset")

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, "connection reset", stored.Metadata["verify_error"])
	assert.Equal(t, int64(0), f.balance(t))
}

func TestVerifyOtherUsersTransaction(t *testing.T) {
	f := setUp(t)
	txn := f.openSubscription(t)

	_, err := f.service.Verify(context.Background(), uuid.NewString(), txn.Reference)
	assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
}

func TestInitializeSubscription(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	f.gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(req paystack.InitializeRequest) bool {
		return req.Amount == 250000 && req.Email == f.user.Email && req.Currency == "NGN" &&
			req.CallbackURL == "https://app.example/cb" && req.Metadata["subscription_tier_id"] == f.tier.ID
	})).Return(&paystack.InitializeResponse{AuthorizationURL: "https://checkout.example/x", AccessCode: "x"}, nil).Once()

	checkout, err := f.service.Initialize(ctx, f.user.ID, payment.InitializeRequest{SubscriptionTierID: f.tier.ID}, "https://app.example/cb")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/x", checkout.AuthorizationURL)
	assert.Equal(t, int64(500), checkout.Coins)

	stored, err := f.log.GetByReference(ctx, checkout.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, payment.TypeSubscription, stored.Type)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, "https://checkout.example/x", stored.Metadata["authorization_url"])
	require.NotNil(t, stored.SubscriptionTierID)
	assert.Equal(t, f.tier.ID, *stored.SubscriptionTierID)
	f.gateway.AssertExpectations(t)
}

func TestInitializeGatewayFailureMarksFailed(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	var reference string
	f.gateway.On("Initialize", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reference = args.Get(1).(paystack.InitializeRequest).Reference }).
		Return(nil, &paystack.APIError{StatusCode: 401, Message: "Invalid key"}).Once()

	_, err := f.service.InitializeSubscription(ctx, f.user.ID, f.tier.ID, "")
	require.ErrorIs(t, err, payment.ErrPaymentFailed)

	stored, err := f.log.GetByReference(ctx, reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, stored.Status)
	assert.Equal(t, "initialize", stored.Metadata["error_stage"])
}

func TestInitializeBookingTopUp(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	g, err := f.games.Create(ctx, game.CreateRequest{
		Name: "Friday Night", Location: "Ikeja", DateTime: time.Now().Add(24 * time.Hour), CoinPrice: 4, TotalSlots: 10,
	})
	require.NoError(t, err)

	f.gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(req paystack.InitializeRequest) bool {
		return req.Amount == 2000 && req.Metadata["game_id"] == g.ID
	})).Return(&paystack.InitializeResponse{AuthorizationURL: "https://checkout.example/g"}, nil).Once()

	checkout, err := f.service.Initialize(ctx, f.user.ID, payment.InitializeRequest{GameID: g.ID}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), checkout.Coins)
	assert.True(t, checkout.Amount.Equal(decimal.NewFromInt(20)))

	// 4 coins at 5 NGN each, in kobo
	body := chargeBody(t, paystack.EventChargeSuccess, checkout.Reference, 2000, "NGN")
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookProcessed, result)

	a, err := f.accounts.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.CoinBalance)
	assert.Nil(t, a.SubscriptionTierID)
}

func TestInitializeRequiresExactlyOneTarget(t *testing.T) {
	f := setUp(t)
	_, err := f.service.Initialize(context.Background(), f.user.ID, payment.InitializeRequest{}, "")
	assert.ErrorIs(t, err, payment.ErrInvalidRequest)

	_, err = f.service.Initialize(context.Background(), f.user.ID, payment.InitializeRequest{GameID: uuid.NewString(), SubscriptionTierID: f.tier.ID}, "")
	assert.ErrorIs(t, err, payment.ErrInvalidRequest)
}

func TestInitializeInactiveTier(t *testing.T) {
	f := setUp(t)
	_, err := f.tiers.SetActive(context.Background(), f.tier.ID, false)
	require.NoError(t, err)

	_, err = f.service.InitializeSubscription(context.Background(), f.user.ID, f.tier.ID, "")
	assert.ErrorIs(t, err, subscription.ErrTierInactive)
	f.gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
}

func TestVerifyInProgressKeepsPendingUntilWebhook(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusOngoing, Reference: txn.Reference, Amount: 250000, Currency: "NGN"}, nil).Once()

	got, err := f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
	assert.Equal(t, paystack.StatusOngoing, got.Metadata["gateway_status"])
	assert.Equal(t, int64(0), f.balance(t))
	assert.Zero(t, f.publisher.Count(events.PaymentFailed))

	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	sig := paystack.Sign([]byte(secret), body)
	result, err := f.service.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookProcessed, result)

	result, err = f.service.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookAlreadyProcessed, result)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, stored.Status)
	assert.Equal(t, int64(500), f.balance(t))
	assert.Equal(t, 1, f.publisher.Count(events.PaymentSucceeded))
}

func TestVerifyTerminalStatusesFail(t *testing.T) {
	for _, status := range []string{paystack.StatusFailed, paystack.StatusAbandoned, paystack.StatusReversed} {
		t.Run(status, func(t *testing.T) {
			f := setUp(t)
			txn := f.openSubscription(t)
			f.gateway.On("Verify", mock.Anything, txn.Reference).
				Return(&paystack.VerifyResponse{Status: status, Reference: txn.Reference}, nil).Once()

			got, err := f.service.Verify(context.Background(), f.user.ID, txn.Reference)
			require.NoError(t, err)
			assert.Equal(t, payment.StatusFailed, got.Status)
			assert.Equal(t, int64(0), f.balance(t))
		})
	}
}

func TestWebhookAmountMismatchRefusesCredit(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	for _, body := range [][]byte{
		chargeBody(t, paystack.EventChargeSuccess, txn.Reference, 100, "NGN"),
		chargeBody(t, paystack.EventChargeSuccess, txn.Reference, 250000, "USD"),
	} {
		result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
		require.NoError(t, err)
		assert.Equal(t, payment.WebhookAmountMismatch, result)
	}

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.NotEmpty(t, stored.Metadata["amount_mismatch"])
	assert.Equal(t, int64(0), f.balance(t))
	assert.Empty(t, f.publisher.Keys())

	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookProcessed, result)
	assert.Equal(t, int64(500), f.balance(t))
}

func TestVerifyAmountMismatchKeepsPending(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusSuccess, Reference: txn.Reference, Amount: 25000, Currency: "NGN"}, nil).Once()

	_, err := f.service.Verify(ctx, f.user.ID, txn.Reference)
	require.ErrorIs(t, err, payment.ErrAmountMismatch)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, int64(0), f.balance(t))

	a, err := f.accounts.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, a.SubscriptionTierID)
}

func TestCancelPending(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusAbandoned, Reference: txn.Reference}, nil).Once()

	got, err := f.service.Cancel(ctx, f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, got.Status)
	assert.Equal(t, paystack.StatusAbandoned, got.Metadata["gateway_status"])

	// resolved transactions are refused without another gateway call
	_, err = f.service.Cancel(ctx, f.user.ID, txn.Reference)
	assert.ErrorIs(t, err, payment.ErrAlreadyResolved)
	f.gateway.AssertNumberOfCalls(t, "Verify", 1)
}

func TestCancelUnknownAtGateway(t *testing.T) {
	f := setUp(t)
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(nil, &paystack.APIError{StatusCode: 404, Message: "Transaction reference not found"}).Once()

	got, err := f.service.Cancel(context.Background(), f.user.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, got.Status)
}

func TestCancelAfterChargeSucceededSettlesInstead(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusSuccess, Reference: txn.Reference, Amount: 250000, Currency: "NGN"}, nil).Once()

	got, err := f.service.Cancel(ctx, f.user.ID, txn.Reference)
	require.ErrorIs(t, err, payment.ErrAlreadyResolved)
	require.NotNil(t, got)
	assert.Equal(t, payment.StatusSuccess, got.Status)
	assert.Equal(t, int64(500), f.balance(t))

	body := webhookBody(t, paystack.EventChargeSuccess, txn.Reference)
	result, err := f.service.HandleWebhook(ctx, body, paystack.Sign([]byte(secret), body))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookAlreadyProcessed, result)
	assert.Equal(t, int64(500), f.balance(t))
}

func TestCancelRefusedWhileInProgress(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(&paystack.VerifyResponse{Status: paystack.StatusProcessing, Reference: txn.Reference}, nil).Once()

	_, err := f.service.Cancel(ctx, f.user.ID, txn.Reference)
	require.ErrorIs(t, err, payment.ErrPaymentInProgress)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
}

func TestCancelGatewayErrorKeepsPending(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	txn := f.openSubscription(t)

	f.gateway.On("Verify", mock.Anything, txn.Reference).
		Return(nil, errors.New("connection reset")).Once()

	_, err := f.service.Cancel(ctx, f.user.ID, txn.Reference)
	require.ErrorIs(t, err, payment.ErrPaymentFailed)

	stored, err := f.log.GetByReference(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
}
