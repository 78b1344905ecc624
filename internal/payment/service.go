package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"booking_service/internal/account"
	"booking_service/internal/archive"
	"booking_service/internal/events"
	"booking_service/internal/game"
	"booking_service/internal/paystack"
	"booking_service/internal/subscription"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrInvalidRequest    = errors.New("exactly one of subscription_tier_id or game_id is required")
	ErrPaymentInProgress = errors.New("payment is still in progress")
	ErrAmountMismatch    = errors.New("gateway amount does not match transaction")
)

var tracer = otel.Tracer("booking_service/payment")

type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
}

type Config struct {
	SecretKey string
	Currency  string
	// CoinUnitPrice prices booking top-ups: amount = coins * CoinUnitPrice.
	CoinUnitPrice decimal.Decimal
}

type Deps struct {
	Accounts  *account.Service
	Tiers     *subscription.Service
	Games     *game.Service
	Gateway   Gateway
	Publisher events.Publisher
	Archiver  archive.Archiver
}

// Service opens payments with the gateway and reconciles their outcome from
// either the verify callback or the signed webhook.
type Service struct {
	db        *gorm.DB
	log       TransactionLog
	accounts  *account.Service
	tiers     *subscription.Service
	games     *game.Service
	gateway   Gateway
	publisher events.Publisher
	archiver  archive.Archiver
	cfg       Config
}

func NewService(db *gorm.DB, log TransactionLog, deps Deps, cfg Config) *Service {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Archiver == nil {
		deps.Archiver = archive.Nop{}
	}
	return &Service{
		db:        db,
		log:       log,
		accounts:  deps.Accounts,
		tiers:     deps.Tiers,
		games:     deps.Games,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		archiver:  deps.Archiver,
		cfg:       cfg,
	}
}

// Initialize dispatches on which target the request names.
func (s *Service) Initialize(ctx context.Context, userID string, req InitializeRequest, callbackURL string) (*Checkout, error) {
	switch {
	case req.SubscriptionTierID != "" && req.GameID == "":
		return s.InitializeSubscription(ctx, userID, req.SubscriptionTierID, callbackURL)
	case req.GameID != "" && req.SubscriptionTierID == "":
		return s.InitializeBookingTopUp(ctx, userID, req.GameID, callbackURL)
	default:
		return nil, ErrInvalidRequest
	}
}

func (s *Service) InitializeSubscription(ctx context.Context, userID, tierID, callbackURL string) (*Checkout, error) {
	ctx, span := tracer.Start(ctx, "payment.initialize_subscription")
	defer span.End()

	tier, err := s.tiers.GetActive(ctx, tierID)
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	tierRef := tier.ID
	t, err := s.log.Open(ctx, nil, OpenParams{
		UserID:             userID,
		Type:               TypeSubscription,
		Amount:             tier.Price,
		CoinsInvolved:      tier.CoinsAwarded,
		SubscriptionTierID: &tierRef,
		Description:        "Subscription: " + tier.Name,
		Metadata: map[string]any{
			"tier_name":     tier.Name,
			"duration_days": tier.DurationDays,
		},
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.reference", t.Reference))

	return s.checkout(ctx, acct, t, callbackURL)
}

// InitializeBookingTopUp charges for exactly the coins one game costs.
func (s *Service) InitializeBookingTopUp(ctx context.Context, userID, gameID, callbackURL string) (*Checkout, error) {
	ctx, span := tracer.Start(ctx, "payment.initialize_booking")
	defer span.End()

	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !g.CanBook(s.games.Now()) {
		return nil, game.ErrGameNotBookable
	}
	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	gameRef := g.ID
	t, err := s.log.Open(ctx, nil, OpenParams{
		UserID:        userID,
		Type:          TypeBooking,
		Amount:        s.cfg.CoinUnitPrice.Mul(decimal.NewFromInt(g.CoinPrice)),
		CoinsInvolved: g.CoinPrice,
		GameID:        &gameRef,
		Description:   "Coins for game: " + g.Name,
		Metadata: map[string]any{
			"game_name": g.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.reference", t.Reference))

	return s.checkout(ctx, acct, t, callbackURL)
}

// checkout calls the gateway for a committed pending transaction. No row
// lock is held here.
func (s *Service) checkout(ctx context.Context, acct *account.Account, t *Transaction, callbackURL string) (*Checkout, error) {
	meta := map[string]any{
		"user_id":          acct.ID,
		"transaction_type": t.Type,
	}
	if t.SubscriptionTierID != nil {
		meta["subscription_tier_id"] = *t.SubscriptionTierID
	}
	if t.GameID != nil {
		meta["game_id"] = *t.GameID
	}

	resp, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       acct.Email,
		Amount:      paystack.ToSubunits(t.Amount),
		Currency:    s.cfg.Currency,
		Reference:   t.Reference,
		CallbackURL: callbackURL,
		Metadata:    meta,
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway initialize failed", "reference", t.Reference, "error", err)
		if _, markErr := s.log.MarkFailed(ctx, nil, t.Reference, map[string]any{
			"error":       err.Error(),
			"error_stage": "initialize",
		}); markErr != nil {
			slog.ErrorContext(ctx, "mark transaction failed", "reference", t.Reference, "error", markErr)
		}
		return nil, ErrPaymentFailed
	}

	if err := s.log.MergeMetadata(ctx, nil, t.Reference, map[string]any{
		"authorization_url": resp.AuthorizationURL,
		"access_code":       resp.AccessCode,
	}); err != nil {
		slog.WarnContext(ctx, "store gateway metadata failed", "reference", t.Reference, "error", err)
	}

	slog.InfoContext(ctx, "payment initialized",
		"reference", t.Reference, "user_id", acct.ID, "type", t.Type, "amount", t.Amount.String())

	return &Checkout{
		AuthorizationURL: resp.AuthorizationURL,
		Reference:        t.Reference,
		Amount:           t.Amount,
		Coins:            t.CoinsInvolved,
	}, nil
}

// Verify asks the gateway for the outcome of reference and reconciles it.
// userID, when set, must own the transaction. A resolved transaction is
// returned as is.
func (s *Service) Verify(ctx context.Context, userID, reference string) (*Transaction, error) {
	ctx, span := tracer.Start(ctx, "payment.verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", reference))

	t, err := s.log.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if userID != "" && t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	if !t.IsPending() {
		return t, nil
	}

	resp, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway verify failed")
		slog.ErrorContext(ctx, "gateway verify failed", "reference", reference, "error", err)
		if mergeErr := s.log.MergeMetadata(ctx, nil, reference, map[string]any{
			"verify_error": err.Error(),
			"verify_at":    time.Now().UTC().Format(time.RFC3339),
		}); mergeErr != nil {
			slog.ErrorContext(ctx, "store verify error failed", "reference", reference, "error", mergeErr)
		}
		return nil, ErrPaymentFailed
	}

	meta := verifyMetadata(resp)
	if !resp.Succeeded() && !resp.Failed() {
		// still moving at the gateway; a later verify or webhook settles it
		slog.InfoContext(ctx, "payment in progress", "reference", reference, "gateway_status", resp.Status)
		if err := s.log.MergeMetadata(ctx, nil, reference, meta); err != nil {
			return nil, err
		}
		return s.log.GetByReference(ctx, reference)
	}

	resolved, err := s.Reconcile(ctx, reference, Outcome{
		Success:  resp.Succeeded(),
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Metadata: meta,
	})
	if errors.Is(err, ErrAlreadyResolved) {
		return s.log.GetByReference(ctx, reference)
	}
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func verifyMetadata(resp *paystack.VerifyResponse) map[string]any {
	return map[string]any{
		"verified_via":     "verify",
		"verify_at":        time.Now().UTC().Format(time.RFC3339),
		"gateway_id":       resp.ID,
		"gateway_status":   resp.Status,
		"gateway_amount":   resp.Amount,
		"gateway_currency": resp.Currency,
		"gateway_response": resp.GatewayResponse,
		"channel":          resp.Channel,
	}
}

// HandleWebhook authenticates a gateway event and reconciles it. Only a bad
// signature, a malformed body or a storage failure return an error; anything
// else is acknowledged so the gateway stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	ctx, span := tracer.Start(ctx, "payment.webhook")
	defer span.End()

	if !paystack.VerifySignature([]byte(s.cfg.SecretKey), body, signature) {
		slog.WarnContext(ctx, "webhook signature rejected")
		return "", ErrInvalidSignature
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		return "", err
	}
	span.SetAttributes(
		attribute.String("payment.event", event.Event),
		attribute.String("payment.reference", event.Data.Reference),
	)

	if key, err := s.archiver.Archive(ctx, "paystack", event.Data.Reference, body); err != nil {
		slog.WarnContext(ctx, "archive webhook payload failed", "reference", event.Data.Reference, "error", err)
	} else if key != "" {
		slog.DebugContext(ctx, "webhook payload archived", "key", key)
	}

	var outcome Outcome
	switch event.Event {
	case paystack.EventChargeSuccess:
		outcome.Success = true
	case paystack.EventChargeFailed:
		outcome.Success = false
	default:
		slog.InfoContext(ctx, "webhook event ignored", "event", event.Event, "reference", event.Data.Reference)
		return WebhookIgnored, nil
	}
	outcome.Amount = event.Data.Amount
	outcome.Currency = event.Data.Currency
	outcome.Metadata = event.Data.Metadata(event.Event)

	_, err = s.Reconcile(ctx, event.Data.Reference, outcome)
	switch {
	case errors.Is(err, ErrAmountMismatch):
		return WebhookAmountMismatch, nil
	case errors.Is(err, ErrTransactionNotFound):
		slog.WarnContext(ctx, "webhook for unknown reference", "reference", event.Data.Reference)
		return WebhookUnknownReference, nil
	case errors.Is(err, ErrAlreadyResolved):
		slog.InfoContext(ctx, "webhook for resolved transaction", "reference", event.Data.Reference)
		return WebhookAlreadyProcessed, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile failed")
		return "", err
	}
	return WebhookProcessed, nil
}

// Reconcile settles a pending transaction in one database transaction: the
// transaction row is locked first, then the user row through Credit. A
// success whose amount or currency disagrees with the transaction is not
// credited; the row stays pending with the discrepancy in its metadata.
func (s *Service) Reconcile(ctx context.Context, reference string, outcome Outcome) (*Transaction, error) {
	var (
		resolved *Transaction
		balance  int64
		credited bool
		mismatch string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.log.GetForUpdate(ctx, tx, reference)
		if err != nil {
			return err
		}
		if !t.IsPending() {
			return ErrAlreadyResolved
		}

		if !outcome.Success {
			resolved, err = s.log.MarkFailed(ctx, tx, reference, outcome.Metadata)
			return err
		}

		if mismatch = s.mismatch(t, outcome); mismatch != "" {
			return s.log.MergeMetadata(ctx, tx, reference, map[string]any{
				"amount_mismatch":  mismatch,
				"gateway_amount":   outcome.Amount,
				"gateway_currency": outcome.Currency,
			})
		}

		resolved, err = s.log.MarkSuccessful(ctx, tx, reference, outcome.Metadata)
		if err != nil {
			return err
		}
		if t.CoinsInvolved > 0 {
			if _, err := s.accounts.GetForUpdate(ctx, tx, t.UserID); err != nil {
				return err
			}
			balance, err = s.accounts.Credit(ctx, tx, t.UserID, t.CoinsInvolved)
			if err != nil {
				return err
			}
			credited = true
		}
		if t.Type == TypeSubscription && t.SubscriptionTierID != nil {
			if err := s.accounts.SetSubscriptionTier(ctx, tx, t.UserID, *t.SubscriptionTierID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatch != "" {
		slog.ErrorContext(ctx, "gateway amount mismatch, credit refused", "reference", reference, "mismatch", mismatch)
		return nil, ErrAmountMismatch
	}

	if credited {
		reason := account.ReasonPayment
		if resolved.Type == TypeSubscription {
			reason = account.ReasonSubscription
		}
		s.accounts.Notify(ctx, resolved.UserID, balance, resolved.CoinsInvolved, reason)
	}

	key := events.PaymentFailed
	if resolved.Status == StatusSuccess {
		key = events.PaymentSucceeded
	}
	if err := s.publisher.PublishJSON(ctx, key, Event{
		Reference:     resolved.Reference,
		UserID:        resolved.UserID,
		Type:          resolved.Type,
		Status:        resolved.Status,
		CoinsInvolved: resolved.CoinsInvolved,
		Timestamp:     time.Now().UTC(),
	}); err != nil {
		slog.WarnContext(ctx, "publish payment event failed", "reference", reference, "error", err)
	}

	slog.InfoContext(ctx, "payment reconciled",
		"reference", reference, "status", resolved.Status, "coins", resolved.CoinsInvolved, "credited", credited)
	return resolved, nil
}

func (s *Service) mismatch(t *Transaction, o Outcome) string {
	if want := paystack.ToSubunits(t.Amount); o.Amount != want {
		return fmt.Sprintf("amount %d, want %d", o.Amount, want)
	}
	if s.cfg.Currency != "" && !strings.EqualFold(o.Currency, s.cfg.Currency) {
		return fmt.Sprintf("currency %q, want %q", o.Currency, s.cfg.Currency)
	}
	return ""
}

func (s *Service) Get(ctx context.Context, userID, reference string) (*Transaction, error) {
	t, err := s.log.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	return s.log.ListForUser(ctx, userID, limit)
}

// Cancel abandons a pending payment the user no longer intends to complete.
// The gateway is asked first, with no lock held: a charge that already went
// through is settled instead, and one still in progress is refused.
func (s *Service) Cancel(ctx context.Context, userID, reference string) (*Transaction, error) {
	ctx, span := tracer.Start(ctx, "payment.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", reference))

	t, err := s.Get(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	if !t.IsPending() {
		return t, ErrAlreadyResolved
	}

	meta := map[string]any{"cancelled_by": "user"}
	resp, err := s.gateway.Verify(ctx, reference)
	var apiErr *paystack.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		// the gateway never saw a charge for it
		meta["gateway_status"] = "not_found"
	case err != nil:
		span.RecordError(err)
		slog.ErrorContext(ctx, "gateway verify before cancel failed", "reference", reference, "error", err)
		return nil, ErrPaymentFailed
	case resp.Succeeded():
		settled, err := s.Reconcile(ctx, reference, Outcome{
			Success:  true,
			Amount:   resp.Amount,
			Currency: resp.Currency,
			Metadata: verifyMetadata(resp),
		})
		if errors.Is(err, ErrAlreadyResolved) {
			settled, err = s.log.GetByReference(ctx, reference)
		}
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "cancel refused, charge already succeeded", "reference", reference)
		return settled, ErrAlreadyResolved
	case !resp.Failed():
		return t, ErrPaymentInProgress
	default:
		meta["gateway_status"] = resp.Status
	}

	return s.log.MarkCancelled(ctx, nil, reference, meta)
}
