package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"booking_service/internal/account"
	"booking_service/internal/booking"
	"booking_service/internal/game"
	"booking_service/internal/payment"
	"booking_service/internal/paystack"
	"booking_service/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries per-field details for a 400 response.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return &ValidationError{Fields: []FieldError{{Field: "body", Rule: "parse", Message: err.Error()}}}
	}
	fields := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " failed " + fe.Tag() + " validation"
}

func statusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrGameNotBookable),
		errors.Is(err, booking.ErrDuplicateBooking),
		errors.Is(err, booking.ErrAlreadyCancelled),
		errors.Is(err, booking.ErrNotCompletable),
		errors.Is(err, account.ErrDuplicateEmail),
		errors.Is(err, subscription.ErrDuplicateTier),
		errors.Is(err, subscription.ErrTierInactive),
		errors.Is(err, payment.ErrAlreadyResolved),
		errors.Is(err, payment.ErrPaymentInProgress),
		errors.Is(err, payment.ErrAmountMismatch),
		errors.Is(err, payment.ErrDuplicateReference):
		return http.StatusConflict
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, subscription.ErrTierNotFound),
		errors.Is(err, payment.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidAccount),
		errors.Is(err, game.ErrInvalidGame),
		errors.Is(err, game.ErrInvalidStatus),
		errors.Is(err, subscription.ErrInvalidTier),
		errors.Is(err, payment.ErrInvalidRequest),
		errors.Is(err, payment.ErrInvalidTransaction),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, paystack.ErrMalformedEvent):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrPaymentFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
	case status == http.StatusBadGateway:
		// gateway details stay in transaction metadata
		c.JSON(status, gin.H{"error": payment.ErrPaymentFailed.Error()})
	default:
		body := gin.H{"error": err.Error()}
		var ve *ValidationError
		if errors.As(err, &ve) {
			body["error"] = "validation failed"
			body["details"] = ve.Fields
		}
		c.JSON(status, body)
	}
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, newValidationError(err))
		return false
	}
	return true
}
