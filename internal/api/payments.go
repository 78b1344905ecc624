package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"booking_service/internal/auth"
	"booking_service/internal/payment"
	"booking_service/internal/paystack"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 1 << 20

func (h *Handler) initializePayment(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.InitializeRequest
		if !bindJSON(c, &req) {
			return
		}
		checkout, err := h.Payments.Initialize(c.Request.Context(), auth.UserID(c), req, callbackURL(c, frontendURL))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, checkout)
	}
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		writeError(c, &ValidationError{Fields: []FieldError{{Field: "reference", Rule: "required", Message: "reference is required"}}})
		return
	}
	t, err := h.Payments.Verify(c.Request.Context(), auth.UserID(c), reference)
	if err != nil {
		writeError(c, err)
		return
	}
	var awarded int64
	if t.Status == payment.StatusSuccess {
		awarded = t.CoinsInvolved
	}
	c.JSON(http.StatusOK, gin.H{
		"reference":     t.Reference,
		"status":        t.Status,
		"coins_awarded": awarded,
	})
}

func (h *Handler) CancelPayment(c *gin.Context) {
	t, err := h.Payments.Cancel(c.Request.Context(), auth.UserID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": t.Reference, "status": t.Status})
}

// PaymentWebhook reads the raw body so the signature is checked over the
// exact bytes the gateway signed.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	result, err := h.Payments.HandleWebhook(c.Request.Context(), body, c.GetHeader(paystack.SignatureHeader))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "webhook processing failed", "error", err)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result})
}
