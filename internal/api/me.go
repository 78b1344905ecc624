package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"booking_service/internal/account"
	"booking_service/internal/auth"
	"booking_service/internal/booking"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 25 * time.Second

type meResponse struct {
	*account.Account
	Bookings *booking.Summary `json:"bookings"`
}

func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.UserID(c)
	acct, err := h.Accounts.Get(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.Bookings.Summary(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{Account: acct, Bookings: summary})
}

func (h *Handler) MyTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.Payments.ListForUser(c.Request.Context(), auth.UserID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// MyEvents streams committed balance changes as server-sent events.
func (h *Handler) MyEvents(c *gin.Context) {
	updates, unsubscribe := h.Accounts.Subscribe(auth.UserID(c))
	defer unsubscribe()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("balance", u)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		}
	})
}
