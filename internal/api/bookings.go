package api

import (
	"net/http"

	"booking_service/internal/auth"
	"booking_service/internal/booking"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateBooking(c *gin.Context) {
	var req booking.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Bookings.CreateBooking(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.Bookings.ListForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), auth.UserID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.Bookings.CancelBooking(c.Request.Context(), auth.UserID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_reference": b.Reference,
		"status":            b.Status,
		"refunded_coins":    b.CoinsPaid,
	})
}
