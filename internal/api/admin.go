package api

import (
	"net/http"

	"booking_service/internal/account"
	"booking_service/internal/game"
	"booking_service/internal/subscription"

	"github.com/gin-gonic/gin"
)

type openAccountRequest struct {
	account.OpenRequest
	InitialCoins int64 `json:"initial_coins" binding:"min=0"`
}

// AdminOpenAccount registers a user and hands back an access token for them.
func (h *Handler) AdminOpenAccount(c *gin.Context) {
	var req openAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	acct, err := h.Accounts.Open(ctx, req.OpenRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	if req.InitialCoins > 0 {
		balance, err := h.Accounts.Adjust(ctx, acct.ID, req.InitialCoins, account.ReasonAdjustment)
		if err != nil {
			writeError(c, err)
			return
		}
		acct.CoinBalance = balance
	}
	token, err := h.Tokens.Issue(acct.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": acct, "access_token": token})
}

func (h *Handler) AdminAdjustCoins(c *gin.Context) {
	id, ok := pathID(c, account.ErrAccountNotFound)
	if !ok {
		return
	}
	var req account.AdjustRequest
	if !bindJSON(c, &req) {
		return
	}
	balance, err := h.Accounts.Adjust(c.Request.Context(), id, req.Delta, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "coin_balance": balance})
}

func (h *Handler) AdminCreateGame(c *gin.Context) {
	var req game.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.Games.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) AdminUpdateGameStatus(c *gin.Context) {
	id, ok := pathID(c, game.ErrGameNotFound)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=upcoming ongoing completed cancelled"`
	}
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.Games.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) AdminCreateTier(c *gin.Context) {
	var req subscription.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tiers.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) AdminSetTierActive(c *gin.Context) {
	id, ok := pathID(c, subscription.ErrTierNotFound)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tiers.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) AdminCompleteBooking(c *gin.Context) {
	b, err := h.Bookings.CompleteBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
