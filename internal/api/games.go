package api

import (
	"fmt"
	"net/http"
	"time"

	"booking_service/internal/game"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListGames(c *gin.Context) {
	f := game.Filter{Location: c.Query("location")}
	var err error
	if f.From, err = parseDate(c.Query("date_from")); err != nil {
		writeError(c, fieldError("date_from", err))
		return
	}
	if f.To, err = parseDate(c.Query("date_to")); err != nil {
		writeError(c, fieldError("date_to", err))
		return
	}
	games, err := h.Games.ListUpcoming(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *Handler) GetGame(c *gin.Context) {
	id, ok := pathID(c, game.ErrGameNotFound)
	if !ok {
		return
	}
	g, err := h.Games.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func fieldError(field string, err error) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: "format", Message: err.Error()}}}
}
