package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTiers(c *gin.Context) {
	tiers, err := h.Tiers.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
