package api

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Options struct {
	FrontendURL   string
	AdminUsername string
	AdminPassword string
	// Authenticate guards the /api routes and must set the user id.
	Authenticate gin.HandlerFunc
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func NewRouter(h *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestSettings())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// the gateway authenticates with a body signature, not a bearer token
	r.POST("/api/payments/webhook", h.PaymentWebhook)

	api := r.Group("/api", opts.Authenticate)
	{
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:reference", h.GetBooking)
		api.DELETE("/bookings/:reference", h.CancelBooking)

		api.GET("/games", h.ListGames)
		api.GET("/games/:id", h.GetGame)

		api.GET("/subscriptions/tiers", h.ListTiers)

		api.GET("/me", h.Me)
		api.GET("/me/transactions", h.MyTransactions)
		api.GET("/me/events", h.MyEvents)

		api.POST("/payments/initialize", h.initializePayment(opts.FrontendURL))
		api.GET("/payments/verify", h.VerifyPayment)
		api.POST("/payments/:reference/cancel", h.CancelPayment)
	}

	admin := r.Group("/admin", gin.BasicAuth(gin.Accounts{opts.AdminUsername: opts.AdminPassword}))
	{
		admin.POST("/accounts", h.AdminOpenAccount)
		admin.POST("/accounts/:id/coins", h.AdminAdjustCoins)
		admin.POST("/games", h.AdminCreateGame)
		admin.PATCH("/games/:id/status", h.AdminUpdateGameStatus)
		admin.POST("/tiers", h.AdminCreateTier)
		admin.PATCH("/tiers/:id", h.AdminSetTierActive)
		admin.POST("/bookings/:reference/complete", h.AdminCompleteBooking)
	}

	return r
}
