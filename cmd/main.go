package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking_service/internal/account"
	"booking_service/internal/api"
	"booking_service/internal/archive"
	"booking_service/internal/auth"
	"booking_service/internal/booking"
	"booking_service/internal/config"
	"booking_service/internal/database"
	"booking_service/internal/events"
	"booking_service/internal/game"
	"booking_service/internal/logging"
	"booking_service/internal/payment"
	"booking_service/internal/paystack"
	"booking_service/internal/subscription"
	"booking_service/pkg/obs"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupJSON(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := obs.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.Environment)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("tracer shutdown", "error", err)
			}
		}()
	}

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB.ConnStr); err != nil {
			return err
		}
	}
	db, err := database.Open(ctx, cfg.DB.ConnStr, database.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer database.Close(db)

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.RabbitURL != "" {
		p, err := events.NewAMQPPublisher(cfg.Events.RabbitURL, cfg.Events.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	var archiver archive.Archiver = archive.Nop{}
	if cfg.Archive.Bucket != "" {
		a, err := archive.NewS3Archiver(archive.Config{
			Endpoint:     cfg.Archive.Endpoint,
			Region:       cfg.Archive.Region,
			AccessKey:    cfg.Archive.AccessKey,
			SecretKey:    cfg.Archive.SecretKey,
			Bucket:       cfg.Archive.Bucket,
			Prefix:       cfg.Archive.Prefix,
			UsePathStyle: cfg.Archive.UsePathStyle,
		})
		if err != nil {
			return err
		}
		archiver = a
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	accounts := account.NewService(db, account.NewAccountRepository(db), publisher)
	games := game.NewService(game.NewGameRepository(db))
	tiers := subscription.NewService(subscription.NewTierRepository(db))
	txLog := payment.NewTransactionLog(db)
	bookings := booking.NewBookingService(db, booking.NewBookingRepository(db), accounts, games, txLog, publisher)
	payments := payment.NewService(db, txLog, payment.Deps{
		Accounts:  accounts,
		Tiers:     tiers,
		Games:     games,
		Gateway:   paystack.NewClient(paystack.Config{BaseURL: cfg.Paystack.BaseURL, SecretKey: cfg.Paystack.SecretKey, Timeout: cfg.Paystack.Timeout}),
		Publisher: publisher,
		Archiver:  archiver,
	}, payment.Config{
		SecretKey:     cfg.Paystack.SecretKey,
		Currency:      cfg.Paystack.Currency,
		CoinUnitPrice: cfg.CoinUnitPrice,
	})

	router := api.NewRouter(&api.Handler{
		Bookings: bookings,
		Games:    games,
		Tiers:    tiers,
		Accounts: accounts,
		Payments: payments,
		Tokens:   issuer,
	}, api.Options{
		FrontendURL:   cfg.FrontendURL,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		Authenticate:  issuer.Middleware(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
