package main

import (
	"log/slog"
	"os"

	"booking_service/internal/config"
	"booking_service/internal/database"
	"booking_service/internal/logging"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// migrator only needs the connection string, so it skips the full config
// validation the server runs.
type migratorConfig struct {
	DB config.DB
}

func main() {
	logging.SetupJSON(slog.LevelInfo)
	_ = godotenv.Load()

	var cfg migratorConfig
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(cfg.DB.ConnStr); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")
}
