package main

import (
	"context"
	"log"

	"equipdata/adapters/postgres"
	"equipdata/app"
	"equipdata/internal"
	"equipdata/internal/config"
	"equipdata/internal/errors"
	"equipdata/internal/ingest"
	"equipdata/internal/migration"
	"equipdata/internal/token"
	"equipdata/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase opens the PostgreSQL connection and brings the schema up to
// date.
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := internal.DefaultLogger

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer db.Close()
	logger.Info("database ready")

	userRepo := postgres.NewUserRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	tokens := token.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	validator := ingest.NewValidator()

	authService := app.NewAuthService(userRepo, tokens, logger)
	uploadService := app.NewUploadService(validator, historyRepo, logger)
	historyService := app.NewHistoryService(historyRepo)

	server := ui.NewServer(cfg, authService, uploadService, historyService, tokens, logger)
	if err := server.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
