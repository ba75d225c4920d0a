package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/database"
	"github.com/bluffpark/holidaylights/internal/handlers"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	_ "github.com/bluffpark/holidaylights/docs/api" // Swagger docs
)

// @title Holiday Lights API
// @version 1.0.0
// @description Holiday lights display registry and vote ledger
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/bluffpark/holidaylights

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}

	// Open the vote ledger (runs migrations for SQL backends)
	store, closeStore, err := database.OpenStore(cfg, log)
	if err != nil {
		log.Error("failed to open ledger", "event", "startup_failed", "db_type", cfg.DBType, "error", err.Error())
		os.Exit(1)
	}
	defer closeStore()

	votes := services.NewVoteService(store, log)
	votes.MaxVotes = cfg.MaxVotesPerAddress
	votes.RetryLimit = cfg.VoteRetryLimit
	votes.RetryInterval = cfg.VoteRetryInterval

	submissions := services.NewSubmissionService(store, log)
	submissions.MaxPhotos = cfg.MaxPhotos

	users := services.NewUserService(store, log)
	users.MaxVotes = cfg.MaxVotesPerAddress

	// Create Fiber app
	// Immutable: values from the context outlive the request in the ledger
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		Immutable:    true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("holidaylights")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// The Authorizer client is created on the first authenticated request
	handlers.RegisterRoutes(app, handlers.Dependencies{
		Config:      cfg,
		Store:       store,
		Votes:       votes,
		Submissions: submissions,
		Users:       users,
		Leaderboard: &services.LeaderboardService{Store: store},
		Sessions:    services.NewAuthorizerValidator(cfg, log),
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("gracefully shutting down", "event", "shutdown")
		_ = app.Shutdown()
	}()

	// Start server
	log.Info("starting server", "event", "startup", "port", cfg.Port, "db_type", cfg.DBType)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("failed to start server", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}

	log.Info("server stopped", "event", "shutdown_complete")
}
