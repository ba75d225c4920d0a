package handlers

import (
	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/middleware"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Dependencies are the services the routes dispatch to
type Dependencies struct {
	Config      *config.Config
	Store       ledger.Store
	Votes       *services.VoteService
	Submissions *services.SubmissionService
	Users       *services.UserService
	Leaderboard *services.LeaderboardService
	Sessions    middleware.SessionValidator
}

// RegisterRoutes mounts /health and the /api routes
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	health := &HealthHandler{Config: deps.Config, Store: deps.Store}
	app.Get("/health", health.Health)

	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	auth := middleware.AuthUser(deps.Sessions)
	votes := &VoteHandler{Votes: deps.Votes}
	submissions := &SubmissionHandler{Submissions: deps.Submissions}
	users := &UserHandler{Users: deps.Users}
	leaderboard := &LeaderboardHandler{Leaderboard: deps.Leaderboard}

	// Public reads
	api.Get("/submissions", submissions.ListSubmissions)
	api.Get("/submissions/:id", submissions.GetSubmission)
	api.Get("/leaderboard", leaderboard.Rank)

	// Signed-in routes
	api.Post("/users/login", auth, users.Login)
	api.Get("/users/me", auth, users.Profile)
	api.Post("/submissions", auth, submissions.CreateSubmission)
	api.Patch("/submissions/:id", auth, submissions.UpdateSubmission)
	api.Delete("/submissions/:id", auth, submissions.DeleteSubmission)
	api.Post("/submissions/:id/votes", auth, votes.ApplyVote)
}
