package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
)

// Profile is the signed-in user's summary
type Profile struct {
	User       models.User        `json:"user"`
	VotesCast  int                `json:"votesCast"`
	Submission *models.Submission `json:"submission,omitempty"`
}

// UserService is the user registry
type UserService struct {
	Store    ledger.Store
	MaxVotes int
	Logger   *slog.Logger
}

// NewUserService returns a registry with the default allowance
func NewUserService(store ledger.Store, logger *slog.Logger) *UserService {
	return &UserService{Store: store, MaxVotes: models.DefaultMaxVotesPerAddress, Logger: logger}
}

// Login returns the user for a validated identity, creating it on first sight
func (s *UserService) Login(ctx context.Context, identity Identity) (models.User, error) {
	logger := ResolveLogger(s.Logger)
	id := strings.TrimSpace(identity.ID)
	if id == "" {
		return models.User{}, types.InvalidArgument("identity has no user id")
	}

	user, err := s.Store.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return models.User{}, err
	}

	fresh := models.NewUser(id, strings.TrimSpace(identity.Email))
	fresh.FirstName = identity.FirstName
	fresh.LastName = identity.LastName

	created, err := s.Store.CreateUser(ctx, fresh)
	if errors.Is(err, types.ErrConflict) {
		// a concurrent first login won
		return s.Store.GetUser(ctx, id)
	}
	if err != nil {
		return models.User{}, err
	}
	logger.Info("user created",
		"event", "user_created",
		"module", logModule,
		"user_id", created.ID,
	)
	return created, nil
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id string) (models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.User{}, types.InvalidArgument("user id is required")
	}
	return s.Store.GetUser(ctx, id)
}

// Profile returns the user, the votes they have spent, and their first submission if any
func (s *UserService) Profile(ctx context.Context, id string) (Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	allowance := s.MaxVotes
	if allowance <= 0 {
		allowance = models.DefaultMaxVotesPerAddress
	}
	profile := Profile{User: user, VotesCast: user.VotesCast(allowance)}

	subs, err := s.Store.ListSubmissions(ctx)
	if err != nil {
		return Profile{}, err
	}
	for i := range subs {
		if subs[i].UserID == user.ID {
			own := subs[i]
			profile.Submission = &own
			break
		}
	}
	return profile, nil
}
