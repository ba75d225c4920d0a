// vote_service.go
//
// Community holiday-lights showcase and vote ledger service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of holidaylights.
// holidaylights is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// holidaylights is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with holidaylights.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/metrics"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/policy"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/cenkalti/backoff/v4"
)

// Vote outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

const (
	defaultRetryLimit    = 5
	defaultRetryInterval = 10 * time.Millisecond
)

// VoteRequest asks to cast (+1) or retract (-1) one vote
type VoteRequest struct {
	UserID       string
	SubmissionID string
	Category     models.Category
	Delta        int
}

// VoteResult is either an applied vote with the post-commit records,
// or a rejection with the unchanged records and a reason.
type VoteResult struct {
	Outcome    string
	Reason     string
	User       models.User
	Submission models.Submission
}

// Applied reports whether the ledger changed
func (r VoteResult) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// VoteService runs the allowance policy inside a ledger transaction.
// Conflicting transactions rerun the whole read-decide-write cycle, up to RetryLimit times.
type VoteService struct {
	Store         ledger.Store
	MaxVotes      int
	RetryLimit    int
	RetryInterval time.Duration
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
}

// NewVoteService returns a coordinator with the default allowance and retry settings
func NewVoteService(store ledger.Store, logger *slog.Logger) *VoteService {
	return &VoteService{
		Store:         store,
		MaxVotes:      models.DefaultMaxVotesPerAddress,
		RetryLimit:    defaultRetryLimit,
		RetryInterval: defaultRetryInterval,
		Metrics:       metrics.Default(),
		Logger:        logger,
	}
}

// CastVote spends one of the user's votes on the submission
func (s *VoteService) CastVote(ctx context.Context, userID, submissionID string, category models.Category) (VoteResult, error) {
	return s.ApplyVote(ctx, VoteRequest{UserID: userID, SubmissionID: submissionID, Category: category, Delta: policy.Cast})
}

// RetractVote returns one vote from the submission to the user's allowance
func (s *VoteService) RetractVote(ctx context.Context, userID, submissionID string, category models.Category) (VoteResult, error) {
	return s.ApplyVote(ctx, VoteRequest{UserID: userID, SubmissionID: submissionID, Category: category, Delta: policy.Retract})
}

// ApplyVote validates the request and commits it atomically.
// A policy rejection is a result, not an error.
func (s *VoteService) ApplyVote(ctx context.Context, req VoteRequest) (VoteResult, error) {
	logger := ResolveLogger(s.Logger)
	req.UserID = strings.TrimSpace(req.UserID)
	req.SubmissionID = strings.TrimSpace(req.SubmissionID)

	if err := validateVoteRequest(req); err != nil {
		logger.Warn("vote validation failed",
			"event", "vote_apply_validation_failed",
			"module", logModule,
			"user_id", req.UserID,
			"submission_id", req.SubmissionID,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}

	var (
		result   VoteResult
		attempts int
	)
	operation := func() error {
		attempts++
		r, err := s.attempt(ctx, req)
		if err == nil {
			result = r
			return nil
		}
		if errors.Is(err, types.ErrConflict) {
			s.Metrics.Conflict()
			logger.Debug("vote transaction conflicted",
				"event", "vote_apply_conflict",
				"module", logModule,
				"user_id", req.UserID,
				"submission_id", req.SubmissionID,
				"attempt", attempts,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.backOff(), ctx)); err != nil {
		logger.Error("vote apply failed",
			"event", "vote_apply_failed",
			"module", logModule,
			"user_id", req.UserID,
			"submission_id", req.SubmissionID,
			"category", string(req.Category),
			"attempts", attempts,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}

	if result.Applied() {
		s.Metrics.Applied(string(req.Category), req.Delta)
	} else {
		s.Metrics.Rejected(result.Reason)
	}
	logger.Info("vote apply completed",
		"event", "vote_apply_completed",
		"module", logModule,
		"user_id", req.UserID,
		"submission_id", req.SubmissionID,
		"category", string(req.Category),
		"delta", req.Delta,
		"outcome", result.Outcome,
		"reason", result.Reason,
		"attempts", attempts,
	)
	return result, nil
}

func (s *VoteService) attempt(ctx context.Context, req VoteRequest) (VoteResult, error) {
	allowance := s.maxVotes()
	var decision policy.Decision

	entry, err := s.Store.Transact(ctx, req.UserID, req.SubmissionID, func(e *ledger.Entry) (bool, error) {
		d, err := policy.Decide(policy.Input{
			Remaining: e.User.Remaining(req.SubmissionID, allowance),
			Votes:     e.Submission.Votes[req.Category],
			Delta:     req.Delta,
			Max:       allowance,
		})
		if err != nil {
			return false, err
		}
		decision = d
		if !d.Allowed {
			return false, nil
		}

		e.User.VotesRemainingPerAddress[req.SubmissionID] = d.Remaining
		e.Submission.Votes[req.Category] = d.Votes
		e.Submission.TotalVotes += d.TotalDelta
		return true, nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	if !decision.Allowed {
		return VoteResult{
			Outcome:    OutcomeRejected,
			Reason:     decision.Reason,
			User:       entry.User,
			Submission: entry.Submission,
		}, nil
	}
	return VoteResult{Outcome: OutcomeApplied, User: entry.User, Submission: entry.Submission}, nil
}

func (s *VoteService) backOff() backoff.BackOff {
	interval := s.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	limit := s.RetryLimit
	if limit < 0 {
		limit = 0
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = interval
	exp.MaxInterval = 50 * interval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithMaxRetries(exp, uint64(limit))
}

func (s *VoteService) maxVotes() int {
	if s.MaxVotes <= 0 {
		return models.DefaultMaxVotesPerAddress
	}
	return s.MaxVotes
}

func validateVoteRequest(req VoteRequest) error {
	if req.UserID == "" {
		return types.InvalidArgument("user id is required")
	}
	if req.SubmissionID == "" {
		return types.InvalidArgument("submission id is required")
	}
	if !req.Category.Valid() {
		return types.InvalidArgument("unknown voting category %q", req.Category)
	}
	return policy.ValidateDelta(req.Delta)
}
