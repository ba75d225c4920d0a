// Package ledger persists users and submissions and runs the atomic
// read-modify-write transactions the vote coordinator depends on.
//
// Two backends implement Store: MemoryStore for tests and local development,
// and GormStore for MySQL/MariaDB, PostgreSQL, SQLite and SQL Server.
package ledger

import (
	"context"

	"github.com/bluffpark/holidaylights/internal/models"
)

// Entry is the pair of records a transaction reads and may rewrite
type Entry struct {
	User       models.User
	Submission models.Submission
}

// TxFunc decides on the current Entry and mutates it in place.
// Returning write=false leaves storage untouched. Only the allowance entry for the
// transaction's submission and the submission's Votes/TotalVotes are persisted.
type TxFunc func(e *Entry) (write bool, err error)

// Store is the ledger contract shared by every backend
type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)

	CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error)
	GetSubmission(ctx context.Context, id string) (models.Submission, error)
	ListSubmissions(ctx context.Context) ([]models.Submission, error)
	// UpdateSubmissionDetails rewrites descriptive fields only and never touches vote counts
	UpdateSubmissionDetails(ctx context.Context, id string, details models.SubmissionDetails) (models.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error

	// Transact reads the user and submission, runs fn, and commits its changes atomically.
	// It returns the committed (or unchanged) entry. Missing records yield types.ErrNotFound;
	// contention yields types.ErrConflict and the caller should rerun the whole transaction.
	Transact(ctx context.Context, userID, submissionID string, fn TxFunc) (Entry, error)

	Ping(ctx context.Context) error
}
