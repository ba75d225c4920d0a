package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := ledger.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// backends runs a test body against every ledger implementation
func backends(t *testing.T, body func(t *testing.T, store ledger.Store)) {
	t.Run("memory", func(t *testing.T) {
		body(t, ledger.NewMemoryStore())
	})
	t.Run("gorm", func(t *testing.T) {
		body(t, ledger.NewGormStore(setupTestDB(t), quietLogger))
	})
}

func newVoteService(store ledger.Store) *VoteService {
	svc := NewVoteService(store, quietLogger)
	svc.RetryInterval = 1
	svc.Metrics = nil
	return svc
}

func mustUser(t *testing.T, store ledger.Store, id string) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.NewUser(id, id+"@example.com"))
	require.NoError(t, err)
	return user
}

// mustSubmission stores a submission owned by ownerID with the given tallies
func mustSubmission(t *testing.T, store ledger.Store, id, ownerID string, votes map[models.Category]int) models.Submission {
	t.Helper()
	tally := models.NewTally()
	total := 0
	for c, v := range votes {
		tally[c] = v
		total += v
	}
	sub, err := store.CreateSubmission(context.Background(), models.Submission{
		ID:         id,
		UserID:     ownerID,
		Address:    id + " Mistletoe Way",
		Photos:     []models.Photo{},
		Votes:      tally,
		TotalVotes: total,
	})
	require.NoError(t, err)
	return sub
}

// setRemaining writes an allowance entry directly through a ledger transaction
func setRemaining(t *testing.T, store ledger.Store, userID, subID string, remaining int) {
	t.Helper()
	_, err := store.Transact(context.Background(), userID, subID, func(e *ledger.Entry) (bool, error) {
		e.User.VotesRemainingPerAddress[subID] = remaining
		return true, nil
	})
	require.NoError(t, err)
}

// conflictingStore fails the first n transactions with ErrConflict
type conflictingStore struct {
	ledger.Store
	failures int32
	calls    atomic.Int32
}

func (s *conflictingStore) Transact(ctx context.Context, userID, submissionID string, fn ledger.TxFunc) (ledger.Entry, error) {
	if s.calls.Add(1) <= s.failures {
		return ledger.Entry{}, errors.Join(errors.New("lost race"), types.ErrConflict)
	}
	return s.Store.Transact(ctx, userID, submissionID, fn)
}

// failingStore fails every transaction with err
type failingStore struct {
	ledger.Store
	err   error
	calls atomic.Int32
}

func (s *failingStore) Transact(context.Context, string, string, ledger.TxFunc) (ledger.Entry, error) {
	s.calls.Add(1)
	return ledger.Entry{}, s.err
}
