package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/bluffpark/holidaylights/internal/database"
	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVotesWithMariaDB runs concurrent votes against a real MariaDB container
func TestVotesWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("DB_IMAGE") == "" {
		t.Skip("DB_IMAGE not set")
	}

	ctx := context.Background()
	tc, err := testutil.CreateTestContainers(ctx, t)
	require.NoError(t, err)
	defer tc.Terminate(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, closeStore, err := database.OpenStore(tc.Config, logger)
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*ledger.GormStore)
	require.True(t, ok)

	_, err = store.CreateUser(ctx, models.NewUser("voter", "voter@example.com"))
	require.NoError(t, err)
	sub, err := store.CreateSubmission(ctx, models.Submission{
		ID:      "sub-1",
		UserID:  "owner",
		Address: "1 Candy Cane Ln",
		Votes:   models.NewTally(),
	})
	require.NoError(t, err)

	votes := services.NewVoteService(store, logger)
	votes.Metrics = nil
	votes.RetryLimit = tc.Config.VoteRetryLimit * 5
	votes.RetryInterval = tc.Config.VoteRetryInterval

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan services.VoteResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			category := models.Categories()[i%len(models.Categories())]
			res, err := votes.CastVote(ctx, "voter", sub.ID, category)
			if assert.NoError(t, err) {
				results <- res
			}
		}(i)
	}
	wg.Wait()
	close(results)

	applied := 0
	for res := range results {
		if res.Applied() {
			applied++
		}
	}
	assert.Equal(t, models.DefaultMaxVotesPerAddress, applied)

	user, err := store.GetUser(ctx, "voter")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Remaining(sub.ID, models.DefaultMaxVotesPerAddress))

	final, err := store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxVotesPerAddress, final.TotalVotes)
	assert.True(t, final.TallyConsistent())
}
