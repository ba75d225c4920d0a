package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() SubmissionInput {
	return SubmissionInput{
		FirstName:   "Noel",
		LastName:    "Frost",
		Address:     " 12 Evergreen Ter ",
		Lat:         33.42,
		Lng:         -86.81,
		Description: "Twelve thousand bulbs",
		Photos: []models.Photo{
			{URL: "https://img.example.com/a.jpg"},
			{URL: "https://img.example.com/b.jpg"},
		},
	}
}

func TestCreateSubmissionPrepopulatesTallies(t *testing.T) {
	backends(t, func(t *testing.T, store ledger.Store) {
		svc := NewSubmissionService(store, quietLogger)

		sub, err := svc.CreateSubmission(context.Background(), "owner", validInput())
		require.NoError(t, err)
		assert.NotEmpty(t, sub.ID)
		assert.Equal(t, "owner", sub.UserID)
		assert.Equal(t, "12 Evergreen Ter", sub.Address)
		assert.Equal(t, 0, sub.TotalVotes)
		for _, c := range models.Categories() {
			v, ok := sub.Votes[c]
			assert.True(t, ok, "category %s missing", c)
			assert.Equal(t, 0, v)
		}

		require.Len(t, sub.Photos, 2)
		assert.True(t, sub.Photos[0].IsFeatured)
		assert.False(t, sub.Photos[1].IsFeatured)
		assert.NotEmpty(t, sub.Photos[0].ID)
		assert.Equal(t, "https://img.example.com/a.jpg", sub.FeaturedPhotoURL())

		stored, err := svc.GetSubmission(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.Photos, stored.Photos)
	})
}

func TestCreateSubmissionKeepsOneFeaturedPhoto(t *testing.T) {
	svc := NewSubmissionService(ledger.NewMemoryStore(), quietLogger)
	in := validInput()
	in.Photos = []models.Photo{
		{ID: "a", URL: "https://img.example.com/a.jpg"},
		{ID: "b", URL: "https://img.example.com/b.jpg", IsFeatured: true},
		{ID: "c", URL: "https://img.example.com/c.jpg", IsFeatured: true},
	}

	sub, err := svc.CreateSubmission(context.Background(), "owner", in)
	require.NoError(t, err)
	assert.False(t, sub.Photos[0].IsFeatured)
	assert.True(t, sub.Photos[1].IsFeatured)
	assert.False(t, sub.Photos[2].IsFeatured)
}

func TestCreateSubmissionValidation(t *testing.T) {
	svc := NewSubmissionService(ledger.NewMemoryStore(), quietLogger)
	svc.MaxPhotos = 2

	tests := []struct {
		name   string
		owner  string
		mutate func(in *SubmissionInput)
	}{
		{"no owner", "", func(in *SubmissionInput) {}},
		{"no address", "owner", func(in *SubmissionInput) { in.Address = "   " }},
		{"bad latitude", "owner", func(in *SubmissionInput) { in.Lat = 91 }},
		{"bad longitude", "owner", func(in *SubmissionInput) { in.Lng = -181 }},
		{"too many photos", "owner", func(in *SubmissionInput) {
			in.Photos = append(in.Photos, models.Photo{URL: "https://img.example.com/c.jpg"})
		}},
		{"photo without url", "owner", func(in *SubmissionInput) { in.Photos[1].URL = "" }},
		{"long description", "owner", func(in *SubmissionInput) { in.Description = strings.Repeat("x", maxDescriptionLength+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.CreateSubmission(context.Background(), tt.owner, in)
			assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestUpdateSubmissionLeavesVotesAlone(t *testing.T) {
	backends(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		subs := NewSubmissionService(store, quietLogger)
		votes := newVoteService(store)
		mustUser(t, store, "voter")

		sub, err := subs.CreateSubmission(ctx, "owner", validInput())
		require.NoError(t, err)
		_, err = votes.CastVote(ctx, "voter", sub.ID, models.CategoryLights)
		require.NoError(t, err)

		address := "14 Evergreen Ter"
		description := "Now synced to music"
		updated, err := subs.UpdateSubmission(ctx, "owner", sub.ID, SubmissionPatch{
			Address:     &address,
			Description: &description,
		})
		require.NoError(t, err)
		assert.Equal(t, address, updated.Address)
		assert.Equal(t, description, updated.Description)
		assert.Equal(t, "Noel", updated.FirstName)
		assert.Len(t, updated.Photos, 2)
		assert.Equal(t, 1, updated.Votes[models.CategoryLights])
		assert.Equal(t, 1, updated.TotalVotes)

		// votes still land after an edit
		result, err := votes.CastVote(ctx, "voter", sub.ID, models.CategoryLights)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Submission.TotalVotes)
		assert.Equal(t, address, result.Submission.Address)
	})
}

func TestUpdateSubmissionReplacesPhotos(t *testing.T) {
	svc := NewSubmissionService(ledger.NewMemoryStore(), quietLogger)
	sub, err := svc.CreateSubmission(context.Background(), "owner", validInput())
	require.NoError(t, err)

	photos := []models.Photo{{URL: "https://img.example.com/z.jpg"}}
	updated, err := svc.UpdateSubmission(context.Background(), "owner", sub.ID, SubmissionPatch{Photos: &photos})
	require.NoError(t, err)
	require.Len(t, updated.Photos, 1)
	assert.True(t, updated.Photos[0].IsFeatured)

	empty := ""
	_, err = svc.UpdateSubmission(context.Background(), "owner", sub.ID, SubmissionPatch{Address: &empty})
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestSubmissionOwnerChecks(t *testing.T) {
	backends(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		svc := NewSubmissionService(store, quietLogger)
		sub, err := svc.CreateSubmission(ctx, "owner", validInput())
		require.NoError(t, err)

		address := "hijacked"
		_, err = svc.UpdateSubmission(ctx, "intruder", sub.ID, SubmissionPatch{Address: &address})
		assert.True(t, errors.Is(err, types.ErrForbidden))

		err = svc.DeleteSubmission(ctx, "intruder", sub.ID)
		assert.True(t, errors.Is(err, types.ErrForbidden))

		require.NoError(t, svc.DeleteSubmission(ctx, "owner", sub.ID))
		_, err = svc.GetSubmission(ctx, sub.ID)
		assert.True(t, errors.Is(err, types.ErrNotFound))

		err = svc.DeleteSubmission(ctx, "owner", sub.ID)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestDeletedSubmissionLeavesInertAllowance(t *testing.T) {
	backends(t, func(t *testing.T, store ledger.Store) {
		ctx := context.Background()
		subs := NewSubmissionService(store, quietLogger)
		votes := newVoteService(store)
		mustUser(t, store, "voter")

		sub, err := subs.CreateSubmission(ctx, "owner", validInput())
		require.NoError(t, err)
		_, err = votes.CastVote(ctx, "voter", sub.ID, models.CategoryOverall)
		require.NoError(t, err)
		require.NoError(t, subs.DeleteSubmission(ctx, "owner", sub.ID))

		_, err = votes.CastVote(ctx, "voter", sub.ID, models.CategoryOverall)
		assert.True(t, errors.Is(err, types.ErrNotFound))

		user, err := store.GetUser(ctx, "voter")
		require.NoError(t, err)
		assert.Equal(t, 9, user.VotesRemainingPerAddress[sub.ID])
	})
}

func TestListSubmissionsInCreationOrder(t *testing.T) {
	svc := NewSubmissionService(ledger.NewMemoryStore(), quietLogger)
	var ids []string
	for i := 0; i < 3; i++ {
		sub, err := svc.CreateSubmission(context.Background(), "owner", validInput())
		require.NoError(t, err)
		ids = append(ids, sub.ID)
	}

	list, err := svc.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	got := make(map[string]bool)
	for i, sub := range list {
		got[sub.ID] = true
		if i > 0 {
			assert.False(t, sub.CreatedAt.Before(list[i-1].CreatedAt))
		}
	}
	for _, id := range ids {
		assert.True(t, got[id])
	}
}
