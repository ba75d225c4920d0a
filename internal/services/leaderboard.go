package services

import (
	"context"
	"sort"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// Standing is one leaderboard row
type Standing struct {
	Rank             int             `json:"rank"`
	SubmissionID     string          `json:"submissionId"`
	Address          string          `json:"address"`
	FeaturedPhotoURL string          `json:"featuredPhotoUrl,omitempty"`
	Category         models.Category `json:"category,omitempty"`
	Score            int             `json:"score"`
	TotalVotes       int             `json:"totalVotes"`
}

// LeaderboardService ranks submissions from the ledger
type LeaderboardService struct {
	Store ledger.Store
}

// Rank orders submissions by their count in category, or by total votes when
// category is empty. Ties go to the higher total, then the earlier submission.
func (s *LeaderboardService) Rank(ctx context.Context, category models.Category, limit int) ([]Standing, error) {
	if category != "" && !category.Valid() {
		return nil, types.InvalidArgument("unknown voting category %q", category)
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	subs, err := s.Store.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}

	score := func(sub *models.Submission) int {
		if category == "" {
			return sub.TotalVotes
		}
		return sub.Votes[category]
	}

	sort.SliceStable(subs, func(i, j int) bool {
		a, b := &subs[i], &subs[j]
		if sa, sb := score(a), score(b); sa != sb {
			return sa > sb
		}
		if a.TotalVotes != b.TotalVotes {
			return a.TotalVotes > b.TotalVotes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if len(subs) > limit {
		subs = subs[:limit]
	}
	standings := make([]Standing, 0, len(subs))
	for i := range subs {
		sub := &subs[i]
		standings = append(standings, Standing{
			Rank:             i + 1,
			SubmissionID:     sub.ID,
			Address:          sub.Address,
			FeaturedPhotoURL: sub.FeaturedPhotoURL(),
			Category:         category,
			Score:            score(sub),
			TotalVotes:       sub.TotalVotes,
		})
	}
	return standings, nil
}
