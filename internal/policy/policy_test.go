package policy

import (
	"errors"
	"testing"

	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "cast with full allowance",
			in:   Input{Remaining: 10, Votes: 3, Delta: Cast, Max: 10},
			want: Decision{Allowed: true, Remaining: 9, Votes: 4, TotalDelta: 1},
		},
		{
			name: "cast with last vote",
			in:   Input{Remaining: 1, Votes: 0, Delta: Cast, Max: 10},
			want: Decision{Allowed: true, Remaining: 0, Votes: 1, TotalDelta: 1},
		},
		{
			name: "cast with nothing left",
			in:   Input{Remaining: 0, Votes: 5, Delta: Cast, Max: 10},
			want: Decision{Reason: ReasonNoVotesRemaining, Remaining: 0, Votes: 5},
		},
		{
			name: "retract after casting",
			in:   Input{Remaining: 9, Votes: 4, Delta: Retract, Max: 10},
			want: Decision{Allowed: true, Remaining: 10, Votes: 3, TotalDelta: -1},
		},
		{
			name: "retract with full allowance",
			in:   Input{Remaining: 10, Votes: 7, Delta: Retract, Max: 10},
			want: Decision{Reason: ReasonNothingToRetract, Remaining: 10, Votes: 7},
		},
		{
			name: "retract from empty category",
			in:   Input{Remaining: 4, Votes: 0, Delta: Retract, Max: 10},
			want: Decision{Reason: ReasonNothingToRetract, Remaining: 4, Votes: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideRejectsBadDelta(t *testing.T) {
	for _, delta := range []int{0, 2, -2, 10} {
		_, err := Decide(Input{Remaining: 5, Votes: 1, Delta: delta, Max: 10})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidArgument), "delta %d", delta)
	}
}

func TestDecideRejectsBadMax(t *testing.T) {
	_, err := Decide(Input{Remaining: 0, Delta: Cast, Max: 0})
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

// Walks a user through every allowance value and checks the bounds hold.
func TestDecideKeepsAllowanceInBounds(t *testing.T) {
	const max = 10
	remaining, votes, total := max, 0, 0

	step := func(delta int) {
		d, err := Decide(Input{Remaining: remaining, Votes: votes, Delta: delta, Max: max})
		require.NoError(t, err)
		if d.Allowed {
			remaining, votes, total = d.Remaining, d.Votes, total+d.TotalDelta
		}
		require.GreaterOrEqual(t, remaining, 0)
		require.LessOrEqual(t, remaining, max)
		require.GreaterOrEqual(t, votes, 0)
		require.Equal(t, votes, total)
	}

	for i := 0; i < max+3; i++ {
		step(Cast)
	}
	assert.Equal(t, 0, remaining)
	assert.Equal(t, max, votes)

	for i := 0; i < max+3; i++ {
		step(Retract)
	}
	assert.Equal(t, max, remaining)
	assert.Equal(t, 0, votes)
}
