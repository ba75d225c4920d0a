// policy.go
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

// Package policy decides whether a vote or a retraction is allowed.
//
// Decide is pure: it neither reads nor writes the ledger. A declined request is
// reported as a Decision with Allowed false; only malformed input is an error.
package policy

import (
	"github.com/bluffpark/holidaylights/internal/types"
)

// Vote deltas
const (
	Cast    = 1
	Retract = -1
)

// Rejection reasons
const (
	ReasonNoVotesRemaining = "no_votes_remaining"
	ReasonNothingToRetract = "nothing_to_retract"
)

// Input is the ledger state a decision depends on
type Input struct {
	// Remaining is the user's allowance for the submission, already defaulted to Max when absent
	Remaining int
	// Votes is the submission's current count for the category
	Votes int
	Delta int
	Max   int
}

// Decision is the outcome of a policy evaluation
type Decision struct {
	Allowed    bool
	Reason     string
	Remaining  int
	Votes      int
	TotalDelta int
}

// ValidateDelta rejects anything other than a single cast or retraction
func ValidateDelta(delta int) error {
	if delta != Cast && delta != Retract {
		return types.InvalidArgument("vote delta must be +1 or -1, got %d", delta)
	}
	return nil
}

// Decide applies the allowance rules.
//
// A cast needs remaining > 0. A retraction needs remaining < Max and a positive
// category count, which keeps tallies non-negative and stops a user from banking
// more than Max by retracting repeatedly.
func Decide(in Input) (Decision, error) {
	if err := ValidateDelta(in.Delta); err != nil {
		return Decision{}, err
	}
	if in.Max <= 0 {
		return Decision{}, types.InvalidArgument("max votes per address must be positive, got %d", in.Max)
	}

	unchanged := Decision{Remaining: in.Remaining, Votes: in.Votes}

	switch in.Delta {
	case Cast:
		if in.Remaining <= 0 {
			unchanged.Reason = ReasonNoVotesRemaining
			return unchanged, nil
		}
	case Retract:
		if in.Remaining >= in.Max || in.Votes <= 0 {
			unchanged.Reason = ReasonNothingToRetract
			return unchanged, nil
		}
	}

	return Decision{
		Allowed:    true,
		Remaining:  in.Remaining - in.Delta,
		Votes:      in.Votes + in.Delta,
		TotalDelta: in.Delta,
	}, nil
}
