package models

import (
	"strings"
	"time"
)

// DefaultMaxVotesPerAddress is the per-user, per-submission vote allowance
const DefaultMaxVotesPerAddress = 10

// User is a voter, keyed by the identity provider's user id
type User struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	FirstName                string         `json:"firstName,omitempty"`
	LastName                 string         `json:"lastName,omitempty"`
	Email                    string         `json:"email"`
	VotesRemainingPerAddress map[string]int `json:"votesRemainingPerAddress"`
	CreatedAt                time.Time      `json:"createdAt"`
}

// NewUser builds a first-login user record with an empty allowance map.
// The display name defaults to the local part of the email address.
func NewUser(id, email string) User {
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return User{
		ID:                       id,
		Name:                     name,
		Email:                    email,
		VotesRemainingPerAddress: map[string]int{},
	}
}

// Remaining returns the allowance left for a submission; an absent entry is the full allowance
func (u *User) Remaining(submissionID string, max int) int {
	if v, ok := u.VotesRemainingPerAddress[submissionID]; ok {
		return v
	}
	return max
}

// VotesCast sums the votes spent across every submission the user has touched
func (u *User) VotesCast(max int) int {
	total := 0
	for _, remaining := range u.VotesRemainingPerAddress {
		total += max - remaining
	}
	return total
}

// Clone returns a deep copy
func (u User) Clone() User {
	remaining := make(map[string]int, len(u.VotesRemainingPerAddress))
	for k, v := range u.VotesRemainingPerAddress {
		remaining[k] = v
	}
	u.VotesRemainingPerAddress = remaining
	return u
}
