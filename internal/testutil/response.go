// response.go
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

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/bluffpark/holidaylights/internal/models"
)

// AssertStatus verifies the HTTP status code
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("Expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(body))
	}
}

// ParseJSON decodes the response body into the target
func ParseJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	defer resp.Body.Close()

	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("Failed to decode JSON: %v. Body: %s", err, string(body))
	}
}

// AssertNoContent verifies that the response body is empty (for 204s)
func AssertNoContent(t *testing.T, resp *http.Response) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	defer resp.Body.Close()

	if len(body) > 0 {
		t.Errorf("Expected empty body for 204 No Content, got: %s", string(body))
	}
}

// VoteEnvelope is the body of POST /api/submissions/:id/votes
type VoteEnvelope struct {
	Ok         bool              `json:"ok"`
	Applied    bool              `json:"applied"`
	Rejected   bool              `json:"rejected"`
	Reason     string            `json:"reason"`
	User       models.User       `json:"user"`
	Submission models.Submission `json:"submission"`
}

// ErrorEnvelope is the body every error response carries
type ErrorEnvelope struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	VersionError bool   `json:"versionError"`
	Retryable    bool   `json:"retryable"`
}

// AssertVoteApplied checks for a 200 applied vote and returns its envelope.
// The returned tallies are checked for consistency with the total.
func AssertVoteApplied(t *testing.T, resp *http.Response) VoteEnvelope {
	t.Helper()
	AssertStatus(t, resp, http.StatusOK)
	var vote VoteEnvelope
	ParseJSON(t, resp, &vote)
	if !vote.Ok || !vote.Applied || vote.Rejected {
		t.Errorf("Expected an applied vote, got ok=%v applied=%v rejected=%v reason=%q",
			vote.Ok, vote.Applied, vote.Rejected, vote.Reason)
	}
	if !vote.Submission.TallyConsistent() {
		t.Errorf("Submission tallies %v do not sum to totalVotes %d", vote.Submission.Votes, vote.Submission.TotalVotes)
	}
	return vote
}

// AssertVoteRejected checks for a 200 rejection with the given reason
func AssertVoteRejected(t *testing.T, resp *http.Response, reason string) VoteEnvelope {
	t.Helper()
	AssertStatus(t, resp, http.StatusOK)
	var vote VoteEnvelope
	ParseJSON(t, resp, &vote)
	if vote.Applied || !vote.Rejected {
		t.Errorf("Expected a rejected vote, got applied=%v rejected=%v", vote.Applied, vote.Rejected)
	}
	if vote.Reason != reason {
		t.Errorf("Expected rejection reason %q, got %q", reason, vote.Reason)
	}
	return vote
}

// AssertError checks the status and decodes the error envelope
func AssertError(t *testing.T, resp *http.Response, status int) ErrorEnvelope {
	t.Helper()
	AssertStatus(t, resp, status)
	var body ErrorEnvelope
	ParseJSON(t, resp, &body)
	if body.Ok {
		t.Errorf("Expected ok=false in error response")
	}
	if body.Status != 0 && body.Status != status {
		t.Errorf("Envelope status %d does not match HTTP status %d", body.Status, status)
	}
	return body
}
