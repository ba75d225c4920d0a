// handlers_test.go
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

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/database"
	"github.com/bluffpark/holidaylights/internal/handlers"
	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/testutil"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// cookieValidator treats the session cookie as the user id
type cookieValidator struct{}

func (cookieValidator) Init(string, string) error { return nil }

func (cookieValidator) ValidateSession(cookie string, _ []string) (services.Identity, error) {
	if cookie == "expired" {
		return services.Identity{}, errors.New("session is not valid")
	}
	// the cookie aliases a request buffer fiber reuses
	id := strings.Clone(cookie)
	return services.Identity{ID: id, Email: id + "@example.com"}, nil
}

// stores returns a fresh ledger per backend the routes run against
func stores(t *testing.T) map[string]func() ledger.Store {
	t.Helper()
	return map[string]func() ledger.Store{
		"memory": func() ledger.Store { return ledger.NewMemoryStore() },
		"sqlite": func() ledger.Store {
			store, closeStore, err := database.OpenStore(&config.Config{DBType: "sqlite", DBDatabase: ":memory:"}, quietLogger)
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeStore() })
			return store
		},
	}
}

type testApp struct {
	app   *fiber.App
	store ledger.Store
}

func setupApp(t *testing.T, store ledger.Store) *testApp {
	t.Helper()
	votes := services.NewVoteService(store, quietLogger)
	votes.Metrics = nil
	votes.RetryInterval = 1

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	handlers.RegisterRoutes(app, handlers.Dependencies{
		Config:      &config.Config{DBType: "memory", AuthzURL: "http://127.0.0.1:1"},
		Store:       store,
		Votes:       votes,
		Submissions: services.NewSubmissionService(store, quietLogger),
		Users:       services.NewUserService(store, quietLogger),
		Leaderboard: &services.LeaderboardService{Store: store},
		Sessions:    cookieValidator{},
	})
	app.Use(handlers.NotFound)
	return &testApp{app: app, store: store}
}

func (a *testApp) do(t *testing.T, method, path, user string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Cookie", "cookie_session="+user)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	return resp
}

func (a *testApp) login(t *testing.T, user string) {
	t.Helper()
	resp := a.do(t, "POST", "/api/users/login", user, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func (a *testApp) createSubmission(t *testing.T, owner string) models.Submission {
	t.Helper()
	resp := a.do(t, "POST", "/api/submissions", owner, map[string]interface{}{
		"address": "7 Reindeer Run",
		"lat":     33.4,
		"lng":     -86.8,
		"photos":  map[string]interface{}{"url": "https://img.example.com/front.jpg"},
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var sub models.Submission
	testutil.ParseJSON(t, resp, &sub)
	return sub
}

func TestLoginAndProfile(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())

	resp := a.do(t, "POST", "/api/users/login", "carol", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var user models.User
	testutil.ParseJSON(t, resp, &user)
	assert.Equal(t, "carol", user.ID)
	assert.Equal(t, "carol", user.Name)

	sub := a.createSubmission(t, "carol")

	resp = a.do(t, "GET", "/api/users/me", "carol", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var profile services.Profile
	testutil.ParseJSON(t, resp, &profile)
	assert.Equal(t, 0, profile.VotesCast)
	require.NotNil(t, profile.Submission)
	assert.Equal(t, sub.ID, profile.Submission.ID)
}

func TestAuthRequired(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())

	resp := a.do(t, "POST", "/api/users/login", "", nil)
	body := testutil.AssertError(t, resp, fiber.StatusForbidden)
	assert.Equal(t, "authorization.user", body.Type)

	resp = a.do(t, "POST", "/api/submissions", "expired", map[string]string{"address": "x"})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "GET", "/api/users/me", "stranger", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestVoteFlow(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := setupApp(t, open())
			a.login(t, "owner")
			a.login(t, "voter")
			sub := a.createSubmission(t, "owner")
			path := fmt.Sprintf("/api/submissions/%s/votes", sub.ID)

			resp := a.do(t, "POST", path, "voter", map[string]interface{}{"category": "LIGHTS", "delta": 1})
			vote := testutil.AssertVoteApplied(t, resp)
			assert.Equal(t, 9, vote.User.VotesRemainingPerAddress[sub.ID])
			assert.Equal(t, 1, vote.Submission.Votes[models.CategoryLights])
			assert.Equal(t, 1, vote.Submission.TotalVotes)

			// label and string delta are accepted
			resp = a.do(t, "POST", path, "voter", map[string]interface{}{"category": "Best Use of Lights", "delta": "-1"})
			vote = testutil.AssertVoteApplied(t, resp)
			assert.Equal(t, 0, vote.Submission.TotalVotes)
			assert.Equal(t, 10, vote.User.VotesRemainingPerAddress[sub.ID])

			resp = a.do(t, "POST", path, "voter", map[string]interface{}{"category": "lights", "delta": -1})
			testutil.AssertVoteRejected(t, resp, "nothing_to_retract")
		})
	}
}

func TestVotesOnTwoSubmissionsKeepSeparateAllowances(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := setupApp(t, open())
			a.login(t, "owner")
			a.login(t, "voter")
			first := a.createSubmission(t, "owner")
			second := a.createSubmission(t, "owner")
			require.Equal(t, len(first.ID), len(second.ID))

			resp := a.do(t, "POST", "/api/submissions/"+first.ID+"/votes", "voter", map[string]interface{}{"category": "DIY", "delta": 1})
			testutil.AssertVoteApplied(t, resp)
			for i := 0; i < 3; i++ {
				resp = a.do(t, "POST", "/api/submissions/"+second.ID+"/votes", "voter", map[string]interface{}{"category": "OVERALL", "delta": 1})
				testutil.AssertVoteApplied(t, resp)
			}

			user, err := a.store.GetUser(context.Background(), "voter")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{first.ID: 9, second.ID: 7}, user.VotesRemainingPerAddress)

			resp = a.do(t, "GET", "/api/users/me", "voter", nil)
			testutil.AssertStatus(t, resp, fiber.StatusOK)
			var profile services.Profile
			testutil.ParseJSON(t, resp, &profile)
			assert.Equal(t, 4, profile.VotesCast)

			got, err := a.store.GetSubmission(context.Background(), first.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, got.TotalVotes)
			got, err = a.store.GetSubmission(context.Background(), second.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, got.TotalVotes)
		})
	}
}

func TestVoteErrors(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())
	a.login(t, "voter")
	sub := a.createSubmission(t, "voter")
	path := fmt.Sprintf("/api/submissions/%s/votes", sub.ID)

	tests := []struct {
		name   string
		user   string
		path   string
		body   interface{}
		status int
	}{
		{"unknown category", "voter", path, map[string]interface{}{"category": "SPOOKY", "delta": 1}, fiber.StatusBadRequest},
		{"bad delta", "voter", path, map[string]interface{}{"category": "DIY", "delta": 3}, fiber.StatusBadRequest},
		{"malformed delta", "voter", path, map[string]interface{}{"category": "DIY", "delta": "lots"}, fiber.StatusBadRequest},
		{"unknown submission", "voter", "/api/submissions/nope/votes", map[string]interface{}{"category": "DIY", "delta": 1}, fiber.StatusNotFound},
		{"user never logged in", "ghost", path, map[string]interface{}{"category": "DIY", "delta": 1}, fiber.StatusNotFound},
		{"no session", "", path, map[string]interface{}{"category": "DIY", "delta": 1}, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.do(t, "POST", tt.path, tt.user, tt.body)
			testutil.AssertStatus(t, resp, tt.status)
		})
	}
}

// conflictStore loses every vote transaction
type conflictStore struct {
	ledger.Store
}

func (conflictStore) Transact(context.Context, string, string, ledger.TxFunc) (ledger.Entry, error) {
	return ledger.Entry{}, fmt.Errorf("vote transaction: %w", types.ErrConflict)
}

// downStore has lost its database
type downStore struct {
	ledger.Store
}

func (downStore) ListSubmissions(context.Context) ([]models.Submission, error) {
	return nil, fmt.Errorf("list submissions: %w", types.ErrStorageUnavailable)
}

func TestVoteConflictIsRetryable409(t *testing.T) {
	inner := ledger.NewMemoryStore()
	a := setupApp(t, conflictStore{Store: inner})
	a.login(t, "voter")
	sub := a.createSubmission(t, "voter")

	resp := a.do(t, "POST", "/api/submissions/"+sub.ID+"/votes", "voter", map[string]interface{}{"category": "OVERALL", "delta": 1})
	body := testutil.AssertError(t, resp, fiber.StatusConflict)
	assert.True(t, body.Retryable)
}

func TestStorageUnavailableIs503(t *testing.T) {
	a := setupApp(t, downStore{Store: ledger.NewMemoryStore()})
	resp := a.do(t, "GET", "/api/submissions", "", nil)
	body := testutil.AssertError(t, resp, fiber.StatusServiceUnavailable)
	assert.Equal(t, "Service temporarily unavailable", body.Message)
	assert.NotContains(t, body.Message, "list submissions")
}

// brokenStore fails with an unclassified driver error
type brokenStore struct {
	ledger.Store
}

func (brokenStore) GetSubmission(context.Context, string) (models.Submission, error) {
	return models.Submission{}, errors.New("dial tcp 10.0.0.7:5432: connection refused")
}

func TestUnexpectedErrorIs500WithoutDetail(t *testing.T) {
	a := setupApp(t, brokenStore{Store: ledger.NewMemoryStore()})
	resp := a.do(t, "GET", "/api/submissions/abc", "", nil)
	body := testutil.AssertError(t, resp, fiber.StatusInternalServerError)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, body.Message, "10.0.0.7")
}

func TestSubmissionCRUD(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())
	a.login(t, "owner")
	a.login(t, "voter")
	sub := a.createSubmission(t, "owner")
	require.Len(t, sub.Photos, 1)
	assert.True(t, sub.Photos[0].IsFeatured)
	assert.Len(t, sub.Votes, len(models.Categories()))

	resp := a.do(t, "POST", "/api/submissions/"+sub.ID+"/votes", "voter", map[string]interface{}{"category": "CLASSIC", "delta": 1})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "GET", "/api/submissions", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var list []models.Submission
	testutil.ParseJSON(t, resp, &list)
	require.Len(t, list, 1)

	resp = a.do(t, "PATCH", "/api/submissions/"+sub.ID, "voter", map[string]string{"description": "mine now"})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "PATCH", "/api/submissions/"+sub.ID, "owner", map[string]interface{}{
		"description": "Inflatables everywhere",
		"totalVotes":  999,
	})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var updated models.Submission
	testutil.ParseJSON(t, resp, &updated)
	assert.Equal(t, "Inflatables everywhere", updated.Description)
	assert.Equal(t, "7 Reindeer Run", updated.Address)
	assert.Equal(t, 1, updated.TotalVotes)
	assert.Equal(t, 1, updated.Votes[models.CategoryClassic])

	resp = a.do(t, "POST", "/api/submissions", "owner", map[string]string{"address": ""})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = a.do(t, "DELETE", "/api/submissions/"+sub.ID, "voter", nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "DELETE", "/api/submissions/"+sub.ID, "owner", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNoContent)
	testutil.AssertNoContent(t, resp)

	resp = a.do(t, "GET", "/api/submissions/"+sub.ID, "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestLeaderboardRoute(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())
	a.login(t, "owner")
	a.login(t, "voter")
	first := a.createSubmission(t, "owner")
	second := a.createSubmission(t, "owner")

	for i := 0; i < 2; i++ {
		resp := a.do(t, "POST", "/api/submissions/"+second.ID+"/votes", "voter", map[string]interface{}{"category": "CREATIVE", "delta": 1})
		testutil.AssertStatus(t, resp, fiber.StatusOK)
	}

	resp := a.do(t, "GET", "/api/leaderboard?category=creative&limit=5", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var standings []services.Standing
	testutil.ParseJSON(t, resp, &standings)
	require.Len(t, standings, 2)
	assert.Equal(t, second.ID, standings[0].SubmissionID)
	assert.Equal(t, 2, standings[0].Score)
	assert.Equal(t, first.ID, standings[1].SubmissionID)

	resp = a.do(t, "GET", "/api/leaderboard?category=nope", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}

func TestUnknownRouteAndVersion(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())

	resp := a.do(t, "GET", "/api/nothing-here", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)

	req := httptest.NewRequest("GET", "/api/submissions", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}

func TestHealthRoute(t *testing.T) {
	a := setupApp(t, ledger.NewMemoryStore())
	resp := a.do(t, "GET", "/health", "", nil)
	// nothing listens on the configured authorizer port
	testutil.AssertStatus(t, resp, fiber.StatusServiceUnavailable)
	var result services.HealthCheckResult
	testutil.ParseJSON(t, resp, &result)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "unreachable", result.Authorizer)
}
