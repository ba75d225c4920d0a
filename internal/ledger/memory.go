package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
)

// MemoryStore keeps the ledger in process memory.
//
// Transactions lock the user key and then the submission key, so only requests
// touching the same records serialize. Commits swap both records under mu, which
// readers also take, so a reader never sees half of a transaction.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]models.User
	submissions map[string]models.Submission

	keyMu sync.Mutex
	keys  map[string]*keyLock

	now func() time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryStore returns an empty in-memory ledger
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]models.User),
		submissions: make(map[string]models.Submission),
		keys:        make(map[string]*keyLock),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) lock(key string) func() {
	s.keyMu.Lock()
	l, ok := s.keys[key]
	if !ok {
		l = &keyLock{}
		s.keys[key] = l
	}
	l.refs++
	s.keyMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.keyMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.keys, key)
		}
		s.keyMu.Unlock()
	}
}

// ownUser copies a user, including its strings. Callers may pass strings that
// alias request buffers, and the store keeps them after the call returns.
func ownUser(u models.User) models.User {
	u = u.Clone()
	u.ID = strings.Clone(u.ID)
	u.Name = strings.Clone(u.Name)
	u.FirstName = strings.Clone(u.FirstName)
	u.LastName = strings.Clone(u.LastName)
	u.Email = strings.Clone(u.Email)
	remaining := make(map[string]int, len(u.VotesRemainingPerAddress))
	for k, v := range u.VotesRemainingPerAddress {
		remaining[strings.Clone(k)] = v
	}
	u.VotesRemainingPerAddress = remaining
	return u
}

func ownSubmission(sub models.Submission) models.Submission {
	sub = sub.Clone()
	sub.ID = strings.Clone(sub.ID)
	sub.UserID = strings.Clone(sub.UserID)
	return sub
}

func userKey(id string) string       { return "users/" + id }
func submissionKey(id string) string { return "submissions/" + id }

func (s *MemoryStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	unlock := s.lock(userKey(user.ID))
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return models.User{}, fmt.Errorf("user %q already exists: %w", user.ID, types.ErrConflict)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user = ownUser(user)
	s.users[user.ID] = user
	return user.Clone(), nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %q: %w", id, types.ErrNotFound)
	}
	return user.Clone(), nil
}

func (s *MemoryStore) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	unlock := s.lock(submissionKey(sub.ID))
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return models.Submission{}, fmt.Errorf("submission %q already exists: %w", sub.ID, types.ErrConflict)
	}
	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub = ownSubmission(sub)
	s.submissions[sub.ID] = sub
	return sub.Clone(), nil
}

func (s *MemoryStore) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return models.Submission{}, fmt.Errorf("submission %q: %w", id, types.ErrNotFound)
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, sub.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateSubmissionDetails(ctx context.Context, id string, details models.SubmissionDetails) (models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return models.Submission{}, err
	}
	unlock := s.lock(submissionKey(id))
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return models.Submission{}, fmt.Errorf("submission %q: %w", id, types.ErrNotFound)
	}
	sub = sub.Clone()
	sub.ApplyDetails(details)
	sub.UpdatedAt = s.now()
	// assigning replaces the stored key, so use the one the store owns
	s.submissions[sub.ID] = sub
	return sub.Clone(), nil
}

func (s *MemoryStore) DeleteSubmission(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(submissionKey(id))
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[id]; !ok {
		return fmt.Errorf("submission %q: %w", id, types.ErrNotFound)
	}
	delete(s.submissions, id)
	return nil
}

func (s *MemoryStore) Transact(ctx context.Context, userID, submissionID string, fn TxFunc) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	unlockUser := s.lock(userKey(userID))
	defer unlockUser()
	unlockSub := s.lock(submissionKey(submissionID))
	defer unlockSub()

	s.mu.RLock()
	user, userOK := s.users[userID]
	sub, subOK := s.submissions[submissionID]
	s.mu.RUnlock()
	if !userOK {
		return Entry{}, fmt.Errorf("user %q: %w", userID, types.ErrNotFound)
	}
	if !subOK {
		return Entry{}, fmt.Errorf("submission %q: %w", submissionID, types.ErrNotFound)
	}

	entry := Entry{User: user.Clone(), Submission: sub.Clone()}
	write, err := fn(&entry)
	if err != nil {
		return Entry{}, err
	}
	if !write {
		return Entry{User: user.Clone(), Submission: sub.Clone()}, nil
	}

	// Only the allowance for this submission and the tallies are committed.
	committedUser := user.Clone()
	if remaining, ok := entry.User.VotesRemainingPerAddress[submissionID]; ok {
		committedUser.VotesRemainingPerAddress[sub.ID] = remaining
	}
	committedSub := sub.Clone()
	committedSub.Votes = entry.Submission.Clone().Votes
	committedSub.TotalVotes = entry.Submission.TotalVotes

	s.mu.Lock()
	s.users[user.ID] = committedUser
	s.submissions[sub.ID] = committedSub
	s.mu.Unlock()

	return Entry{User: committedUser.Clone(), Submission: committedSub.Clone()}, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
