// gorm.go
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

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// GormStore is the relational ledger backend.
//
// Transact opens a database transaction, locks the user and submission rows with
// SELECT ... FOR UPDATE where the dialect has it, and commits the tallies with a
// compare-and-swap on submissions.vote_version. A lost race surfaces as ErrConflict.
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormStore wraps an open connection. Call Migrate before first use.
func NewGormStore(db *gorm.DB, logger *slog.Logger) *GormStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormStore{db: db, logger: logger}
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRow{},
		&submissionRow{},
		&allowanceRow{},
	)
}

// quiet drops per-statement SQL logging for hot paths, as the data service did for reads
func (s *GormStore) quiet(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

// forUpdate adds a row lock. SQL Server has no FOR UPDATE clause; there the
// vote_version check alone detects concurrent commits.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlserver" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	row := userRowFromModel(user)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.User{}, s.fail("ledger_create_user_failed", classify(err, "create user"), "user_id", user.ID)
	}
	return row.toModel(nil), nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.quiet(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		var allowances []allowanceRow
		if err := tx.Where("user_id = ?", id).Find(&allowances).Error; err != nil {
			return err
		}
		user = row.toModel(allowances)
		return nil
	})
	if err != nil {
		return models.User{}, classify(err, fmt.Sprintf("user %q", id))
	}
	return user, nil
}

func (s *GormStore) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	row := submissionRowFromModel(sub)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Submission{}, s.fail("ledger_create_submission_failed", classify(err, "create submission"), "submission_id", sub.ID)
	}
	return row.toModel(), nil
}

func (s *GormStore) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	var row submissionRow
	if err := s.quiet(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Submission{}, classify(err, fmt.Sprintf("submission %q", id))
	}
	return row.toModel(), nil
}

func (s *GormStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	var rows []submissionRow
	if err := s.quiet(ctx).
		Clauses(hints.Comment("select", "submission_registry_list")).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.fail("ledger_list_submissions_failed", classify(err, "list submissions"))
	}

	out := make([]models.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (s *GormStore) UpdateSubmissionDetails(ctx context.Context, id string, details models.SubmissionDetails) (models.Submission, error) {
	photos := details.Photos
	if photos == nil {
		photos = []models.Photo{}
	}

	var row submissionRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only descriptive columns: a concurrent vote commit keeps its tallies.
		result := tx.Model(&submissionRow{}).Where("id = ?", id).Updates(map[string]any{
			"first_name":  details.FirstName,
			"last_name":   details.LastName,
			"address":     details.Address,
			"lat":         details.Lat,
			"lng":         details.Lng,
			"description": details.Description,
			"photos":      datatypes.NewJSONSlice(photos),
			"updated_at":  time.Now().UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return models.Submission{}, classify(err, fmt.Sprintf("update submission %q", id))
	}
	return row.toModel(), nil
}

func (s *GormStore) DeleteSubmission(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&submissionRow{})
	if result.Error != nil {
		return s.fail("ledger_delete_submission_failed", classify(result.Error, "delete submission"), "submission_id", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("submission %q: %w", id, types.ErrNotFound)
	}
	return nil
}

func (s *GormStore) Transact(ctx context.Context, userID, submissionID string, fn TxFunc) (Entry, error) {
	var entry Entry

	err := s.quiet(ctx).Transaction(func(tx *gorm.DB) error {
		var user userRow
		if err := forUpdate(tx).Where("id = ?", userID).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("user %q: %w", userID, types.ErrNotFound)
			}
			return err
		}

		var sub submissionRow
		if err := forUpdate(tx).Where("id = ?", submissionID).First(&sub).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("submission %q: %w", submissionID, types.ErrNotFound)
			}
			return err
		}

		var allowances []allowanceRow
		if err := forUpdate(tx).Where("user_id = ?", userID).Find(&allowances).Error; err != nil {
			return err
		}

		entry = Entry{User: user.toModel(allowances), Submission: sub.toModel()}
		work := Entry{User: entry.User.Clone(), Submission: entry.Submission.Clone()}

		write, err := fn(&work)
		if err != nil || !write {
			return err
		}

		now := time.Now().UTC()
		if remaining, ok := work.User.VotesRemainingPerAddress[submissionID]; ok {
			allowance := allowanceRow{
				UserID:       userID,
				SubmissionID: submissionID,
				Remaining:    remaining,
				UpdatedAt:    now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "submission_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"remaining", "updated_at"}),
			}).Create(&allowance).Error; err != nil {
				return err
			}
			entry.User.VotesRemainingPerAddress[submissionID] = remaining
		}

		result := tx.Model(&submissionRow{}).
			Where("id = ? AND vote_version = ?", submissionID, sub.VoteVersion).
			Updates(map[string]any{
				"votes":        datatypes.NewJSONType(work.Submission.Votes),
				"total_votes":  work.Submission.TotalVotes,
				"vote_version": sub.VoteVersion + 1,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("submission %q changed during vote: %w", submissionID, types.ErrConflict)
		}

		entry.Submission.Votes = work.Submission.Clone().Votes
		entry.Submission.TotalVotes = work.Submission.TotalVotes
		entry.Submission.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Entry{}, classify(err, "vote transaction")
	}
	return entry, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *GormStore) fail(event string, err error, attrs ...any) error {
	s.logger.Error("ledger operation failed",
		append([]any{"event", event, "module", "ledger", "error", err.Error()}, attrs...)...)
	return err
}
