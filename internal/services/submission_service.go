// submission_service.go
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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluffpark/holidaylights/internal/ledger"
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/google/uuid"
)

const maxDescriptionLength = 2000

// SubmissionInput is the payload for registering a display
type SubmissionInput struct {
	FirstName   string
	LastName    string
	Address     string
	Lat         float64
	Lng         float64
	Description string
	Photos      []models.Photo
}

// SubmissionPatch carries the descriptive fields to change; nil fields are kept
type SubmissionPatch struct {
	FirstName   *string
	LastName    *string
	Address     *string
	Lat         *float64
	Lng         *float64
	Description *string
	Photos      *[]models.Photo
}

// SubmissionService is the submission registry. It never writes vote counts
// after creation; those belong to the VoteService.
type SubmissionService struct {
	Store     ledger.Store
	MaxPhotos int
	Logger    *slog.Logger
}

// NewSubmissionService returns a registry with the default photo limit
func NewSubmissionService(store ledger.Store, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{Store: store, MaxPhotos: models.DefaultMaxPhotos, Logger: logger}
}

// CreateSubmission registers a display owned by ownerID with every category at zero
func (s *SubmissionService) CreateSubmission(ctx context.Context, ownerID string, in SubmissionInput) (models.Submission, error) {
	logger := ResolveLogger(s.Logger)
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return models.Submission{}, types.InvalidArgument("owner id is required")
	}

	details := models.SubmissionDetails{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Address:     strings.TrimSpace(in.Address),
		Lat:         in.Lat,
		Lng:         in.Lng,
		Description: strings.TrimSpace(in.Description),
		Photos:      in.Photos,
	}
	details, err := s.normalize(details)
	if err != nil {
		logger.Warn("submission validation failed",
			"event", "submission_create_validation_failed",
			"module", logModule,
			"user_id", ownerID,
			"error", err.Error(),
		)
		return models.Submission{}, err
	}

	sub := models.Submission{
		ID:         uuid.NewString(),
		UserID:     ownerID,
		Votes:      models.NewTally(),
		TotalVotes: 0,
	}
	sub.ApplyDetails(details)

	created, err := s.Store.CreateSubmission(ctx, sub)
	if err != nil {
		return models.Submission{}, err
	}
	logger.Info("submission created",
		"event", "submission_created",
		"module", logModule,
		"user_id", ownerID,
		"submission_id", created.ID,
		"photos", len(created.Photos),
	)
	return created, nil
}

// UpdateSubmission changes descriptive fields of a display its caller owns
func (s *SubmissionService) UpdateSubmission(ctx context.Context, ownerID, id string, patch SubmissionPatch) (models.Submission, error) {
	logger := ResolveLogger(s.Logger)
	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return models.Submission{}, err
	}

	details := existing.Details()
	if patch.FirstName != nil {
		details.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		details.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Address != nil {
		details.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Lat != nil {
		details.Lat = *patch.Lat
	}
	if patch.Lng != nil {
		details.Lng = *patch.Lng
	}
	if patch.Description != nil {
		details.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Photos != nil {
		details.Photos = *patch.Photos
	}

	details, err = s.normalize(details)
	if err != nil {
		return models.Submission{}, err
	}

	updated, err := s.Store.UpdateSubmissionDetails(ctx, existing.ID, details)
	if err != nil {
		return models.Submission{}, err
	}
	logger.Info("submission updated",
		"event", "submission_updated",
		"module", logModule,
		"user_id", existing.UserID,
		"submission_id", updated.ID,
	)
	return updated, nil
}

// DeleteSubmission removes a display its caller owns. Allowance entries that
// reference it are left in place; votes can no longer reach them.
func (s *SubmissionService) DeleteSubmission(ctx context.Context, ownerID, id string) error {
	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteSubmission(ctx, existing.ID); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("submission deleted",
		"event", "submission_deleted",
		"module", logModule,
		"user_id", existing.UserID,
		"submission_id", existing.ID,
	)
	return nil
}

// GetSubmission returns one display
func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Submission{}, types.InvalidArgument("submission id is required")
	}
	return s.Store.GetSubmission(ctx, id)
}

// ListSubmissions returns every display in creation order
func (s *SubmissionService) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	return s.Store.ListSubmissions(ctx)
}

func (s *SubmissionService) owned(ctx context.Context, ownerID, id string) (models.Submission, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return models.Submission{}, types.InvalidArgument("owner id is required")
	}
	existing, err := s.GetSubmission(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}
	if existing.UserID != ownerID {
		ResolveLogger(s.Logger).Warn("submission owner mismatch",
			"event", "submission_owner_mismatch",
			"module", logModule,
			"user_id", ownerID,
			"submission_id", existing.ID,
		)
		return models.Submission{}, fmt.Errorf("submission %q belongs to another user: %w", existing.ID, types.ErrForbidden)
	}
	return existing, nil
}

// normalize validates the descriptive payload, assigns missing photo ids and
// leaves exactly one featured photo when there are any.
func (s *SubmissionService) normalize(d models.SubmissionDetails) (models.SubmissionDetails, error) {
	maxPhotos := s.MaxPhotos
	if maxPhotos <= 0 {
		maxPhotos = models.DefaultMaxPhotos
	}

	if d.Address == "" {
		return d, types.InvalidArgument("address is required")
	}
	if d.Lat < -90 || d.Lat > 90 {
		return d, types.InvalidArgument("latitude %v out of range", d.Lat)
	}
	if d.Lng < -180 || d.Lng > 180 {
		return d, types.InvalidArgument("longitude %v out of range", d.Lng)
	}
	if len(d.Description) > maxDescriptionLength {
		return d, types.InvalidArgument("description exceeds %d characters", maxDescriptionLength)
	}
	if len(d.Photos) > maxPhotos {
		return d, types.InvalidArgument("at most %d photos are allowed, got %d", maxPhotos, len(d.Photos))
	}

	photos := make([]models.Photo, 0, len(d.Photos))
	featured := -1
	for i, p := range d.Photos {
		p.URL = strings.TrimSpace(p.URL)
		if p.URL == "" {
			return d, types.InvalidArgument("photo %d has no url", i)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.IsFeatured {
			if featured >= 0 {
				p.IsFeatured = false
			} else {
				featured = i
			}
		}
		photos = append(photos, p)
	}
	if featured < 0 && len(photos) > 0 {
		photos[0].IsFeatured = true
	}
	d.Photos = photos
	return d, nil
}
