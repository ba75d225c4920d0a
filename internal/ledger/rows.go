package ledger

import (
	"time"

	"github.com/bluffpark/holidaylights/internal/models"
	"gorm.io/datatypes"
)

// userRow is the users table
type userRow struct {
	ID        string `gorm:"primaryKey;size:128"`
	Name      string `gorm:"size:255;not null"`
	FirstName string `gorm:"size:255"`
	LastName  string `gorm:"size:255"`
	Email     string `gorm:"size:320;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// submissionRow is the submissions table. VoteVersion is bumped by every vote
// commit and checked as a compare-and-swap guard; detail edits leave it alone.
type submissionRow struct {
	ID          string                                      `gorm:"primaryKey;size:36"`
	UserID      string                                      `gorm:"size:128;not null;index"`
	FirstName   string                                      `gorm:"size:255"`
	LastName    string                                      `gorm:"size:255"`
	Address     string                                      `gorm:"size:512;not null"`
	Lat         float64                                     `gorm:"not null;default:0"`
	Lng         float64                                     `gorm:"not null;default:0"`
	Description string                                      `gorm:"size:2000"`
	Photos      datatypes.JSONSlice[models.Photo]           `gorm:"not null"`
	Votes       datatypes.JSONType[map[models.Category]int] `gorm:"not null"`
	TotalVotes  int                                         `gorm:"not null;default:0;index"`
	VoteVersion uint64                                      `gorm:"not null;default:0"`
	CreatedAt   time.Time                                   `gorm:"index"`
	UpdatedAt   time.Time
}

// allowanceRow is one votesRemainingPerAddress entry. Keeping entries in their own
// rows means votes on different submissions never write the same row.
type allowanceRow struct {
	UserID       string `gorm:"primaryKey;size:128"`
	SubmissionID string `gorm:"primaryKey;size:36"`
	Remaining    int    `gorm:"not null"`
	UpdatedAt    time.Time
}

// TableName overrides the table name for userRow
func (userRow) TableName() string {
	return "users"
}

// TableName overrides the table name for submissionRow
func (submissionRow) TableName() string {
	return "submissions"
}

// TableName overrides the table name for allowanceRow
func (allowanceRow) TableName() string {
	return "vote_allowances"
}

func userRowFromModel(u models.User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (r userRow) toModel(allowances []allowanceRow) models.User {
	remaining := make(map[string]int, len(allowances))
	for _, a := range allowances {
		remaining[a.SubmissionID] = a.Remaining
	}
	return models.User{
		ID:                       r.ID,
		Name:                     r.Name,
		FirstName:                r.FirstName,
		LastName:                 r.LastName,
		Email:                    r.Email,
		VotesRemainingPerAddress: remaining,
		CreatedAt:                r.CreatedAt,
	}
}

func submissionRowFromModel(s models.Submission) submissionRow {
	votes := s.Votes
	if votes == nil {
		votes = map[models.Category]int{}
	}
	photos := s.Photos
	if photos == nil {
		photos = []models.Photo{}
	}
	return submissionRow{
		ID:          s.ID,
		UserID:      s.UserID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Address:     s.Address,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Description: s.Description,
		Photos:      datatypes.NewJSONSlice(photos),
		Votes:       datatypes.NewJSONType(votes),
		TotalVotes:  s.TotalVotes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (r submissionRow) toModel() models.Submission {
	votes := make(map[models.Category]int)
	for k, v := range r.Votes.Data() {
		votes[k] = v
	}
	return models.Submission{
		ID:          r.ID,
		UserID:      r.UserID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Address:     r.Address,
		Lat:         r.Lat,
		Lng:         r.Lng,
		Description: r.Description,
		Photos:      append([]models.Photo{}, r.Photos...),
		Votes:       votes,
		TotalVotes:  r.TotalVotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
