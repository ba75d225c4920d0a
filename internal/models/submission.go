package models

import "time"

// DefaultMaxPhotos bounds the photos attached to one submission
const DefaultMaxPhotos = 10

// Photo is a display photo whose URL was resolved by the upload pipeline
type Photo struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	IsFeatured bool   `json:"isFeatured"`
}

// Submission is a registered holiday-lights display and its vote tallies
type Submission struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	FirstName   string           `json:"firstName,omitempty"`
	LastName    string           `json:"lastName,omitempty"`
	Address     string           `json:"address"`
	Lat         float64          `json:"lat"`
	Lng         float64          `json:"lng"`
	Description string           `json:"description,omitempty"`
	Photos      []Photo          `json:"photos"`
	Votes       map[Category]int `json:"votes"`
	TotalVotes  int              `json:"totalVotes"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// FeaturedPhotoURL returns the featured photo, falling back to the first one
func (s *Submission) FeaturedPhotoURL() string {
	for _, p := range s.Photos {
		if p.IsFeatured {
			return p.URL
		}
	}
	if len(s.Photos) > 0 {
		return s.Photos[0].URL
	}
	return ""
}

// TallyConsistent reports whether TotalVotes equals the sum of the category counts
func (s *Submission) TallyConsistent() bool {
	sum := 0
	for _, v := range s.Votes {
		if v < 0 {
			return false
		}
		sum += v
	}
	return sum == s.TotalVotes
}

// Clone returns a deep copy
func (s Submission) Clone() Submission {
	votes := make(map[Category]int, len(s.Votes))
	for k, v := range s.Votes {
		votes[k] = v
	}
	s.Votes = votes
	s.Photos = append([]Photo(nil), s.Photos...)
	return s
}

// SubmissionDetails is the descriptive payload of a submission, disjoint from the vote fields
type SubmissionDetails struct {
	FirstName   string
	LastName    string
	Address     string
	Lat         float64
	Lng         float64
	Description string
	Photos      []Photo
}

// ApplyDetails overwrites the descriptive fields only
func (s *Submission) ApplyDetails(d SubmissionDetails) {
	s.FirstName = d.FirstName
	s.LastName = d.LastName
	s.Address = d.Address
	s.Lat = d.Lat
	s.Lng = d.Lng
	s.Description = d.Description
	s.Photos = append([]Photo(nil), d.Photos...)
}

// Details extracts the descriptive payload
func (s *Submission) Details() SubmissionDetails {
	return SubmissionDetails{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Address:     s.Address,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Description: s.Description,
		Photos:      append([]Photo(nil), s.Photos...),
	}
}
