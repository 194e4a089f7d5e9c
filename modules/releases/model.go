package releases

import "time"

// Release is a published version with its notes.
type Release struct {
	ID          int64     `json:"id"`
	Version     string    `json:"version"`
	Notes       string    `json:"notes"`
	URL         string    `json:"url,omitempty"`
	IsActive    bool      `json:"is_active"`
	PublishedAt time.Time `json:"published_at"`
}

// PublicRelease is the reduced shape exposed on the unauthenticated feed.
type PublicRelease struct {
	Version     string    `json:"version"`
	Notes       string    `json:"notes"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Public converts a release into its public representation.
func (r Release) Public() PublicRelease {
	return PublicRelease{
		Version:     r.Version,
		Notes:       r.Notes,
		URL:         r.URL,
		PublishedAt: r.PublishedAt,
	}
}
