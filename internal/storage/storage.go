package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Finding records one newly available date confirmed by the detector.
// Findings are append-only; nothing in ranchwatch updates or deletes them.
type Finding struct {
	ID      string    `json:"id"`
	Date    string    `json:"date"` // MM/DD/YYYY as reported upstream
	Nights  int       `json:"nights"`
	FoundAt time.Time `json:"found_at"`
}

// NewFinding stamps a Finding with a fresh ID.
func NewFinding(date string, nights int, foundAt time.Time) *Finding {
	return &Finding{
		ID:      uuid.New().String(),
		Date:    date,
		Nights:  nights,
		FoundAt: foundAt,
	}
}

// Filter allows querying for specific Findings.
type Filter struct {
	Date   string
	Since  *time.Time
	Limit  int
	Offset int
}

// Match reports whether f passes the Date and Since constraints.
func (flt Filter) Match(f *Finding) bool {
	if flt.Date != "" && f.Date != flt.Date {
		return false
	}
	if flt.Since != nil && f.FoundAt.Before(*flt.Since) {
		return false
	}
	return true
}

// Apply filters findings held in append order and returns them newest first
// with Offset and Limit applied. File-backed backends share it.
func Apply(findings []*Finding, flt Filter) []*Finding {
	out := make([]*Finding, 0, len(findings))
	for i := len(findings) - 1; i >= 0; i-- {
		if flt.Match(findings[i]) {
			out = append(out, findings[i])
		}
	}

	if flt.Offset > 0 {
		if flt.Offset >= len(out) {
			return []*Finding{}
		}
		out = out[flt.Offset:]
	}
	if flt.Limit > 0 && flt.Limit < len(out) {
		out = out[:flt.Limit]
	}
	return out
}

// Backend defines the interface for storing and querying findings.
type Backend interface {
	Append(ctx context.Context, f *Finding) error
	Query(ctx context.Context, filter Filter) ([]*Finding, error)
	Close() error
}
