package models

import (
	"database/sql"
	"time"
)

const (
	FrequencyUnitHours = "hours"
	FrequencyUnitDays  = "days"
)

// Frequency is the recurrence policy of a schedule. It is persisted as two
// flat columns (frequency_interval, frequency_unit) and reassembled by the
// repository before any caller sees it.
type Frequency struct {
	Interval int    `json:"interval"`
	Unit     string `json:"unit"`
}

// Duration converts one cycle of the frequency into a time.Duration.
// An unrecognized unit falls back to 24 hours.
func (f Frequency) Duration() time.Duration {
	switch f.Unit {
	case FrequencyUnitHours:
		return time.Duration(f.Interval) * time.Hour
	case FrequencyUnitDays:
		return time.Duration(f.Interval) * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// NextFrom computes the next due time after now. Pure given (now, frequency).
func (f Frequency) NextFrom(now time.Time) time.Time {
	return now.Add(f.Duration())
}

type Schedule struct {
	ID                  int64          `db:"id" json:"id"`
	UserID              int64          `db:"user_id" json:"user_id"`
	ItemID              string         `db:"item_id" json:"item_id"`
	OriginalTitle       string         `db:"original_title" json:"original_title"`
	OriginalDescription string         `db:"original_description" json:"original_description"`
	Frequency           Frequency      `json:"frequency"`
	VariateDescription  bool           `db:"variate_description" json:"variate_description"`
	MaxPublications     sql.NullInt64  `db:"max_publications" json:"max_publications"`
	IsActive            bool           `db:"is_active" json:"is_active"`
	LastPublishedAt     sql.NullTime   `db:"last_published_at" json:"last_published_at"`
	NextPublishAt       time.Time      `db:"next_publish_at" json:"next_publish_at"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// PublishedInCycle reports whether the schedule already published within the
// current frequency window. A 10% margin absorbs trigger jitter so a schedule
// fired twice within one nominal period is not double-published.
func (s *Schedule) PublishedInCycle(now time.Time) bool {
	if !s.LastPublishedAt.Valid {
		return false
	}
	margin := time.Duration(float64(s.Frequency.Duration()) * 1.1)
	return now.Sub(s.LastPublishedAt.Time) < margin
}

// ReachedPublicationLimit reports whether the given history count has hit the
// schedule's max_publications cap. Schedules without a cap are unlimited.
func (s *Schedule) ReachedPublicationLimit(published int64) bool {
	return s.MaxPublications.Valid && published >= s.MaxPublications.Int64
}
