package models

import (
	"database/sql"
	"time"
)

const (
	HistoryStatusSuccess = "success"
	HistoryStatusFailed  = "failed"
	HistoryStatusPending = "pending"
)

// PublicationHistory is one execution record of a schedule. Rows are
// append-only and kept even after the owning schedule is deleted.
type PublicationHistory struct {
	ID                   int64        `db:"id" json:"id"`
	ScheduleID           int64        `db:"schedule_id" json:"schedule_id"`
	UserID               int64        `db:"user_id" json:"user_id"`
	ItemID               string       `db:"item_id" json:"item_id"`
	PublishedTitle       string       `db:"published_title" json:"published_title"`
	PublishedDescription string       `db:"published_description" json:"published_description"`
	NewListingID         string       `db:"new_listing_id" json:"new_listing_id"`
	Status               string       `db:"status" json:"status"`
	ErrorMessage         string       `db:"error_message" json:"error_message"`
	GeneratedAt          time.Time    `db:"generated_at" json:"generated_at"`
	PublishedAt          sql.NullTime `db:"published_at" json:"published_at"`
}
