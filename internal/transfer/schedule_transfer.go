package transfer

import "github.com/mchavez27/melipanel/internal/models"

type CreateScheduleRequest struct {
	ItemID             string           `json:"itemId"`
	ItemTitle          string           `json:"itemTitle,omitempty"`
	Frequency          models.Frequency `json:"frequency"`
	VariateDescription bool             `json:"variateDescription"`
	MaxPublications    *int64           `json:"maxPublications"`
}

type UpdateScheduleRequest struct {
	Frequency          *models.Frequency `json:"frequency"`
	VariateDescription *bool             `json:"variateDescription"`
	IsActive           *bool             `json:"isActive"`
	MaxPublications    *int64            `json:"maxPublications"`
}

type ScheduleResponse struct {
	ID                 int64            `json:"id"`
	ItemID             string           `json:"itemId"`
	OriginalTitle      string           `json:"originalTitle"`
	Frequency          models.Frequency `json:"frequency"`
	VariateDescription bool             `json:"variateDescription"`
	MaxPublications    *int64           `json:"maxPublications,omitempty"`
	IsActive           bool             `json:"isActive"`
	LastPublishedAt    string           `json:"lastPublishedAt,omitempty"`
	NextPublishAt      string           `json:"nextPublishAt"`
	PublicationCount   int64            `json:"publicationCount"`
	CreatedAt          string           `json:"createdAt"`
}

// PublicationResult is the discriminated outcome of one publish attempt.
// The engine never lets an error escape past this.
type PublicationResult struct {
	Success      bool   `json:"success"`
	NewListingID string `json:"newListingId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SweepResult summarizes one batch run over the due schedules.
type SweepResult struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}
