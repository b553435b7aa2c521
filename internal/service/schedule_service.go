package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchavez27/melipanel/internal/models"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/transfer"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleService owns the dashboard-facing schedule lifecycle: creation
// (snapshotting the listing title once), updates, deletion and the history
// view. The engine consumes what this service creates.
type ScheduleService interface {
	Create(ctx context.Context, userID int64, req *transfer.CreateScheduleRequest) (*transfer.ScheduleResponse, error)
	List(ctx context.Context, userID int64, isActive *bool) ([]*transfer.ScheduleResponse, error)
	Get(ctx context.Context, userID, id int64) (*transfer.ScheduleResponse, error)
	Update(ctx context.Context, userID, id int64, req *transfer.UpdateScheduleRequest) (*transfer.ScheduleResponse, error)
	Remove(ctx context.Context, userID, id int64) error
	History(ctx context.Context, userID, id int64, limit, offset int) ([]*models.PublicationHistory, error)
}

type scheduleService struct {
	schedules repository.ScheduleRepository
	history   repository.HistoryRepository
	meli      MeliService
	auth      MeliAuthService
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	history repository.HistoryRepository,
	meli MeliService,
	auth MeliAuthService) ScheduleService {
	return &scheduleService{
		schedules: schedules,
		history:   history,
		meli:      meli,
		auth:      auth,
	}
}

func (s *scheduleService) Create(ctx context.Context, userID int64, req *transfer.CreateScheduleRequest) (*transfer.ScheduleResponse, error) {
	if req.ItemID == "" {
		return nil, errors.New("itemId is required")
	}
	if err := validateFrequency(req.Frequency); err != nil {
		return nil, err
	}
	if req.MaxPublications != nil && *req.MaxPublications < 1 {
		return nil, errors.New("maxPublications must be >= 1")
	}

	// Snapshot the title and description once; the variation generator
	// works from this snapshot on every cycle, never the live listing.
	title := req.ItemTitle
	description := ""
	if title == "" {
		title = "Sin título"
		if token, err := s.auth.GetToken(ctx); err == nil {
			if item, err := s.meli.GetItem(ctx, req.ItemID, token); err == nil {
				title = item.Title
				description, _ = s.meli.GetItemDescription(ctx, req.ItemID, token)
			} else {
				slog.Info("could not snapshot listing for schedule", "item", req.ItemID, "error", err.Error())
			}
		}
	}

	now := time.Now()
	schedule := &models.Schedule{
		UserID:              userID,
		ItemID:              req.ItemID,
		OriginalTitle:       title,
		OriginalDescription: description,
		Frequency:           req.Frequency,
		VariateDescription:  req.VariateDescription,
		IsActive:            true,
		NextPublishAt:       req.Frequency.NextFrom(now),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.MaxPublications != nil {
		schedule.MaxPublications = sql.NullInt64{Int64: *req.MaxPublications, Valid: true}
	}

	id, err := s.schedules.Create(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("error creating schedule: %w", err)
	}
	schedule.ID = id

	return s.toResponse(ctx, schedule), nil
}

func (s *scheduleService) List(ctx context.Context, userID int64, isActive *bool) ([]*transfer.ScheduleResponse, error) {
	schedules, err := s.schedules.ListByUserID(ctx, userID, isActive)
	if err != nil {
		return nil, err
	}

	responses := make([]*transfer.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		responses = append(responses, s.toResponse(ctx, schedule))
	}
	return responses, nil
}

func (s *scheduleService) Get(ctx context.Context, userID, id int64) (*transfer.ScheduleResponse, error) {
	schedule, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, schedule), nil
}

func (s *scheduleService) Update(ctx context.Context, userID, id int64, req *transfer.UpdateScheduleRequest) (*transfer.ScheduleResponse, error) {
	schedule, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Frequency != nil {
		if err := validateFrequency(*req.Frequency); err != nil {
			return nil, err
		}
		schedule.Frequency = *req.Frequency
		// A frequency change restarts the cycle from now.
		schedule.NextPublishAt = req.Frequency.NextFrom(time.Now())
	}
	if req.VariateDescription != nil {
		schedule.VariateDescription = *req.VariateDescription
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	if req.MaxPublications != nil {
		if *req.MaxPublications < 1 {
			return nil, errors.New("maxPublications must be >= 1")
		}
		schedule.MaxPublications = sql.NullInt64{Int64: *req.MaxPublications, Valid: true}
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("error updating schedule: %w", err)
	}

	return s.toResponse(ctx, schedule), nil
}

// Remove deletes the schedule only; history rows stay behind as an audit
// log.
func (s *scheduleService) Remove(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.schedules.Remove(ctx, id)
}

func (s *scheduleService) History(ctx context.Context, userID, id int64, limit, offset int) ([]*models.PublicationHistory, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.history.ListByScheduleID(ctx, id, limit, offset)
}

func (s *scheduleService) owned(ctx context.Context, userID, id int64) (*models.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil || schedule.UserID != userID {
		slog.Info("schedule not found", "schedule", id, "user", userID)
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *scheduleService) toResponse(ctx context.Context, schedule *models.Schedule) *transfer.ScheduleResponse {
	count, err := s.history.CountByScheduleID(ctx, schedule.ID)
	if err != nil {
		slog.Info(err.Error())
	}

	resp := &transfer.ScheduleResponse{
		ID:                 schedule.ID,
		ItemID:             schedule.ItemID,
		OriginalTitle:      schedule.OriginalTitle,
		Frequency:          schedule.Frequency,
		VariateDescription: schedule.VariateDescription,
		IsActive:           schedule.IsActive,
		NextPublishAt:      schedule.NextPublishAt.Format(time.RFC3339),
		PublicationCount:   count,
		CreatedAt:          schedule.CreatedAt.Format(time.RFC3339),
	}
	if schedule.LastPublishedAt.Valid {
		resp.LastPublishedAt = schedule.LastPublishedAt.Time.Format(time.RFC3339)
	}
	if schedule.MaxPublications.Valid {
		max := schedule.MaxPublications.Int64
		resp.MaxPublications = &max
	}
	return resp
}

func validateFrequency(f models.Frequency) error {
	if f.Interval < 1 {
		return errors.New("frequency.interval must be >= 1")
	}
	if f.Unit != models.FrequencyUnitHours && f.Unit != models.FrequencyUnitDays {
		return errors.New(`frequency.unit must be "hours" or "days"`)
	}
	return nil
}
