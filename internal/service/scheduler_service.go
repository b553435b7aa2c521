package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchavez27/melipanel/internal/models"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/transfer"
)

// Pause between publications so a large batch does not trip the
// marketplace rate limit.
const publishPacing = time.Second

// SchedulerService orchestrates the per-schedule publish pipeline and the
// batch driver over all due schedules. One instance serves both deployment
// shapes: the sequential cron sweep and the fan-out worker.
type SchedulerService interface {
	PublishScheduledItem(ctx context.Context, schedule *models.Schedule, token string) transfer.PublicationResult
	ProcessScheduledPublications(ctx context.Context, schedules []*models.Schedule, token string) transfer.SweepResult
}

type schedulerService struct {
	meli       MeliService
	variations VariationService
	schedules  repository.ScheduleRepository
	history    repository.HistoryRepository
	pacing     time.Duration
}

func NewSchedulerService(
	meli MeliService,
	variations VariationService,
	schedules repository.ScheduleRepository,
	history repository.HistoryRepository) SchedulerService {
	return &schedulerService{
		meli:       meli,
		variations: variations,
		schedules:  schedules,
		history:    history,
		pacing:     publishPacing,
	}
}

// PublishScheduledItem runs one schedule through fetch → variate →
// transform → publish → record. Every internal failure is converted into a
// failed PublicationResult; nothing escapes this boundary.
func (s *schedulerService) PublishScheduledItem(ctx context.Context, schedule *models.Schedule, token string) transfer.PublicationResult {
	item, err := s.meli.GetItem(ctx, schedule.ItemID, token)
	if err != nil {
		return s.fail(ctx, schedule, transfer.Variation{}, err)
	}

	// The variation always starts from the title snapshotted at schedule
	// creation, not the live listing title.
	variation := s.variations.GenerateVariations(ctx, transfer.Variation{
		Title:       schedule.OriginalTitle,
		Description: schedule.OriginalDescription,
	}, schedule.VariateDescription, item.CategoryID)

	payload := BuildDuplicatePayload(item, &variation)
	published, err := s.meli.CreateItem(ctx, payload, token)
	if err != nil {
		return s.fail(ctx, schedule, variation, err)
	}

	if variation.Description != "" {
		// A listing without a rich description is still a valid success.
		if err := s.meli.SetDescription(ctx, published.ID, variation.Description, token); err != nil {
			slog.Info("could not attach description", "listing", published.ID, "error", err.Error())
		}
	}

	s.recordHistory(ctx, schedule, &models.PublicationHistory{
		PublishedTitle:       variation.Title,
		PublishedDescription: variation.Description,
		NewListingID:         published.ID,
		Status:               models.HistoryStatusSuccess,
		PublishedAt:          sql.NullTime{Time: time.Now(), Valid: true},
	})

	if err := s.schedules.Advance(ctx, schedule.ID, schedule.Frequency); err != nil {
		slog.Info("could not advance schedule", "schedule", schedule.ID, "error", err.Error())
	}

	return transfer.PublicationResult{Success: true, NewListingID: published.ID}
}

// ProcessScheduledPublications is the sequential batch driver. Failures are
// isolated per schedule and every processed schedule moves its due time
// forward, so a permanently broken schedule is not retried on every tick.
func (s *schedulerService) ProcessScheduledPublications(ctx context.Context, schedules []*models.Schedule, token string) transfer.SweepResult {
	result := transfer.SweepResult{Processed: len(schedules)}

	for i, schedule := range schedules {
		if schedule.PublishedInCycle(time.Now()) {
			slog.Info("skipping schedule, already published this cycle", "schedule", schedule.ID)
			continue
		}

		if s.limitReached(ctx, schedule) {
			continue
		}

		publication := s.PublishScheduledItem(ctx, schedule, token)
		if publication.Success {
			result.Successful++
		} else {
			result.Failed++
			if err := s.schedules.Advance(ctx, schedule.ID, schedule.Frequency); err != nil {
				slog.Info("could not advance schedule", "schedule", schedule.ID, "error", err.Error())
			}
		}

		if i < len(schedules)-1 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(s.pacing):
			}
		}
	}

	slog.Info("publication sweep finished",
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed)

	return result
}

func (s *schedulerService) limitReached(ctx context.Context, schedule *models.Schedule) bool {
	if !schedule.MaxPublications.Valid {
		return false
	}

	published, err := s.history.CountByScheduleID(ctx, schedule.ID)
	if err != nil {
		slog.Info(err.Error())
		return false
	}
	if !schedule.ReachedPublicationLimit(published) {
		return false
	}

	slog.Info("schedule reached its publication limit, deactivating", "schedule", schedule.ID)
	if err := s.schedules.Deactivate(ctx, schedule.ID); err != nil {
		slog.Info(err.Error())
	}
	return true
}

func (s *schedulerService) fail(ctx context.Context, schedule *models.Schedule, variation transfer.Variation, cause error) transfer.PublicationResult {
	slog.Info("publication failed", "schedule", schedule.ID, "error", cause.Error())

	s.recordHistory(ctx, schedule, &models.PublicationHistory{
		PublishedTitle: variation.Title,
		Status:         models.HistoryStatusFailed,
		ErrorMessage:   cause.Error(),
	})

	return transfer.PublicationResult{Success: false, Error: cause.Error()}
}

// recordHistory is best-effort: losing an audit row must not mask the
// outcome of the publish attempt.
func (s *schedulerService) recordHistory(ctx context.Context, schedule *models.Schedule, entry *models.PublicationHistory) {
	entry.ScheduleID = schedule.ID
	entry.UserID = schedule.UserID
	entry.ItemID = schedule.ItemID
	entry.GeneratedAt = time.Now()

	if _, err := s.history.Create(ctx, entry); err != nil {
		slog.Info(fmt.Sprintf("could not record history for schedule %d: %v", schedule.ID, err))
	}
}
