package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mchavez27/melipanel/internal/models"
)

const scheduleColumns = `id, user_id, item_id, original_title, original_description,
		frequency_interval, frequency_unit, variate_description, max_publications,
		is_active, last_published_at, next_publish_at, created_at, updated_at`

type ScheduleRepository interface {
	Create(ctx context.Context, s *models.Schedule) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Schedule, error)
	ListByUserID(ctx context.Context, userID int64, isActive *bool) ([]*models.Schedule, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error)
	Update(ctx context.Context, s *models.Schedule) error
	Advance(ctx context.Context, id int64, frequency models.Frequency) error
	Deactivate(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, s *models.Schedule) (int64, error) {
	query := `
		INSERT INTO schedules (user_id, item_id, original_title, original_description,
			frequency_interval, frequency_unit, variate_description, max_publications,
			is_active, next_publish_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.ItemID, s.OriginalTitle, s.OriginalDescription,
		s.Frequency.Interval, s.Frequency.Unit, s.VariateDescription, s.MaxPublications,
		s.IsActive, s.NextPublishAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	s, err := scanSchedule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return s, nil
}

func (r *scheduleRepository) ListByUserID(ctx context.Context, userID int64, isActive *bool) ([]*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1`
	args := []any{userID}
	if isActive != nil {
		query += ` AND is_active = $2`
		args = append(args, *isActive)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func (r *scheduleRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE is_active = true AND next_publish_at <= $1
		ORDER BY next_publish_at`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func (r *scheduleRepository) Update(ctx context.Context, s *models.Schedule) error {
	query := `
		UPDATE schedules
		SET frequency_interval = $1,
			frequency_unit = $2,
			variate_description = $3,
			max_publications = $4,
			is_active = $5,
			next_publish_at = $6,
			updated_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		s.Frequency.Interval, s.Frequency.Unit, s.VariateDescription, s.MaxPublications,
		s.IsActive, s.NextPublishAt, time.Now(), s.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Advance marks a processing attempt: last_published_at moves to now and
// next_publish_at moves one frequency interval forward. It runs after every
// attempt so a broken schedule is not re-selected on the next trigger tick.
func (r *scheduleRepository) Advance(ctx context.Context, id int64, frequency models.Frequency) error {
	now := time.Now()
	query := `
		UPDATE schedules
		SET last_published_at = $1,
			next_publish_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, now, frequency.NextFrom(now), now, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE schedules SET is_active = false, updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM schedules WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSchedule reassembles the flat frequency columns into the structured
// Frequency value; the flat shape never leaves this package.
func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var s models.Schedule
	err := row.Scan(
		&s.ID, &s.UserID, &s.ItemID, &s.OriginalTitle, &s.OriginalDescription,
		&s.Frequency.Interval, &s.Frequency.Unit, &s.VariateDescription, &s.MaxPublications,
		&s.IsActive, &s.LastPublishedAt, &s.NextPublishAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Frequency.Unit == "" {
		s.Frequency.Unit = models.FrequencyUnitHours
	}
	return &s, nil
}

func collectSchedules(rows *sql.Rows) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
