package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mchavez27/melipanel/internal/models"
)

type HistoryRepository interface {
	Create(ctx context.Context, h *models.PublicationHistory) (int64, error)
	ListByScheduleID(ctx context.Context, scheduleID int64, limit, offset int) ([]*models.PublicationHistory, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.PublicationHistory, error)
	CountByScheduleID(ctx context.Context, scheduleID int64) (int64, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, h *models.PublicationHistory) (int64, error) {
	query := `
		INSERT INTO publication_history (schedule_id, user_id, item_id, published_title,
			published_description, new_listing_id, status, error_message, generated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		h.ScheduleID, h.UserID, h.ItemID, h.PublishedTitle,
		h.PublishedDescription, h.NewListingID, h.Status, h.ErrorMessage,
		h.GeneratedAt, h.PublishedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *historyRepository) ListByScheduleID(ctx context.Context, scheduleID int64, limit, offset int) ([]*models.PublicationHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, schedule_id, user_id, item_id, published_title, published_description,
			new_listing_id, status, error_message, generated_at, published_at
		FROM publication_history
		WHERE schedule_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, scheduleID, limit, offset)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectHistory(rows)
}

func (r *historyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.PublicationHistory, error) {
	query := `
		SELECT id, schedule_id, user_id, item_id, published_title, published_description,
			new_listing_id, status, error_message, generated_at, published_at
		FROM publication_history
		WHERE user_id = $1
		ORDER BY generated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectHistory(rows)
}

func (r *historyRepository) CountByScheduleID(ctx context.Context, scheduleID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM publication_history WHERE schedule_id = $1 AND status = $2`

	var count int64
	err := r.db.QueryRowContext(ctx, query, scheduleID, models.HistoryStatusSuccess).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func collectHistory(rows *sql.Rows) ([]*models.PublicationHistory, error) {
	var entries []*models.PublicationHistory
	for rows.Next() {
		var h models.PublicationHistory
		err := rows.Scan(
			&h.ID, &h.ScheduleID, &h.UserID, &h.ItemID, &h.PublishedTitle,
			&h.PublishedDescription, &h.NewListingID, &h.Status, &h.ErrorMessage,
			&h.GeneratedAt, &h.PublishedAt,
		)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
