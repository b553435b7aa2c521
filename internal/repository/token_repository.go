package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/mchavez27/melipanel/internal/models"
)

// TokenRepository persists the single marketplace OAuth token. Two backends
// exist: a Postgres row for deployments and a JSON file for local runs.
type TokenRepository interface {
	Load(ctx context.Context) (*models.MeliToken, bool, error)
	Save(ctx context.Context, t *models.MeliToken) error
}

const meliTokenKey = "meli_oauth_token"

type tokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Load(ctx context.Context) (*models.MeliToken, bool, error) {
	query := `SELECT access_token, refresh_token, expires_in, scope, created_at FROM ml_tokens WHERE token_key = $1`
	row := r.db.QueryRowContext(ctx, query, meliTokenKey)

	var t models.MeliToken
	err := row.Scan(&t.AccessToken, &t.RefreshToken, &t.ExpiresIn, &t.Scope, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &t, true, nil
}

func (r *tokenRepository) Save(ctx context.Context, t *models.MeliToken) error {
	query := `
		INSERT INTO ml_tokens (token_key, access_token, refresh_token, expires_in, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_key) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_in = EXCLUDED.expires_in,
			scope = EXCLUDED.scope,
			created_at = EXCLUDED.created_at
	`
	_, err := r.db.ExecContext(ctx, query,
		meliTokenKey, t.AccessToken, t.RefreshToken, t.ExpiresIn, t.Scope, t.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type fileTokenRepository struct {
	path string
}

func NewFileTokenRepository(path string) TokenRepository {
	return &fileTokenRepository{path: path}
}

func (r *fileTokenRepository) Load(ctx context.Context) (*models.MeliToken, bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	var t models.MeliToken
	if err := json.Unmarshal(data, &t); err != nil {
		slog.Info(err.Error())
		return nil, false, err
	}

	return &t, true, nil
}

func (r *fileTokenRepository) Save(ctx context.Context, t *models.MeliToken) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := os.WriteFile(r.path, data, 0600); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
