package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventreserve/internal/domain"
)

type refreshTokenRepository struct {
	DB *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) domain.RefreshTokenRepository {
	return &refreshTokenRepository{
		DB: db,
	}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token, userID string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.DB.ExecContext(ctx, query, token, userID, expiresAt)
	return err
}

func (r *refreshTokenRepository) Get(ctx context.Context, token string) (string, time.Time, error) {
	query := `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`
	var userID string
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, domain.ErrNotFound
		}
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	result, err := r.DB.ExecContext(ctx, query, token)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
