package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/dbx"
	"github.com/projecthub/projecthub/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, email, active_project_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    active_project_id = EXCLUDED.active_project_id,
		    expires_at = EXCLUDED.expires_at
	`

	var email any
	if s.Email != "" {
		email = s.Email
	}
	var active any
	if s.ActiveProjectID != nil {
		active = *s.ActiveProjectID
	}

	if _, err := r.db.ExecContext(ctx, query, s.ID, email, active, s.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, email, active_project_id, expires_at
		FROM sessions
		WHERE id = $1
	`

	var (
		s      models.Session
		email  sql.NullString
		active sql.NullInt64
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &email, &active, &s.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.Email = email.String
	if active.Valid {
		s.ActiveProjectID = &active.Int64
	}
	return &s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
