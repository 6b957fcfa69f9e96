// Package sessions provides a PostgreSQL-backed store for browser sessions.
package sessions

import (
	"context"
	"time"

	"github.com/projecthub/projecthub/internal/server/models"
)

type Repository interface {
	// Save inserts the session or overwrites the stored values for its id.
	Save(ctx context.Context, s *models.Session) error
	// Find returns common.ErrorNotFound for unknown ids.
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions that expired before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
