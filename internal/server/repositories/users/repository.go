// Package users declares the credential store: persistence for User records.
package users

import (
	"context"
	"time"

	"github.com/projecthub/projecthub/internal/server/models"
)

// Repository persists users. Emails are unique.
type Repository interface {
	// Create inserts user and fills its id and timestamps. A duplicate email
	// yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns common.ErrorNotFound when no user has email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateUserName renames the user matching both id and email. No match
	// yields common.ErrorNotFound.
	UpdateUserName(ctx context.Context, id int64, email, userName string, updatedAt time.Time) error
}
