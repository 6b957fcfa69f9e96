// Package projects declares persistence for projects and their member lists.
package projects

import (
	"context"
	"time"

	"github.com/projecthub/projecthub/internal/server/models"
)

// Repository persists projects. Single-project getters return the project
// with Members populated; list getters leave Members empty.
type Repository interface {
	// Create inserts project and fills its id and timestamps.
	Create(ctx context.Context, project *models.Project) (*models.Project, error)

	// GetByID returns common.ErrorNotFound when the id is unknown.
	GetByID(ctx context.Context, id int64) (*models.Project, error)

	// GetByEntryToken returns the first project (lowest id) carrying token,
	// or common.ErrorNotFound.
	GetByEntryToken(ctx context.Context, token string) (*models.Project, error)

	// FindFirstOwnedBy and FindFirstMemberOf return the lowest-id match or
	// common.ErrorNotFound.
	FindFirstOwnedBy(ctx context.Context, email string) (*models.Project, error)
	FindFirstMemberOf(ctx context.Context, email string) (*models.Project, error)

	// ListOwnedBy and ListMemberOf are ordered by updated_at, newest first.
	ListOwnedBy(ctx context.Context, email string) ([]*models.Project, error)
	ListMemberOf(ctx context.Context, email string) ([]*models.Project, error)

	ListMembers(ctx context.Context, projectID int64) ([]models.Member, error)

	// AddMember links userID to projectID. An existing link yields
	// common.ErrAlreadyMember.
	AddMember(ctx context.Context, projectID, userID int64) error

	// Touch bumps updated_at.
	Touch(ctx context.Context, projectID int64, updatedAt time.Time) error

	// SetEntryToken replaces the invite token. updated_at is left alone.
	SetEntryToken(ctx context.Context, projectID int64, token string) error
}
