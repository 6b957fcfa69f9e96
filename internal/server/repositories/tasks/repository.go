// Package tasks declares persistence for project-scoped task items.
package tasks

import (
	"context"

	"github.com/projecthub/projecthub/internal/server/models"
)

// Repository persists task items. Every lookup is scoped by project id, so a
// task belonging to another project reads as common.ErrorNotFound.
type Repository interface {
	// ListByProject returns tasks ordered by id ascending.
	ListByProject(ctx context.Context, projectID int64) ([]*models.TaskItem, error)
	Get(ctx context.Context, projectID, taskID int64) (*models.TaskItem, error)
	Create(ctx context.Context, task *models.TaskItem) (*models.TaskItem, error)
	// Update replaces every mutable field of task.
	Update(ctx context.Context, task *models.TaskItem) error
	Delete(ctx context.Context, projectID, taskID int64) error
}
