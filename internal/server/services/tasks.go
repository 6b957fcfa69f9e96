package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/logging"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/repositories/repomanager"
	"github.com/projecthub/projecthub/internal/server/validation"
)

// DateLayout is the wire format of task due dates and project dates.
const DateLayout = "2006-01-02"

// TaskInput is a full task representation; updates replace every field with
// the values given here.
type TaskInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *string
	Assignees   []string
}

// ParseDate reads a YYYY-MM-DD date. Blank or unparsable input yields nil
// with no error.
func ParseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

// TaskService manages tasks inside projects the caller can access.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewTaskService returns a TaskService reading and writing through m.
func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "task_service"),
	}
}

// authorize requires a signed-in owner or member of projectID.
func (s *TaskService) authorize(ctx context.Context, sess *models.Session, projectID int64) (*models.Project, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}

	p, err := s.repomanager.Projects(s.db).GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	if !CheckAccess(p, sess.Email).CanRead() {
		return nil, common.ErrForbidden
	}
	return p, nil
}

// List returns the project's tasks ordered by id.
func (s *TaskService) List(ctx context.Context, sess *models.Session, projectID int64) ([]*models.TaskItem, error) {
	if _, err := s.authorize(ctx, sess, projectID); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Tasks(s.db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Create validates in and stores it as a new task of projectID.
func (s *TaskService) Create(ctx context.Context, sess *models.Session, projectID int64, in TaskInput) (*models.TaskItem, error) {
	if _, err := s.authorize(ctx, sess, projectID); err != nil {
		return nil, err
	}
	if err := validation.Task(in.Title, in.Status, in.Priority); err != nil {
		return nil, err
	}

	task := &models.TaskItem{ProjectID: projectID}
	apply(task, in)

	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		s.logger.Error(ctx, "task insert failed", "project_id", projectID, "error", err)
		return nil, common.ErrPersistence
	}
	return created, nil
}

// Update replaces the task. Fields missing from in are reset, not kept.
func (s *TaskService) Update(ctx context.Context, sess *models.Session, projectID, taskID int64, in TaskInput) (*models.TaskItem, error) {
	if _, err := s.authorize(ctx, sess, projectID); err != nil {
		return nil, err
	}
	if err := validation.Task(in.Title, in.Status, in.Priority); err != nil {
		return nil, err
	}

	repo := s.repomanager.Tasks(s.db)

	task, err := repo.Get(ctx, projectID, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	apply(task, in)
	if err := repo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "task update failed", "task_id", taskID, "error", err)
		return nil, common.ErrPersistence
	}
	return task, nil
}

// Delete removes the task. A task outside projectID yields common.ErrorNotFound.
func (s *TaskService) Delete(ctx context.Context, sess *models.Session, projectID, taskID int64) error {
	if _, err := s.authorize(ctx, sess, projectID); err != nil {
		return err
	}

	if err := s.repomanager.Tasks(s.db).Delete(ctx, projectID, taskID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.logger.Error(ctx, "task delete failed", "task_id", taskID, "error", err)
		return common.ErrPersistence
	}
	return nil
}

func apply(task *models.TaskItem, in TaskInput) {
	task.Title = in.Title
	task.Description = in.Description
	task.Status = in.Status
	task.Priority = in.Priority
	task.DueDate = ParseDate(in.DueDate)
	task.Assignees = append([]string{}, in.Assignees...)
}
