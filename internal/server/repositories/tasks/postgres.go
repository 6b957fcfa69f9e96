package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/dbx"
	"github.com/projecthub/projecthub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.TaskItem, error) {
	var (
		t           models.TaskItem
		description sql.NullString
		due         sql.NullTime
		assignees   string
	)

	if err := s.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &t.Status, &t.Priority, &due, &assignees); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if due.Valid {
		t.DueDate = &due.Time
	}

	var err error
	if t.Assignees, err = decodeAssignees(assignees); err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeAssignees(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAssignees(s string) ([]string, error) {
	a := []string{}
	if s == "" {
		return a, nil
	}
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return nil, fmt.Errorf("decode assignees: %w", err)
	}
	return a, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.TaskItem, error) {
	query :=
		`SELECT id, project_id, title, description, status, priority, due_date, assignees
		 FROM task_items
		 WHERE project_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.TaskItem{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID, taskID int64) (*models.TaskItem, error) {
	query :=
		`SELECT id, project_id, title, description, status, priority, due_date, assignees
		 FROM task_items
		 WHERE id = $1 AND project_id = $2
		 `

	t, err := scanTask(r.db.QueryRowContext(ctx, query, taskID, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.TaskItem) (*models.TaskItem, error) {
	assignees, err := encodeAssignees(task.Assignees)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO task_items (project_id, title, description, status, priority, due_date, assignees)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err = r.db.QueryRowContext(ctx, query,
		task.ProjectID, task.Title, nullable(task.Description), task.Status, task.Priority,
		nullable(task.DueDate), assignees,
	).Scan(&task.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if task.Assignees == nil {
		task.Assignees = []string{}
	}
	return task, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.TaskItem) error {
	assignees, err := encodeAssignees(task.Assignees)
	if err != nil {
		return err
	}

	query :=
		`UPDATE task_items
		 SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, assignees = $8
		 WHERE id = $1 AND project_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Title, nullable(task.Description), task.Status, task.Priority,
		nullable(task.DueDate), assignees)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID, taskID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_items WHERE id = $1 AND project_id = $2`, taskID, projectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
