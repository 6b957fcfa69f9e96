package projects

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

const projectColumns = `p.id, p.project_name, p.project_type, p.description, p.start_date, p.end_date,
		 p.owner, p.entry_token, p.created_at, p.updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.Project, error) {
	var (
		p           models.Project
		description sql.NullString
		token       sql.NullString
		start       sql.NullTime
		end         sql.NullTime
	)

	err := s.Scan(&p.ID, &p.Name, &p.Type, &description, &start, &end,
		&p.Owner, &token, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = &description.String
	}
	if token.Valid {
		p.EntryToken = &token.String
	}
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return &p, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func (r *PostgresRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	query :=
		`INSERT INTO projects (project_name, project_type, description, start_date, end_date, owner, entry_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		project.Name, project.Type, nullable(project.Description), nullable(project.StartDate),
		nullable(project.EndDate), project.Owner, nullable(project.EntryToken),
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return project, nil
}

// getOne runs a query that yields at most one project row and attaches its
// members.
func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	members, err := r.ListMembers(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Members = members
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 WHERE p.id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEntryToken(ctx context.Context, token string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 WHERE p.entry_token = $1
		 ORDER BY p.id
		 LIMIT 1
		 `
	return r.getOne(ctx, query, token)
}

func (r *PostgresRepository) FindFirstOwnedBy(ctx context.Context, email string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 WHERE p.owner = $1
		 ORDER BY p.id
		 LIMIT 1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) FindFirstMemberOf(ctx context.Context, email string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 JOIN users u ON u.id = pm.user_id
		 WHERE u.email = $1
		 ORDER BY p.id
		 LIMIT 1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListOwnedBy(ctx context.Context, email string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 WHERE p.owner = $1
		 ORDER BY p.updated_at DESC, p.id
		 `
	return r.list(ctx, query, email)
}

func (r *PostgresRepository) ListMemberOf(ctx context.Context, email string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + `
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 JOIN users u ON u.id = pm.user_id
		 WHERE u.email = $1
		 ORDER BY p.updated_at DESC, p.id
		 `
	return r.list(ctx, query, email)
}

func (r *PostgresRepository) ListMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	query :=
		`SELECT pm.user_id, u.email
		 FROM project_members pm
		 JOIN users u ON u.id = pm.user_id
		 WHERE pm.project_id = $1
		 ORDER BY pm.user_id
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return members, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	query := `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyMember
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, projectID int64, updatedAt time.Time) error {
	return r.exec(ctx, `UPDATE projects SET updated_at = $2 WHERE id = $1`, projectID, updatedAt)
}

func (r *PostgresRepository) SetEntryToken(ctx context.Context, projectID int64, token string) error {
	return r.exec(ctx, `UPDATE projects SET entry_token = $2 WHERE id = $1`, projectID, token)
}
