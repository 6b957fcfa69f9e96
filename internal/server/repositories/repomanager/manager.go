package repomanager

import (
	"context"
	"database/sql"

	"github.com/projecthub/projecthub/internal/dbx"
	"github.com/projecthub/projecthub/internal/server/repositories/projects"
	"github.com/projecthub/projecthub/internal/server/repositories/sessions"
	"github.com/projecthub/projecthub/internal/server/repositories/tasks"
	"github.com/projecthub/projecthub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services can compose several stores atomically.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
