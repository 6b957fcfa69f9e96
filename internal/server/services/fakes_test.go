package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/dbx"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/repositories/projects"
	"github.com/projecthub/projecthub/internal/server/repositories/sessions"
	"github.com/projecthub/projecthub/internal/server/repositories/tasks"
	"github.com/projecthub/projecthub/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore is an in-memory stand-in for the database shared by every fake
// repository. errs injects failures keyed by "repo.Method".
type memStore struct {
	nextID   int64
	users    map[string]*models.User
	projects map[int64]*models.Project
	tasks    map[int64]*models.TaskItem
	sessions map[string]models.Session
	errs     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		projects: map[int64]*models.Project{},
		tasks:    map[int64]*models.TaskItem{},
		sessions: map[string]models.Session{},
		errs:     map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Members = append([]models.Member(nil), p.Members...)
	return &c
}

func (m *memStore) addUser(email, name string) *models.User {
	u := &models.User{ID: m.id(), Email: email, UserName: name}
	m.users[email] = u
	return u
}

func (m *memStore) addProject(name, owner string, updated time.Time, members ...string) *models.Project {
	p := &models.Project{ID: m.id(), Name: name, Type: "General", Owner: owner, CreatedAt: updated, UpdatedAt: updated}
	for _, email := range members {
		u, ok := m.users[email]
		if !ok {
			u = m.addUser(email, "")
		}
		p.Members = append(p.Members, models.Member{UserID: u.ID, Email: email})
	}
	m.projects[p.ID] = p
	return cloneProject(p)
}

func (m *memStore) sortedProjects(keep func(*models.Project) bool) []*models.Project {
	var out []*models.Project
	for _, p := range m.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := r.s.errs["users.Create"]; err != nil {
		return nil, err
	}
	if _, ok := r.s.users[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	c := *u
	c.ID = r.s.id()
	r.s.users[c.Email] = &c
	out := c
	return &out, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := r.s.errs["users.GetByEmail"]; err != nil {
		return nil, err
	}
	u, ok := r.s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := r.s.errs["users.ExistsByEmail"]; err != nil {
		return false, err
	}
	_, ok := r.s.users[email]
	return ok, nil
}

func (r *memUsers) UpdateUserName(ctx context.Context, id int64, email, userName string, updatedAt time.Time) error {
	if err := r.s.errs["users.UpdateUserName"]; err != nil {
		return err
	}
	u, ok := r.s.users[email]
	if !ok || u.ID != id {
		return common.ErrorNotFound
	}
	u.UserName = userName
	u.UpdatedAt = updatedAt
	return nil
}

// --- projects ---

type memProjects struct{ s *memStore }

func (r *memProjects) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := r.s.errs["projects.Create"]; err != nil {
		return nil, err
	}
	c := cloneProject(p)
	c.ID = r.s.id()
	r.s.projects[c.ID] = c
	return cloneProject(c), nil
}

func (r *memProjects) first(keep func(*models.Project) bool) (*models.Project, error) {
	list := r.s.sortedProjects(keep)
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return cloneProject(list[0]), nil
}

func (r *memProjects) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	if err := r.s.errs["projects.GetByID"]; err != nil {
		return nil, err
	}
	return r.first(func(p *models.Project) bool { return p.ID == id })
}

func (r *memProjects) GetByEntryToken(ctx context.Context, token string) (*models.Project, error) {
	return r.first(func(p *models.Project) bool { return p.EntryToken != nil && *p.EntryToken == token })
}

func (r *memProjects) FindFirstOwnedBy(ctx context.Context, email string) (*models.Project, error) {
	return r.first(func(p *models.Project) bool { return p.Owner == email })
}

func (r *memProjects) FindFirstMemberOf(ctx context.Context, email string) (*models.Project, error) {
	return r.first(func(p *models.Project) bool { return p.HasMember(email) })
}

func (r *memProjects) list(keep func(*models.Project) bool) []*models.Project {
	var out []*models.Project
	for _, p := range r.s.sortedProjects(keep) {
		c := cloneProject(p)
		c.Members = nil
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (r *memProjects) ListOwnedBy(ctx context.Context, email string) ([]*models.Project, error) {
	return r.list(func(p *models.Project) bool { return p.Owner == email }), nil
}

func (r *memProjects) ListMemberOf(ctx context.Context, email string) ([]*models.Project, error) {
	return r.list(func(p *models.Project) bool { return p.HasMember(email) }), nil
}

func (r *memProjects) ListMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	p, ok := r.s.projects[projectID]
	if !ok {
		return nil, nil
	}
	return append([]models.Member(nil), p.Members...), nil
}

func (r *memProjects) AddMember(ctx context.Context, projectID, userID int64) error {
	if err := r.s.errs["projects.AddMember"]; err != nil {
		return err
	}
	p, ok := r.s.projects[projectID]
	if !ok {
		return errBoom{}
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return common.ErrAlreadyMember
		}
	}
	for _, u := range r.s.users {
		if u.ID == userID {
			p.Members = append(p.Members, models.Member{UserID: userID, Email: u.Email})
			return nil
		}
	}
	return errBoom{}
}

func (r *memProjects) Touch(ctx context.Context, projectID int64, updatedAt time.Time) error {
	p, ok := r.s.projects[projectID]
	if !ok {
		return common.ErrorNotFound
	}
	p.UpdatedAt = updatedAt
	return nil
}

func (r *memProjects) SetEntryToken(ctx context.Context, projectID int64, token string) error {
	if err := r.s.errs["projects.SetEntryToken"]; err != nil {
		return err
	}
	p, ok := r.s.projects[projectID]
	if !ok {
		return common.ErrorNotFound
	}
	p.EntryToken = &token
	return nil
}

// --- tasks ---

type memTasks struct{ s *memStore }

func cloneTask(t *models.TaskItem) *models.TaskItem {
	c := *t
	c.Assignees = append([]string{}, t.Assignees...)
	return &c
}

func (r *memTasks) ListByProject(ctx context.Context, projectID int64) ([]*models.TaskItem, error) {
	out := []*models.TaskItem{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTasks) Get(ctx context.Context, projectID, taskID int64) (*models.TaskItem, error) {
	t, ok := r.s.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	return cloneTask(t), nil
}

func (r *memTasks) Create(ctx context.Context, t *models.TaskItem) (*models.TaskItem, error) {
	if err := r.s.errs["tasks.Create"]; err != nil {
		return nil, err
	}
	c := cloneTask(t)
	c.ID = r.s.id()
	r.s.tasks[c.ID] = c
	return cloneTask(c), nil
}

func (r *memTasks) Update(ctx context.Context, t *models.TaskItem) error {
	if err := r.s.errs["tasks.Update"]; err != nil {
		return err
	}
	cur, ok := r.s.tasks[t.ID]
	if !ok || cur.ProjectID != t.ProjectID {
		return common.ErrorNotFound
	}
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *memTasks) Delete(ctx context.Context, projectID, taskID int64) error {
	t, ok := r.s.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return common.ErrorNotFound
	}
	delete(r.s.tasks, taskID)
	return nil
}

// --- sessions ---

type memSessions struct{ s *memStore }

func (r *memSessions) Save(ctx context.Context, sess *models.Session) error {
	if err := r.s.errs["sessions.Save"]; err != nil {
		return err
	}
	r.s.sessions[sess.ID] = models.Session{
		ID: sess.ID, Email: sess.Email, ActiveProjectID: sess.ActiveProjectID, ExpiresAt: sess.ExpiresAt,
	}
	return nil
}

func (r *memSessions) Find(ctx context.Context, id string) (*models.Session, error) {
	if err := r.s.errs["sessions.Find"]; err != nil {
		return nil, err
	}
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sess, nil
}

func (r *memSessions) Delete(ctx context.Context, id string) error {
	delete(r.s.sessions, id)
	return nil
}

func (r *memSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- manager ---

type memManager struct{ s *memStore }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *memManager) Users(dbx.DBTX) users.Repository {
	return &memUsers{m.s}
}

func (m *memManager) Projects(dbx.DBTX) projects.Repository {
	return &memProjects{m.s}
}

func (m *memManager) Tasks(dbx.DBTX) tasks.Repository {
	return &memTasks{m.s}
}

func (m *memManager) Sessions(dbx.DBTX) sessions.Repository {
	return &memSessions{m.s}
}
