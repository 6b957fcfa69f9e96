package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/logging"
	"github.com/projecthub/projecthub/internal/server/config"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/services"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	register      func(services.RegisterInput) (*models.User, error)
	login         func(sess *models.Session, email, password string) error
	profile       func(sess *models.Session) (*models.User, error)
	updateProfile func(sess *models.Session, id int64, userName string) error
}

func (f *fakeAuth) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return f.register(in)
}

func (f *fakeAuth) Login(_ context.Context, sess *models.Session, email, password string) error {
	return f.login(sess, email, password)
}

func (f *fakeAuth) Logout(_ context.Context, sess *models.Session) { sess.Clear() }

func (f *fakeAuth) Profile(_ context.Context, sess *models.Session) (*models.User, error) {
	return f.profile(sess)
}

func (f *fakeAuth) UpdateProfile(_ context.Context, sess *models.Session, id int64, userName string) error {
	return f.updateProfile(sess, id, userName)
}

type fakeProjects struct {
	create       func(sess *models.Session, in services.ProjectInput) (*models.Project, error)
	join         func(sess *models.Session, token string) (*models.Project, error)
	regenerate   func(sess *models.Session) (*models.Project, error)
	addPeople    func(sess *models.Session) (*models.Project, error)
	open         func(sess *models.Session, id int64) (*models.Project, error)
	createOrJoin func(sess *models.Session) (*services.Overview, error)
	dashboard    func(sess *models.Session) (*services.Dashboard, error)
}

func (f *fakeProjects) CreateProject(_ context.Context, sess *models.Session, in services.ProjectInput) (*models.Project, error) {
	return f.create(sess, in)
}

func (f *fakeProjects) JoinByToken(_ context.Context, sess *models.Session, token string) (*models.Project, error) {
	return f.join(sess, token)
}

func (f *fakeProjects) RegenerateToken(_ context.Context, sess *models.Session) (*models.Project, error) {
	return f.regenerate(sess)
}

func (f *fakeProjects) AddPeople(_ context.Context, sess *models.Session) (*models.Project, error) {
	return f.addPeople(sess)
}

func (f *fakeProjects) OpenProject(_ context.Context, sess *models.Session, id int64) (*models.Project, error) {
	return f.open(sess, id)
}

func (f *fakeProjects) CreateOrJoin(_ context.Context, sess *models.Session) (*services.Overview, error) {
	return f.createOrJoin(sess)
}

func (f *fakeProjects) Dashboard(_ context.Context, sess *models.Session) (*services.Dashboard, error) {
	return f.dashboard(sess)
}

type fakeTasks struct {
	list   func(sess *models.Session, projectID int64) ([]*models.TaskItem, error)
	create func(sess *models.Session, projectID int64, in services.TaskInput) (*models.TaskItem, error)
	update func(sess *models.Session, projectID, taskID int64, in services.TaskInput) (*models.TaskItem, error)
	delete func(sess *models.Session, projectID, taskID int64) error
}

func (f *fakeTasks) List(_ context.Context, sess *models.Session, projectID int64) ([]*models.TaskItem, error) {
	return f.list(sess, projectID)
}

func (f *fakeTasks) Create(_ context.Context, sess *models.Session, projectID int64, in services.TaskInput) (*models.TaskItem, error) {
	return f.create(sess, projectID, in)
}

func (f *fakeTasks) Update(_ context.Context, sess *models.Session, projectID, taskID int64, in services.TaskInput) (*models.TaskItem, error) {
	return f.update(sess, projectID, taskID, in)
}

func (f *fakeTasks) Delete(_ context.Context, sess *models.Session, projectID, taskID int64) error {
	return f.delete(sess, projectID, taskID)
}

// memSessions keys sessions by cookie value; the cookie value is "tok-" + id.
type memSessions struct {
	mu      sync.Mutex
	byToken map[string]models.Session
	seq     int
	loadErr error
}

func newMemSessions() *memSessions {
	return &memSessions{byToken: map[string]models.Session{}}
}

func (m *memSessions) nextID() string {
	m.seq++
	return fmt.Sprintf("s%d", m.seq)
}

func (m *memSessions) Load(_ context.Context, cookieValue string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if s, ok := m.byToken[cookieValue]; ok {
		return &s, nil
	}
	return &models.Session{ID: m.nextID()}, nil
}

func (m *memSessions) Save(_ context.Context, sess *models.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess.MarkPersisted()
	token := "tok-" + sess.ID
	m.byToken[token] = *sess
	return token, nil
}

func (m *memSessions) Destroy(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, "tok-"+sess.ID)
	return nil
}

func (m *memSessions) Rotate(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, "tok-"+sess.ID)
	sess.Rotate(m.nextID())
	return nil
}

// seed stores a signed-in session and returns its cookie value.
func (m *memSessions) seed(email string, activeProject *int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	token := "tok-" + id
	m.byToken[token] = models.Session{ID: id, Email: email, ActiveProjectID: activeProject, ExpiresAt: time.Now().Add(time.Hour)}
	return token
}

func (m *memSessions) get(token string) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byToken[token]
	return s, ok
}

type harness struct {
	auth     *fakeAuth
	projects *fakeProjects
	tasks    *fakeTasks
	sessions *memSessions
	handler  http.Handler
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RateLimitEnabled = false
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithConfig(t, testConfig())
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		auth:     &fakeAuth{},
		projects: &fakeProjects{},
		tasks:    &fakeTasks{},
		sessions: newMemSessions(),
	}
	srv := NewServer(cfg, logging.Nop{}, h.auth, h.projects, h.tasks, h.sessions)
	h.handler = srv.Handler()
	return h
}

func (h *harness) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testConfig().CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testConfig().CookieName {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func requireAuthed(sess *models.Session) error {
	if !sess.Authenticated() {
		return common.ErrorUnauthorized
	}
	return nil
}

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }
