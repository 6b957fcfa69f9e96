// Package httpapi exposes the services over HTTP. MVC-style routes under
// /Home and /Project answer authorization failures with a 303 redirect whose
// JSON body names the target view; /api routes answer with status codes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/projecthub/projecthub/internal/logging"
	"github.com/projecthub/projecthub/internal/server/config"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/services"
)

// AuthService is the account side of the API.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, sess *models.Session, email, password string) error
	Logout(ctx context.Context, sess *models.Session)
	Profile(ctx context.Context, sess *models.Session) (*models.User, error)
	UpdateProfile(ctx context.Context, sess *models.Session, id int64, userName string) error
}

type ProjectService interface {
	CreateProject(ctx context.Context, sess *models.Session, in services.ProjectInput) (*models.Project, error)
	JoinByToken(ctx context.Context, sess *models.Session, token string) (*models.Project, error)
	RegenerateToken(ctx context.Context, sess *models.Session) (*models.Project, error)
	AddPeople(ctx context.Context, sess *models.Session) (*models.Project, error)
	OpenProject(ctx context.Context, sess *models.Session, id int64) (*models.Project, error)
	CreateOrJoin(ctx context.Context, sess *models.Session) (*services.Overview, error)
	Dashboard(ctx context.Context, sess *models.Session) (*services.Dashboard, error)
}

type TaskService interface {
	List(ctx context.Context, sess *models.Session, projectID int64) ([]*models.TaskItem, error)
	Create(ctx context.Context, sess *models.Session, projectID int64, in services.TaskInput) (*models.TaskItem, error)
	Update(ctx context.Context, sess *models.Session, projectID, taskID int64, in services.TaskInput) (*models.TaskItem, error)
	Delete(ctx context.Context, sess *models.Session, projectID, taskID int64) error
}

// SessionStore loads and persists the per-browser session behind the cookie.
type SessionStore interface {
	Load(ctx context.Context, cookieValue string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) (string, error)
	Destroy(ctx context.Context, sess *models.Session) error
	Rotate(ctx context.Context, sess *models.Session) error
}

// Server serves the ProjectHub HTTP API.
type Server struct {
	address  string
	logger   logging.Logger
	auth     AuthService
	projects ProjectService
	tasks    TaskService
	sessions SessionStore
	cookie   cookieSettings
	cors     []string
	limiter  *ipRateLimiter
}

// NewServer builds a Server from cfg. The rate limiter exists only when
// cfg.RateLimitEnabled is set.
func NewServer(cfg *config.Config, l logging.Logger, a AuthService, p ProjectService, t TaskService, s SessionStore) *Server {
	srv := &Server{
		address:  cfg.EndpointAddrHTTP,
		logger:   l.With("module", "http_server"),
		auth:     a,
		projects: p,
		tasks:    t,
		sessions: s,
		cookie: cookieSettings{
			name:   cfg.CookieName,
			secure: cfg.CookieSecure,
			maxAge: cfg.SessionValidityDuration,
		},
		cors: cfg.CORSOrigins,
	}
	if cfg.RateLimitEnabled {
		srv.limiter = newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return srv
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	if s.limiter != nil {
		go s.limiter.cleanup(ctx, time.Minute, 3*time.Minute)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
