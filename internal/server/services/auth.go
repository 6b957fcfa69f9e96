// Package services contains server-side business logic. Every operation
// receives the request's session explicitly and reaches storage through a
// repomanager.RepositoryManager bound to the pool or to a transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/logging"
	"github.com/projecthub/projecthub/internal/server/auth"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/repositories/repomanager"
	"github.com/projecthub/projecthub/internal/server/validation"
)

// RegisterInput is the account creation form.
type RegisterInput struct {
	Email    string
	Password string
	UserName string
}

// AuthService handles registration, login, logout and the signed-in user's
// profile.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	logger      logging.Logger
	now         func() time.Time
}

// NewAuthService returns an AuthService storing users through m.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, l logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      h,
		logger:      l.With("module", "auth_service"),
		now:         time.Now,
	}
}

// Register creates a user with a hashed password. An email that is already
// taken yields common.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Credentials(in.Email, in.Password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if exists {
		return nil, common.ErrDuplicateEmail
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		UserName:     strings.TrimSpace(in.UserName),
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		s.logger.Error(ctx, "user insert failed", "error", err)
		return nil, common.ErrPersistence
	}

	s.logger.Info(ctx, "user registered", "email", user.Email)
	return user, nil
}

// Login verifies the credentials and binds the email to sess. Only blank
// fields are a validation error; unknown emails and wrong passwords, however
// short, both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, sess *models.Session, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validation.Login(email, password); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "login rejected", "email", email)
			return common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.hasher.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info(ctx, "login rejected", "email", email)
		return common.ErrInvalidCredentials
	}

	sess.SignIn(user.Email)
	s.logger.Info(ctx, "user logged in", "email", user.Email)
	return nil
}

// Logout drops everything held by sess.
func (s *AuthService) Logout(ctx context.Context, sess *models.Session) {
	if sess.Authenticated() {
		s.logger.Info(ctx, "user logged out", "email", sess.Email)
	}
	sess.Clear()
}

// currentUser resolves the session's user. A session whose user no longer
// exists is treated as signed out.
func (s *AuthService) currentUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, sess.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Profile returns the signed-in user.
func (s *AuthService) Profile(ctx context.Context, sess *models.Session) (*models.User, error) {
	return s.currentUser(ctx, sess)
}

// UpdateProfile renames the signed-in user. id must belong to the session's
// user, otherwise common.ErrorNotFound is returned.
func (s *AuthService) UpdateProfile(ctx context.Context, sess *models.Session, id int64, userName string) error {
	if !sess.Authenticated() {
		return common.ErrorUnauthorized
	}

	userName = strings.TrimSpace(userName)
	if userName == "" {
		return validation.Field("userName", "Username cannot be empty.")
	}

	err := s.repomanager.Users(s.db).UpdateUserName(ctx, id, sess.Email, userName, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.logger.Error(ctx, "profile update failed", "error", err)
		return common.ErrPersistence
	}
	return nil
}
