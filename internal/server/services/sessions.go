package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/server/auth"
	"github.com/projecthub/projecthub/internal/server/config"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/repositories/repomanager"
)

const sessionIDSize = 32

// SessionService stores browser sessions server-side and mints the signed
// cookie value that points at them.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	validity    time.Duration
	now         func() time.Time
}

// NewSessionService signs cookies with cfg.SecretKey and keeps sessions for
// cfg.SessionValidityDuration.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		validity:    cfg.SessionValidityDuration,
		now:         time.Now,
	}
}

// New returns an anonymous session that is not stored until it changes.
func (s *SessionService) New() (*models.Session, error) {
	id, err := common.MakeRandHexString(sessionIDSize)
	if err != nil {
		return nil, err
	}
	return &models.Session{ID: id, ExpiresAt: s.now().Add(s.validity)}, nil
}

// Load resolves the cookie value into a session. Missing, forged, unknown
// and expired cookies all produce a fresh anonymous session.
func (s *SessionService) Load(ctx context.Context, cookieValue string) (*models.Session, error) {
	if cookieValue == "" {
		return s.New()
	}

	id, err := auth.GetSessionIDFromToken(cookieValue, s.jwtSecret)
	if err != nil {
		return s.New()
	}

	repo := s.repomanager.Sessions(s.db)
	sess, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.New()
		}
		return nil, err
	}

	if sess.ExpiresAt.Before(s.now()) {
		if err := repo.Delete(ctx, id); err != nil {
			return nil, err
		}
		return s.New()
	}
	return sess, nil
}

// Save stores sess with a renewed expiry and returns the cookie value for it.
func (s *SessionService) Save(ctx context.Context, sess *models.Session) (string, error) {
	sess.ExpiresAt = s.now().Add(s.validity)
	if err := s.repomanager.Sessions(s.db).Save(ctx, sess); err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(sess.ID, s.jwtSecret, s.validity)
	if err != nil {
		return "", err
	}
	sess.MarkPersisted()
	return token, nil
}

// Destroy removes the stored session.
func (s *SessionService) Destroy(ctx context.Context, sess *models.Session) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sess.ID); err != nil {
		return err
	}
	sess.MarkPersisted()
	return nil
}

// Rotate moves sess to a new id and forgets the old one. Called on login.
func (s *SessionService) Rotate(ctx context.Context, sess *models.Session) error {
	id, err := common.MakeRandHexString(sessionIDSize)
	if err != nil {
		return err
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sess.ID); err != nil {
		return err
	}
	sess.Rotate(id)
	return nil
}

// PurgeExpired deletes every session past its expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}

// Validity is the lifetime granted to a session on every save.
func (s *SessionService) Validity() time.Duration {
	return s.validity
}
