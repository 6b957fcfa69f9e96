package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/dbx"
	"github.com/projecthub/projecthub/internal/logging"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/repositories/repomanager"
	"github.com/projecthub/projecthub/internal/server/validation"
)

// Access classifies a user's relationship to a project.
type Access int

const (
	AccessNone Access = iota
	AccessMember
	AccessOwner
)

func (a Access) String() string {
	switch a {
	case AccessOwner:
		return "owner"
	case AccessMember:
		return "member"
	default:
		return "none"
	}
}

// CanRead reports whether a grants the project-scoped task operations.
func (a Access) CanRead() bool {
	return a == AccessOwner || a == AccessMember
}

// CheckAccess classifies email against p. Ownership is decided by the Owner
// field alone, membership by the Members list.
func CheckAccess(p *models.Project, email string) Access {
	switch {
	case p == nil || email == "":
		return AccessNone
	case p.Owner == email:
		return AccessOwner
	case p.HasMember(email):
		return AccessMember
	default:
		return AccessNone
	}
}

const (
	entryTokenLength = 6
	entryTokenMin    = 100000
	entryTokenMax    = 999999
)

// GenerateEntryToken returns a uniformly random decimal in [100000, 999999].
// The result never has a leading zero.
func GenerateEntryToken() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(entryTokenMax-entryTokenMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+entryTokenMin, 10), nil
}

// NormalizeEntryToken trims token and checks it is exactly six ASCII digits.
func NormalizeEntryToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if len(token) != entryTokenLength {
		return "", common.ErrInvalidTokenFormat
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return "", common.ErrInvalidTokenFormat
		}
	}
	return token, nil
}

// ProjectInput is the project creation form. Dates are optional.
type ProjectInput struct {
	Name        string
	Type        string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Overview is the project picker: what the user owns and what they joined.
type Overview struct {
	OwnedProjects  []*models.Project
	MemberProjects []*models.Project
	UserEmail      string
}

// Dashboard is the active project as seen by the signed-in user.
type Dashboard struct {
	Project          *models.Project
	IsOwner          bool
	CurrentUserEmail string
	CurrentUserName  string
}

// ProjectService owns projects, their members and invite tokens.
type ProjectService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	logger        logging.Logger
	now           func() time.Time
	generateToken func() (string, error)
}

// NewProjectService returns a ProjectService reading and writing through m.
func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *ProjectService {
	return &ProjectService{
		db:            db,
		repomanager:   m,
		logger:        l.With("module", "project_service"),
		now:           time.Now,
		generateToken: GenerateEntryToken,
	}
}

// CreateProject stores a project owned by the session's user and makes it
// the active project.
func (s *ProjectService) CreateProject(ctx context.Context, sess *models.Session, in ProjectInput) (*models.Project, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}
	if err := validation.Project(in.Name, in.Type, in.Description); err != nil {
		return nil, err
	}

	now := s.now()
	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Owner:       sess.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.logger.Error(ctx, "project insert failed", "error", err)
		return nil, common.ErrPersistence
	}

	sess.SetActiveProject(p.ID)
	return p, nil
}

// JoinByToken adds the session's user to the project carrying token and makes
// it the active project. The token format is checked before anything is read
// from the store.
func (s *ProjectService) JoinByToken(ctx context.Context, sess *models.Session, token string) (*models.Project, error) {
	token, err := NormalizeEntryToken(token)
	if err != nil {
		return nil, err
	}
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

	p, err := s.repomanager.Projects(s.db).GetByEntryToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, common.ErrorInternal
	}

	switch CheckAccess(p, user.Email) {
	case AccessOwner:
		return nil, common.ErrAlreadyOwner
	case AccessMember:
		return nil, common.ErrAlreadyMember
	}

	now := s.now()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)
		if err := repo.AddMember(ctx, p.ID, user.ID); err != nil {
			return err
		}
		return repo.Touch(ctx, p.ID, now)
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyMember) {
			return nil, err
		}
		s.logger.Error(ctx, "join failed", "project_id", p.ID, "error", err)
		return nil, common.ErrPersistence
	}

	p.Members = append(p.Members, models.Member{UserID: user.ID, Email: user.Email})
	p.UpdatedAt = now
	sess.SetActiveProject(p.ID)

	s.logger.Info(ctx, "user joined project", "email", user.Email, "project_id", p.ID)
	return p, nil
}

// GenerateToken replaces the invite token of projectID. Only the owner may do
// this; anyone else gets common.ErrForbidden and the token is left unchanged.
func (s *ProjectService) GenerateToken(ctx context.Context, email string, projectID int64) (string, error) {
	p, err := s.rotateToken(ctx, email, projectID)
	if err != nil {
		return "", err
	}
	return *p.EntryToken, nil
}

// RegenerateToken rotates the invite token of the session's active project.
func (s *ProjectService) RegenerateToken(ctx context.Context, sess *models.Session) (*models.Project, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}
	if sess.ActiveProjectID == nil {
		return nil, common.ErrorNotFound
	}
	return s.rotateToken(ctx, sess.Email, *sess.ActiveProjectID)
}

func (s *ProjectService) rotateToken(ctx context.Context, email string, projectID int64) (*models.Project, error) {
	repo := s.repomanager.Projects(s.db)

	p, err := repo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	if CheckAccess(p, email) != AccessOwner {
		return nil, common.ErrForbidden
	}

	token, err := s.generateToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := repo.SetEntryToken(ctx, p.ID, token); err != nil {
		s.logger.Error(ctx, "token update failed", "project_id", p.ID, "error", err)
		return nil, common.ErrPersistence
	}

	p.EntryToken = &token
	return p, nil
}

// AddPeople returns the active project for its owner so the current invite
// token can be shown.
func (s *ProjectService) AddPeople(ctx context.Context, sess *models.Session) (*models.Project, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}
	if sess.ActiveProjectID == nil {
		return nil, common.ErrorNotFound
	}

	p, err := s.repomanager.Projects(s.db).GetByID(ctx, *sess.ActiveProjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	if CheckAccess(p, sess.Email) != AccessOwner {
		return nil, common.ErrForbidden
	}
	return p, nil
}

// ResolveActiveProject walks the fallback chain: the session pointer, then
// the first project owned by email, then the first project email joined.
// The session pointer is accepted as long as the project exists; access is
// not re-checked on that branch. Returns common.ErrorNotFound when every
// branch comes up empty.
func (s *ProjectService) ResolveActiveProject(ctx context.Context, email string, sessionProjectID *int64) (*models.Project, error) {
	repo := s.repomanager.Projects(s.db)

	lookups := []func() (*models.Project, error){
		func() (*models.Project, error) {
			if sessionProjectID == nil {
				return nil, common.ErrorNotFound
			}
			return repo.GetByID(ctx, *sessionProjectID)
		},
		func() (*models.Project, error) { return repo.FindFirstOwnedBy(ctx, email) },
		func() (*models.Project, error) { return repo.FindFirstMemberOf(ctx, email) },
	}

	for _, lookup := range lookups {
		p, err := lookup()
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
	}
	return nil, common.ErrorNotFound
}

// OpenProject makes id the active project after checking the user may see it.
func (s *ProjectService) OpenProject(ctx context.Context, sess *models.Session, id int64) (*models.Project, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}

	p, err := s.repomanager.Projects(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	if !CheckAccess(p, sess.Email).CanRead() {
		return nil, common.ErrForbidden
	}

	sess.SetActiveProject(p.ID)
	return p, nil
}

// CreateOrJoin lists the user's owned and joined projects, newest first.
func (s *ProjectService) CreateOrJoin(ctx context.Context, sess *models.Session) (*Overview, error) {
	if !sess.Authenticated() {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Projects(s.db)

	owned, err := repo.ListOwnedBy(ctx, sess.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}
	joined, err := repo.ListMemberOf(ctx, sess.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	member := make([]*models.Project, 0, len(joined))
	for _, p := range joined {
		if p.Owner != sess.Email {
			member = append(member, p)
		}
	}

	for _, list := range [][]*models.Project{owned, member} {
		for _, p := range list {
			if p.Members, err = repo.ListMembers(ctx, p.ID); err != nil {
				return nil, common.ErrorInternal
			}
		}
	}

	if owned == nil {
		owned = []*models.Project{}
	}
	return &Overview{OwnedProjects: owned, MemberProjects: member, UserEmail: sess.Email}, nil
}

// Dashboard resolves the active project for the signed-in user and pins it
// in the session.
func (s *ProjectService) Dashboard(ctx context.Context, sess *models.Session) (*Dashboard, error) {
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

	p, err := s.ResolveActiveProject(ctx, sess.Email, sess.ActiveProjectID)
	if err != nil {
		return nil, err
	}
	sess.SetActiveProject(p.ID)

	return &Dashboard{
		Project:          p,
		IsOwner:          CheckAccess(p, sess.Email) == AccessOwner,
		CurrentUserEmail: sess.Email,
		CurrentUserName:  user.UserName,
	}, nil
}
