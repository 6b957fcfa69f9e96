package httpapi

import (
	"time"

	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/projecthub/projecthub/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"userName"`
}

type projectRequest struct {
	ProjectName string  `json:"projectName"`
	ProjectType string  `json:"projectType"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

type joinRequest struct {
	Token string `json:"token"`
}

type updateProfileRequest struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

type taskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"dueDate"`
	Assignees   []string `json:"assignees"`
}

func (t taskRequest) input() services.TaskInput {
	return services.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Assignees:   t.Assignees,
	}
}

type taskDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     *string  `json:"dueDate"`
	Assignees   []string `json:"assignees"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(services.DateLayout)
	return &s
}

func toTaskDTO(t *models.TaskItem) taskDTO {
	assignees := t.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     formatDate(t.DueDate),
		Assignees:   assignees,
	}
}

type memberDTO struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type projectDTO struct {
	ID          int64       `json:"id"`
	ProjectName string      `json:"projectName"`
	ProjectType string      `json:"projectType"`
	Description *string     `json:"description"`
	StartDate   *string     `json:"startDate"`
	EndDate     *string     `json:"endDate"`
	Owner       string      `json:"owner"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Members     []memberDTO `json:"members"`
}

func toProjectDTO(p *models.Project) projectDTO {
	members := make([]memberDTO, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, memberDTO{ID: m.UserID, Email: m.Email})
	}
	return projectDTO{
		ID:          p.ID,
		ProjectName: p.Name,
		ProjectType: p.Type,
		Description: p.Description,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Owner:       p.Owner,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Members:     members,
	}
}

func toProjectDTOs(list []*models.Project) []projectDTO {
	out := make([]projectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectDTO(p))
	}
	return out
}

type overviewDTO struct {
	OwnedProjects  []projectDTO `json:"ownedProjects"`
	MemberProjects []projectDTO `json:"memberProjects"`
	UserEmail      string       `json:"userEmail"`
}

type dashboardDTO struct {
	Project          projectDTO `json:"project"`
	IsOwner          bool       `json:"isOwner"`
	CurrentUserEmail string     `json:"currentUserEmail"`
	CurrentUserName  string     `json:"currentUserName"`
}

type inviteDTO struct {
	Project        projectDTO `json:"project"`
	GeneratedToken *string    `json:"generatedToken"`
}

type userDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, UserName: u.UserName, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type loginFormDTO struct {
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}
