package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/server/services"
	"github.com/projecthub/projecthub/internal/server/validation"
)

// flash returns the message shown after a redirect caused by err.
func flash(err error) string {
	var verr *validation.Errors
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		return verr.Fields[0].Message
	}
	_, msg := statusFor(err)
	return msg
}

// redirectUnauthorized sends anonymous visitors to the login view. It reports
// whether a response was written.
func redirectUnauthorized(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, common.ErrorUnauthorized) {
		return false
	}
	redirect(w, viewLogin, msg, "")
	return true
}

func parseDateField(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := time.Parse(services.DateLayout, strings.TrimSpace(*v))
	if err != nil {
		return nil, validation.Field(field, "Use the YYYY-MM-DD format.")
	}
	return &t, nil
}

func (s *Server) handleCreateOrJoin(w http.ResponseWriter, r *http.Request) {
	ov, err := s.projects.CreateOrJoin(r.Context(), sessionFrom(r))
	if err != nil {
		if redirectUnauthorized(w, err, "") {
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overviewDTO{
		OwnedProjects:  toProjectDTOs(ov.OwnedProjects),
		MemberProjects: toProjectDTOs(ov.MemberProjects),
		UserEmail:      ov.UserEmail,
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	start, err := parseDateField("startDate", req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := parseDateField("endDate", req.EndDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err = s.projects.CreateProject(r.Context(), sessionFrom(r), services.ProjectInput{
		Name:        req.ProjectName,
		Type:        req.ProjectType,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		if redirectUnauthorized(w, err, "You must be logged in to create a project.") {
			return
		}
		s.writeError(w, r, err)
		return
	}

	redirect(w, viewDashboard, "", "Project created successfully!")
}

func (s *Server) handleJoinProject(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.projects.JoinByToken(r.Context(), sessionFrom(r), req.Token)
	if err != nil {
		if redirectUnauthorized(w, err, "You must be logged in to join a project.") {
			return
		}
		if errors.Is(err, common.ErrInvalidTokenFormat) && strings.TrimSpace(req.Token) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Please enter a token."})
			return
		}
		s.writeError(w, r, err)
		return
	}

	redirect(w, viewDashboard, "", fmt.Sprintf("Successfully joined '%s'!", p.Name))
}

func (s *Server) handleOpenProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		redirect(w, viewCreateOrJoin, "Project not found.", "")
		return
	}

	_, err = s.projects.OpenProject(r.Context(), sessionFrom(r), id)
	switch {
	case err == nil:
		redirect(w, viewDashboard, "", "")
	case errors.Is(err, common.ErrorUnauthorized):
		redirect(w, viewLogin, "", "")
	case errors.Is(err, common.ErrorNotFound):
		redirect(w, viewCreateOrJoin, "Project not found.", "")
	case errors.Is(err, common.ErrForbidden):
		redirect(w, viewCreateOrJoin, "You don't have access to this project.", "")
	default:
		s.writeError(w, r, err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.projects.Dashboard(r.Context(), sessionFrom(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dashboardDTO{
			Project:          toProjectDTO(d.Project),
			IsOwner:          d.IsOwner,
			CurrentUserEmail: d.CurrentUserEmail,
			CurrentUserName:  d.CurrentUserName,
		})
	case errors.Is(err, common.ErrorUnauthorized):
		redirect(w, viewLogin, "", "")
	case errors.Is(err, common.ErrorNotFound):
		redirect(w, viewCreateOrJoin, "No project found. Create or join a project to continue.", "")
	default:
		s.writeError(w, r, err)
	}
}

func (s *Server) handleAddPeople(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.AddPeople(r.Context(), sessionFrom(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, inviteDTO{Project: toProjectDTO(p), GeneratedToken: p.EntryToken})
	case errors.Is(err, common.ErrorUnauthorized):
		redirect(w, viewLogin, "", "")
	case errors.Is(err, common.ErrorNotFound):
		redirect(w, viewCreateOrJoin, "", "")
	case errors.Is(err, common.ErrForbidden):
		redirect(w, viewDashboard, "Only project owners can invite new members.", "")
	default:
		s.writeError(w, r, err)
	}
}

func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	p, err := s.projects.RegenerateToken(r.Context(), sess)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, inviteDTO{Project: toProjectDTO(p), GeneratedToken: p.EntryToken})
	case errors.Is(err, common.ErrorUnauthorized):
		redirect(w, viewLogin, "", "")
	case errors.Is(err, common.ErrorNotFound) && sess.ActiveProjectID == nil:
		redirect(w, viewCreateOrJoin, "", "")
	case errors.Is(err, common.ErrorNotFound):
		redirect(w, viewDashboard, "", "")
	case errors.Is(err, common.ErrForbidden):
		redirect(w, viewDashboard, "Only project owners can generate invite codes.", "")
	default:
		s.writeError(w, r, err)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Profile(r.Context(), sessionFrom(r))
	if err != nil {
		if redirectUnauthorized(w, err, "") {
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.auth.UpdateProfile(r.Context(), sessionFrom(r), req.ID, req.UserName)
	switch {
	case err == nil:
		redirect(w, viewProfile, "", "Profile updated successfully.")
	case errors.Is(err, common.ErrorUnauthorized):
		redirect(w, viewLogin, "", "")
	case errors.Is(err, common.ErrorNotFound):
		redirect(w, viewProfile, "Unable to load your profile.", "")
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrPersistence):
		redirect(w, viewProfile, flash(err), "")
	default:
		s.writeError(w, r, err)
	}
}
