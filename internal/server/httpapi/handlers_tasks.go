package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/projecthub/projecthub/internal/common"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, common.ErrorNotFound)
	}
	return id, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.tasks.List(r.Context(), sessionFrom(r), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]taskDTO, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req taskRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.tasks.Create(r.Context(), sessionFrom(r), projectID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, t.ID))
	writeJSON(w, http.StatusCreated, toTaskDTO(t))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req taskRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.tasks.Update(r.Context(), sessionFrom(r), projectID, taskID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.tasks.Delete(r.Context(), sessionFrom(r), projectID, taskID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
