package httpapi

import (
	"net/http"

	"github.com/projecthub/projecthub/internal/server/services"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, loginFormDTO{Email: sess.Email, Authenticated: sess.Authenticated()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	if err := s.auth.Login(r.Context(), sess, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Rotate(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}

	redirect(w, viewCreateOrJoin, "", "")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err := s.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		UserName: req.UserName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	redirect(w, viewLogin, "", "Registration successful. Please log in.")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context(), sessionFrom(r))
	redirect(w, viewLogin, "", "")
}
