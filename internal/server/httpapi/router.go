package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cors,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Route("/Home", func(r chi.Router) {
			r.Get("/Login", s.handleLoginForm)
			r.Post("/Login", s.handleLogin)
			r.Post("/Register", s.handleRegister)
			r.Post("/Logout", s.handleLogout)
		})

		r.Route("/Project", func(r chi.Router) {
			r.Get("/CreateOrJoin", s.handleCreateOrJoin)
			r.Post("/Create", s.handleCreateProject)
			r.Post("/JoinProject", s.handleJoinProject)
			r.Get("/OpenProject/{id:[0-9]+}", s.handleOpenProject)
			r.Get("/Dashboard", s.handleDashboard)
			r.Get("/AddPeople", s.handleAddPeople)
			r.Post("/GenerateToken", s.handleGenerateToken)
			r.Get("/Profile", s.handleProfile)
			r.Post("/UpdateProfile", s.handleUpdateProfile)
		})

		r.Route("/api/projects/{projectID:[0-9]+}/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Put("/{taskID:[0-9]+}", s.handleUpdateTask)
			r.Delete("/{taskID:[0-9]+}", s.handleDeleteTask)
		})
	})

	return r
}
