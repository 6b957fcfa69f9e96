package models

import "time"

// Session is the per-browser state kept server-side: at most one signed-in
// email and at most one active project pointer. It is created per request by
// the HTTP layer and handed to services explicitly.
type Session struct {
	ID              string
	Email           string
	ActiveProjectID *int64
	ExpiresAt       time.Time

	changed bool
	cleared bool
}

// Authenticated reports whether an email is bound to the session.
func (s *Session) Authenticated() bool {
	return s != nil && s.Email != ""
}

// SignIn binds email to the session.
func (s *Session) SignIn(email string) {
	s.Email = email
	s.changed = true
}

// SetActiveProject pins the project used as default scope.
func (s *Session) SetActiveProject(id int64) {
	if s.ActiveProjectID != nil && *s.ActiveProjectID == id {
		return
	}
	s.ActiveProjectID = &id
	s.changed = true
}

// Rotate moves the session to a fresh id, keeping its values.
func (s *Session) Rotate(id string) {
	s.ID = id
	s.changed = true
}

// Clear drops every value held by the session.
func (s *Session) Clear() {
	s.Email = ""
	s.ActiveProjectID = nil
	s.changed = true
	s.cleared = true
}

// Changed reports whether the session was mutated since it was loaded.
func (s *Session) Changed() bool { return s.changed }

// Cleared reports whether Clear was called.
func (s *Session) Cleared() bool { return s.cleared }

// MarkPersisted resets change tracking after the session was stored.
func (s *Session) MarkPersisted() {
	s.changed = false
	s.cleared = false
}
