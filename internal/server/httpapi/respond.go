package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/server/validation"
)

const maxBodyBytes = 1 << 20

const (
	viewLogin        = "/Home/Login"
	viewCreateOrJoin = "/Project/CreateOrJoin"
	viewDashboard    = "/Project/Dashboard"
	viewProfile      = "/Project/Profile"
)

type errorBody struct {
	Error  string                  `json:"error,omitempty"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

type redirectBody struct {
	Redirect string `json:"redirect"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// redirect sends the client to another view. errMsg and message play the
// role of one-shot flash messages.
func redirect(w http.ResponseWriter, to, errMsg, message string) {
	w.Header().Set("Location", to)
	writeJSON(w, http.StatusSeeOther, redirectBody{Redirect: to, Error: errMsg, Message: message})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.Field("", "request body must not be empty")
		}
		return validation.Field("", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

// statusFor maps a service error onto an HTTP status and a user-facing
// message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidTokenFormat):
		return http.StatusBadRequest, "Token must be exactly 6 digits."
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "You must be logged in."
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "You don't have access to this project."
	case errors.Is(err, common.ErrTokenNotFound):
		return http.StatusNotFound, "Invalid token. No project found with this token."
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, common.ErrAlreadyOwner):
		return http.StatusConflict, "You are already the owner of this project."
	case errors.Is(err, common.ErrAlreadyMember):
		return http.StatusConflict, "You are already a member of this project."
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "Conflict."
	case errors.Is(err, common.ErrPersistence):
		return http.StatusServiceUnavailable, "An error occurred while saving your changes. Please try again."
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Errors
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{Errors: verr.Fields})
		return
	}

	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
		)
	}
	writeJSON(w, status, errorBody{Error: msg})
}
