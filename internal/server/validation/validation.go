// Package validation checks user input at mutation entry points and reports
// problems as an ordered list of field/message pairs.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/projecthub/projecthub/internal/common"
)

const (
	MaxProjectNameLength        = 100
	MaxProjectTypeLength        = 50
	MaxProjectDescriptionLength = 500
	MinPasswordLength           = 6
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors in the order they were found. It matches
// common.ErrValidation under errors.Is.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) Is(target error) bool {
	return target == common.ErrValidation
}

// Err returns e as an error, or nil when nothing was collected.
func (e *Errors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Field returns a single-entry validation error.
func Field(field, message string) error {
	e := &Errors{}
	e.Add(field, message)
	return e
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// Project validates the user-supplied project fields.
func Project(name, projectType string, description *string) error {
	e := &Errors{}

	switch {
	case blank(name):
		e.Add("projectName", "Project name is required")
	case tooLong(name, MaxProjectNameLength):
		e.Add("projectName", "Project name cannot exceed 100 characters")
	}

	switch {
	case blank(projectType):
		e.Add("projectType", "Project type is required")
	case tooLong(projectType, MaxProjectTypeLength):
		e.Add("projectType", "Project type cannot exceed 50 characters")
	}

	if description != nil && tooLong(*description, MaxProjectDescriptionLength) {
		e.Add("description", "Description cannot exceed 500 characters")
	}

	return e.Err()
}

// Task validates the required task fields.
func Task(title, status, priority string) error {
	e := &Errors{}
	if blank(title) {
		e.Add("title", "Title is required")
	}
	if blank(status) {
		e.Add("status", "Status is required")
	}
	if blank(priority) {
		e.Add("priority", "Priority is required")
	}
	return e.Err()
}

// Email reports whether s is a bare, well-formed address.
func Email(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Credentials validates a registration form.
func Credentials(email, password string) error {
	e := &Errors{}

	switch {
	case blank(email):
		e.Add("email", "Email is required")
	case !Email(email):
		e.Add("email", "Enter a valid email")
	}

	switch {
	case password == "":
		e.Add("password", "Password is required")
	case utf8.RuneCountInString(password) < MinPasswordLength:
		e.Add("password", "Password must be at least 6 characters")
	}

	return e.Err()
}

// Login checks only that both login fields are present. Anything else is
// decided by comparing against the stored credentials.
func Login(email, password string) error {
	e := &Errors{}
	if blank(email) {
		e.Add("email", "Email is required")
	}
	if password == "" {
		e.Add("password", "Password is required")
	}
	return e.Err()
}
