package models

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	UserName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
