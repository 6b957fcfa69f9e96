package models

import "time"

// Project is a named workspace. Owner is the owner's email; the owner is
// never required to appear in Members.
type Project struct {
	ID          int64
	Name        string
	Type        string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Owner       string
	// EntryToken, when set, is exactly six ASCII digits.
	EntryToken *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Members    []Member
}

// Member is a user that joined a project by invite token.
type Member struct {
	UserID int64
	Email  string
}

// HasMember reports whether email is listed in Members.
func (p *Project) HasMember(email string) bool {
	for _, m := range p.Members {
		if m.Email == email {
			return true
		}
	}
	return false
}
