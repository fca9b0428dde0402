package model

import "time"

// Role is the authorization level of an AppUser.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AppUser is a registered user of the timesheet.
type AppUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u AppUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Settings holds application-wide switches.
type Settings struct {
	AllowUserEdits bool      `json:"allowUserEdits"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
	UpdatedBy      string    `json:"updatedBy,omitempty"`
}

// DefaultSettings is what an unconfigured installation behaves like.
func DefaultSettings() Settings {
	return Settings{AllowUserEdits: true}
}
