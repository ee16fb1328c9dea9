package models

import "time"

// Role is what a user may do.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCaseWorker Role = "case_worker"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCaseWorker
}

// User is a staff account. Case workers are users referenced by client cases.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin checks if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
