package domain

import "time"

// Role is the permission tier attached to a user and embedded in their token.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// User models an account in the credential store.
// PasswordHash never leaves the process: it is excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public returns a copy of u with the password hash stripped.
func (u User) Public() *User {
	u.PasswordHash = ""
	return &u
}

// Identity is the authenticated principal decoded from a bearer token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// HasRole reports whether the identity holds any of the given roles.
func (id Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
