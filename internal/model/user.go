package model

import "time"

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleStudent

// User represents an account in the system
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection of a User that is safe to send to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// LoginPath is the entry point unauthenticated users are sent to.
const LoginPath = "/"

var dashboardPaths = map[string]string{
	RoleStudent: "/dashboard/student",
	RoleMentor:  "/dashboard/mentor",
	RoleAdmin:   "/dashboard/admin",
}

// DashboardPath returns the role-scoped view for role. Unknown roles get
// LoginPath and false.
func DashboardPath(role string) (string, bool) {
	if p, ok := dashboardPaths[role]; ok {
		return p, true
	}
	return LoginPath, false
}
