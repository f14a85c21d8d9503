package models

// UserRole represents the roles offered by the role picker.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// Valid reports whether the role is one the system knows about.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// GuestName is recorded as the owner of orders placed without a session.
const GuestName = "訪客"

// User is the session identity carried in the access token. It is never persisted.
type User struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}
