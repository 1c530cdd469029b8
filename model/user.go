// model/user.go
package model

import "github.com/google/uuid"

type UserRole string

const (
	RolePatron    UserRole = "PATRON"
	RoleLibrarian UserRole = "LIBRARIAN"
)

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// User is a read-only view of the user directory. Accounts, credentials
// and sessions are managed by the surrounding system.
type User struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Surname  string     `json:"surname"`
	Role     UserRole   `json:"role"`
	Status   UserStatus `json:"status"`
}
