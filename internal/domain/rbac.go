package domain

import "github.com/google/uuid"

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// Actor is the authenticated caller. Its role is trusted as issued by auth.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID == userID
}

type EnforceRequest struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
