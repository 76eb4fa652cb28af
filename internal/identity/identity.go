// Package identity resolves token subjects to the users they name.
package identity

import (
	"context"

	"github.com/google/uuid"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
)

// ErrNotFound means the subject does not name a known user.
var ErrNotFound = apierrors.New(apierrors.KindNotFound, "User not found")

// Identity is the resolved view of a user used for authorization.
type Identity struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Active   bool        `json:"is_active"`
}

// Resolver maps a user id to its current identity.
type Resolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*Identity, error)
}

// FromUser builds an identity from a stored user.
func FromUser(u *models.User) *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}
