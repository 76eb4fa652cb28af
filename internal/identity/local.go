package identity

import (
	"context"

	"github.com/google/uuid"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/repository"
)

// LocalResolver reads identities from this instance's users table.
type LocalResolver struct {
	users repository.UserRepository
}

func NewLocalResolver(users repository.UserRepository) *LocalResolver {
	return &LocalResolver{users: users}
}

func (r *LocalResolver) Resolve(ctx context.Context, id uuid.UUID) (*Identity, error) {
	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, apierrors.Wrap(apierrors.KindUpstream, "Identity store unavailable", err)
	}
	return FromUser(user), nil
}
