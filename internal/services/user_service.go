package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

var (
	ErrInvalidRole   = apierrors.New(apierrors.KindValidation, "Role must be one of ADMIN, TEAM_LEADER, MEMBER")
	ErrUserLeadsTeam = apierrors.New(apierrors.KindConflict, "User leads a team; assign a new leader or delete the team first")
)

// UserService manages user accounts on behalf of administrators.
type UserService struct {
	userRepo repository.UserRepository
	policy   authz.Policy
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, policy authz.Policy) *UserService {
	return &UserService{userRepo: userRepo, policy: policy}
}

// List returns a page of users. ADMIN only.
func (s *UserService) List(ctx context.Context, caller authz.Caller, params utils.PaginationParams) ([]models.User, int64, error) {
	if err := s.policy.RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apierrors.Internal(err)
	}
	return users, total, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	return user, nil
}

// ToggleActive flips the target's activation flag.
func (s *UserService) ToggleActive(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.Update(ctx, id, func(user *models.User) error {
		if err := s.policy.AdminAction(caller, user.Role, authz.AdminToggleActive); err != nil {
			return err
		}
		user.Active = !user.Active
		return nil
	})
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	logger.Info().
		Str("user_id", user.ID.String()).
		Bool("active", user.Active).
		Str("by", caller.ID.String()).
		Msg("user activation changed")
	return user, nil
}

// ChangeRole sets the target's role. The permission check runs before the
// requested role is validated. A sitting team leader keeps the TEAM_LEADER
// role until the team has a new leader.
func (s *UserService) ChangeRole(ctx context.Context, caller authz.Caller, id uuid.UUID, role string) (*models.User, error) {
	user, err := s.userRepo.Update(ctx, id, func(user *models.User) error {
		if err := s.policy.AdminAction(caller, user.Role, authz.AdminChangeRole); err != nil {
			return err
		}
		parsed, err := models.ParseRole(role)
		if err != nil {
			return ErrInvalidRole
		}
		user.Role = parsed
		return nil
	})
	if errors.Is(err, repository.ErrUserLeadsTeam) {
		return nil, ErrUserLeadsTeam
	}
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Str("by", caller.ID.String()).
		Msg("user role changed")
	return user, nil
}

// Delete removes the account along with its memberships and assignments.
func (s *UserService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	err := s.userRepo.Delete(ctx, id, func(user *models.User) error {
		return s.policy.AdminAction(caller, user.Role, authz.AdminDelete)
	})
	if errors.Is(err, repository.ErrUserLeadsTeam) {
		return ErrUserLeadsTeam
	}
	if err != nil {
		return storeErr(err, ErrUserNotFound)
	}

	logger.Info().Str("user_id", id.String()).Str("by", caller.ID.String()).Msg("user deleted")
	return nil
}
