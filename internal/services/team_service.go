package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

var (
	ErrTeamNotFound       = apierrors.New(apierrors.KindNotFound, "Team not found")
	ErrNoLedTeam          = apierrors.New(apierrors.KindNotFound, "You do not lead a team")
	ErrTeamNameRequired   = apierrors.New(apierrors.KindValidation, "Team name is required")
	ErrTeamNameTooLong    = apierrors.New(apierrors.KindValidation, fmt.Sprintf("Team name must be at most %d characters", constants.MaxTeamNameLength))
	ErrLeaderNotFound     = apierrors.New(apierrors.KindValidation, "Leader not found")
	ErrLeaderRole         = apierrors.New(apierrors.KindValidation, "Leader must have the TEAM_LEADER role")
	ErrLeaderHasTeam      = apierrors.New(apierrors.KindConflict, "Leader already leads a team")
	ErrAlreadyTeamMember  = apierrors.New(apierrors.KindConflict, "User already in team")
	ErrMembershipNotFound = apierrors.New(apierrors.KindNotFound, "User is not a member of this team")
)

// TeamService handles team and membership business logic
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	files    storage.FileStore
	policy   authz.Policy
}

// NewTeamService creates a new TeamService
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, files storage.FileStore, policy authz.Policy) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		files:    files,
		policy:   policy,
	}
}

// List returns every team. ADMIN only.
func (s *TeamService) List(ctx context.Context, caller authz.Caller, params utils.PaginationParams) ([]models.Team, int64, error) {
	if err := s.policy.TeamAdminister(caller); err != nil {
		return nil, 0, err
	}
	teams, total, err := s.teamRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apierrors.Internal(err)
	}
	return teams, total, nil
}

// AvailableMembers lists users holding the MEMBER role, the candidates for
// team membership.
func (s *TeamService) AvailableMembers(ctx context.Context, caller authz.Caller) ([]models.User, error) {
	if !caller.IsAdmin() {
		if err := s.policy.LeaderOnly(caller); err != nil {
			return nil, err
		}
	}
	users, err := s.userRepo.ListByRole(ctx, models.RoleMember)
	if err != nil {
		return nil, apierrors.Internal(err)
	}
	return users, nil
}

// Get returns the team with its leader and members.
func (s *TeamService) Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo.FindDetail(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrTeamNotFound)
	}

	isMember := false
	for _, m := range team.Members {
		if m.UserID == caller.ID {
			isMember = true
			break
		}
	}
	if err := s.policy.TeamView(caller, isMember); err != nil {
		return nil, err
	}
	return team, nil
}

// MyLedTeam returns the team the caller leads.
func (s *TeamService) MyLedTeam(ctx context.Context, caller authz.Caller) (*models.Team, error) {
	if err := s.policy.LeaderOnly(caller); err != nil {
		return nil, err
	}
	team, err := s.teamRepo.FindByLeader(ctx, caller.ID)
	if err != nil {
		return nil, storeErr(err, ErrNoLedTeam)
	}
	return team, nil
}

// MyTeams lists the teams the caller belongs to.
func (s *TeamService) MyTeams(ctx context.Context, caller authz.Caller) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByMember(ctx, caller.ID)
	if err != nil {
		return nil, apierrors.Internal(err)
	}
	return teams, nil
}

// CreateTeamInput represents the input for creating a team
type CreateTeamInput struct {
	Name        string
	Description *string
	LeaderID    uuid.UUID
}

// Create creates a team and makes its leader the first member.
func (s *TeamService) Create(ctx context.Context, caller authz.Caller, input CreateTeamInput) (*models.Team, error) {
	if err := s.policy.TeamAdminister(caller); err != nil {
		return nil, err
	}

	name, err := validateTeamName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.checkLeader(ctx, input.LeaderID); err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.FindByLeader(ctx, input.LeaderID); err == nil {
		return nil, ErrLeaderHasTeam
	} else if !repository.IsNotFound(err) {
		return nil, apierrors.Internal(err)
	}

	team := &models.Team{
		Name:        name,
		Description: input.Description,
		LeaderID:    input.LeaderID,
	}
	if err := s.teamRepo.CreateWithLeader(ctx, team); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrLeaderHasTeam
		}
		return nil, apierrors.Internal(fmt.Errorf("create team: %w", err))
	}

	logger.Info().
		Str("team_id", team.ID.String()).
		Str("leader_id", team.LeaderID.String()).
		Msg("team created")
	return s.detail(ctx, team.ID)
}

// UpdateTeamInput represents the input for updating a team.
// Nil fields are left unchanged.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	LeaderID    *uuid.UUID
}

// Update changes a team's name, description or leader. Only ADMIN callers
// may change the leader.
func (s *TeamService) Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input UpdateTeamInput) (*models.Team, error) {
	// The leader is checked up front but the verdict is only reported after
	// the permission check on the locked row.
	var leaderErr error
	if input.LeaderID != nil {
		leaderErr = s.checkLeader(ctx, *input.LeaderID)
	}

	team, err := s.teamRepo.Update(ctx, id, func(team *models.Team) error {
		changesLeader := input.LeaderID != nil && *input.LeaderID != team.LeaderID
		if err := s.policy.TeamUpdate(caller, team.LeaderID, changesLeader); err != nil {
			return err
		}

		if input.Name != nil {
			name, err := validateTeamName(*input.Name)
			if err != nil {
				return err
			}
			team.Name = name
		}
		if input.Description != nil {
			team.Description = input.Description
		}
		if changesLeader {
			if leaderErr != nil {
				return leaderErr
			}
			team.LeaderID = *input.LeaderID
		}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, ErrLeaderNotFound
	case repository.IsDuplicate(err):
		return nil, ErrLeaderHasTeam
	case err != nil:
		return nil, storeErr(err, ErrTeamNotFound)
	}
	return team, nil
}

// Delete removes a team and everything it owns. ADMIN only.
func (s *TeamService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := s.policy.TeamAdminister(caller); err != nil {
		return err
	}

	attachments, err := s.teamRepo.Delete(ctx, id)
	if err != nil {
		return storeErr(err, ErrTeamNotFound)
	}
	removeFiles(s.files, attachments)

	logger.Info().Str("team_id", id.String()).Str("by", caller.ID.String()).Msg("team deleted")
	return nil
}

// AddMember adds a user to the team.
func (s *TeamService) AddMember(ctx context.Context, caller authz.Caller, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	member, err := s.teamRepo.AddMember(ctx, teamID, userID, func(team *models.Team) error {
		return s.policy.TeamMemberChange(caller, team.LeaderID, userID, authz.MemberAdd)
	})
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, ErrUserNotFound
	case repository.IsDuplicate(err):
		return nil, ErrAlreadyTeamMember
	case err != nil:
		return nil, storeErr(err, ErrTeamNotFound)
	}
	return member, nil
}

// RemoveMember removes a user from the team and unassigns their tasks there.
func (s *TeamService) RemoveMember(ctx context.Context, caller authz.Caller, teamID, userID uuid.UUID) error {
	err := s.teamRepo.RemoveMember(ctx, teamID, userID, func(team *models.Team) error {
		return s.policy.TeamMemberChange(caller, team.LeaderID, userID, authz.MemberRemove)
	})
	if errors.Is(err, repository.ErrMembershipNotFound) {
		return ErrMembershipNotFound
	}
	return storeErr(err, ErrTeamNotFound)
}

func (s *TeamService) checkLeader(ctx context.Context, leaderID uuid.UUID) error {
	leader, err := s.userRepo.FindByID(ctx, leaderID)
	if err != nil {
		return storeErr(err, ErrLeaderNotFound)
	}
	if leader.Role != models.RoleTeamLeader {
		return ErrLeaderRole
	}
	return nil
}

func (s *TeamService) detail(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo.FindDetail(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrTeamNotFound)
	}
	return team, nil
}

func validateTeamName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrTeamNameRequired
	}
	if len(name) > constants.MaxTeamNameLength {
		return "", ErrTeamNameTooLong
	}
	return name, nil
}
