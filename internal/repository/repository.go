package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

var (
	// ErrUserLeadsTeam is returned when deleting a user who still leads a team.
	ErrUserLeadsTeam = errors.New("user still leads a team")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("referenced user not found")
	// ErrMembershipNotFound is returned when removing a user who is not a member.
	ErrMembershipNotFound = errors.New("membership not found")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user. A duplicate email yields gorm.ErrDuplicatedKey.
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users ordered by creation time with pagination
	List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error)

	// ListByRole retrieves every user holding the role
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)

	// Update locks the user, applies fn and saves the result.
	// Nothing is written when fn returns an error. Taking the TEAM_LEADER
	// role from a user who leads a team yields ErrUserLeadsTeam.
	Update(ctx context.Context, id uuid.UUID, fn func(user *models.User) error) (*models.User, error)

	// Delete locks the user, runs guard and removes the account together with
	// its memberships and task assignments. Users leading a team are kept.
	Delete(ctx context.Context, id uuid.UUID, guard func(user *models.User) error) error

	// EnsureExists creates the user unless one with the same email exists.
	EnsureExists(ctx context.Context, user *models.User) (bool, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// CreateWithLeader creates a team and its leader's membership atomically.
	CreateWithLeader(ctx context.Context, team *models.Team) error

	// FindByID finds a team with its leader
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)

	// FindDetail finds a team with its leader and members
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Team, error)

	// FindByLeader finds the team led by the user, with its members
	FindByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error)

	// List retrieves all teams with their leaders
	List(ctx context.Context, params utils.PaginationParams) ([]models.Team, int64, error)

	// ListByMember lists the teams a user belongs to
	ListByMember(ctx context.Context, userID uuid.UUID) ([]models.Team, error)

	// Update locks the team, applies fn and saves it. When the leader changes
	// the new leader's membership is added in the same transaction.
	Update(ctx context.Context, id uuid.UUID, fn func(team *models.Team) error) (*models.Team, error)

	// Delete removes a team with its memberships, tasks, comments and
	// attachments. The removed attachments are returned so their files can
	// be cleaned up.
	Delete(ctx context.Context, id uuid.UUID) ([]models.Attachment, error)

	// IsMember reports whether the user belongs to the team
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)

	// AddMember locks the team, runs guard and inserts the membership.
	AddMember(ctx context.Context, teamID, userID uuid.UUID, guard func(team *models.Team) error) (*models.TeamMember, error)

	// RemoveMember locks the team, runs guard and deletes the membership,
	// unassigning the user's tasks in that team.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID, guard func(team *models.Team) error) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create locks the task's team, runs guard and inserts the task. guard may
	// query memberships through q.
	Create(ctx context.Context, task *models.Task, guard func(team *models.Team, q MembershipQuery) error) error

	// FindByID finds a task with its team
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)

	// FindDetail finds a task with creator, assignee, comments (newest first)
	// and attachments
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Task, error)

	// List retrieves tasks with filtering and pagination, newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update locks the task, applies fn and saves it. fn sees the task with
	// its team loaded and may query memberships through q.
	Update(ctx context.Context, id uuid.UUID, fn func(task *models.Task, q MembershipQuery) error) (*models.Task, error)

	// Delete locks the task, runs guard and removes it with its comments and
	// attachments, which are returned for file cleanup.
	Delete(ctx context.Context, id uuid.UUID, guard func(task *models.Task) error) ([]models.Attachment, error)
}

// MembershipQuery answers membership questions inside a transaction.
type MembershipQuery interface {
	IsMember(teamID, userID uuid.UUID) (bool, error)
}

// TaskGuard checks a locked task, with its team loaded, before a child row
// is written.
type TaskGuard func(task *models.Task, q MembershipQuery) error

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	TeamID     uuid.UUID
	AssigneeID *uuid.UUID
	Status     *models.TaskStatus
	Pagination utils.PaginationParams
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create locks the parent task, runs guard, inserts the comment and loads
	// its author. A missing task yields gorm.ErrRecordNotFound.
	Create(ctx context.Context, comment *models.Comment, guard TaskGuard) error

	// FindByID finds a comment with its author
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)

	// ListByTask lists a task's comments, oldest first
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error)

	// Update locks the comment, applies fn and saves it
	Update(ctx context.Context, id uuid.UUID, fn func(comment *models.Comment) error) (*models.Comment, error)

	// Delete locks the comment, runs guard and removes it
	Delete(ctx context.Context, id uuid.UUID, guard func(comment *models.Comment) error) error
}

// AttachmentRepository defines the interface for attachment metadata access
type AttachmentRepository interface {
	// Create locks the parent task, runs guard and records the attachment.
	// A missing task yields gorm.ErrRecordNotFound.
	Create(ctx context.Context, attachment *models.Attachment, guard TaskGuard) error

	// FindByID finds an attachment
	FindByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)

	// ListByTask lists a task's attachments, oldest first
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.Attachment, error)
}
