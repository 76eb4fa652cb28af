package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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
	ErrTaskNotFound       = apierrors.New(apierrors.KindNotFound, "Task not found")
	ErrTitleRequired      = apierrors.New(apierrors.KindValidation, "Title is required")
	ErrTitleTooLong       = apierrors.New(apierrors.KindValidation, fmt.Sprintf("Title must be at most %d characters", constants.MaxTitleLength))
	ErrInvalidStatus      = apierrors.New(apierrors.KindValidation, "Status must be one of TODO, IN_PROGRESS, COMPLETED, ON_HOLD")
	ErrInvalidPriority    = apierrors.New(apierrors.KindValidation, "Priority must be one of LOW, MEDIUM, HIGH, URGENT")
	ErrAssigneeNotMember  = apierrors.New(apierrors.KindValidation, "Assignee must be a member of the team")
	ErrNoFieldsToUpdate   = apierrors.New(apierrors.KindValidation, "No fields to update")
	ErrAITextRequired     = apierrors.New(apierrors.KindValidation, "Text is required")
	ErrAITextTooLong      = apierrors.New(apierrors.KindValidation, fmt.Sprintf("Text must be at most %d characters", constants.MaxAIInputLength))
	ErrAINotConfigured    = apierrors.New(apierrors.KindUpstream, "AI task generation is not configured")
	ErrAIGenerationFailed = apierrors.New(apierrors.KindUpstream, "Failed to generate tasks")
)

// TaskService handles task related business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	teamRepo repository.TeamRepository
	files    storage.FileStore
	ai       TaskGenerator
	policy   authz.Policy
	access   taskAccess
}

// NewTaskService creates a new TaskService. ai may be nil when task
// generation is disabled.
func NewTaskService(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository, files storage.FileStore, ai TaskGenerator, policy authz.Policy) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		teamRepo: teamRepo,
		files:    files,
		ai:       ai,
		policy:   policy,
		access:   taskAccess{tasks: taskRepo, teams: teamRepo, policy: policy},
	}
}

// CreateTaskInput represents the input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    *string
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

// Create creates a task in the team. New tasks always start as TODO.
// Permission and assignee membership are checked on the locked team.
func (s *TaskService) Create(ctx context.Context, caller authz.Caller, teamID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	task := &models.Task{
		TeamID:      teamID,
		Description: input.Description,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		CreatorID:   caller.ID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
	}
	err := s.taskRepo.Create(ctx, task, func(team *models.Team, q repository.MembershipQuery) error {
		if err := s.policy.TaskCreate(caller, team.LeaderID); err != nil {
			return err
		}

		title, err := validateTitle(input.Title)
		if err != nil {
			return err
		}
		task.Title = title
		if input.Priority != nil {
			if task.Priority, err = models.ParseTaskPriority(*input.Priority); err != nil {
				return ErrInvalidPriority
			}
		}
		if input.AssigneeID != nil {
			ok, err := q.IsMember(team.ID, *input.AssigneeID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAssigneeNotMember
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, ErrTeamNotFound)
	}

	logger.Info().
		Str("task_id", task.ID.String()).
		Str("team_id", teamID.String()).
		Str("by", caller.ID.String()).
		Msg("task created")
	return s.detail(ctx, task.ID)
}

// ListTasksInput represents the filters for listing a team's tasks
type ListTasksInput struct {
	Status     *string
	Pagination utils.PaginationParams
}

// List returns the team's tasks, newest first. Plain members only see the
// tasks assigned to them.
func (s *TaskService) List(ctx context.Context, caller authz.Caller, teamID uuid.UUID, input ListTasksInput) ([]models.Task, int64, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, 0, storeErr(err, ErrTeamNotFound)
	}
	isMember, err := s.teamRepo.IsMember(ctx, teamID, caller.ID)
	if err != nil {
		return nil, 0, apierrors.Internal(err)
	}

	visibility, err := s.policy.TaskVisibility(caller, team.LeaderID, isMember)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		TeamID:     teamID,
		Pagination: input.Pagination,
	}
	if visibility == authz.VisibilityAssigned {
		filter.AssigneeID = &caller.ID
	}
	if input.Status != nil {
		status, err := models.ParseTaskStatus(*input.Status)
		if err != nil {
			return nil, 0, ErrInvalidStatus
		}
		filter.Status = &status
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apierrors.Internal(err)
	}
	return tasks, total, nil
}

// Get returns a task with its creator, assignee, comments and attachments.
func (s *TaskService) Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*models.Task, error) {
	if _, err := s.access.check(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

// UpdateTaskInput represents the input for updating a task. Nil fields are
// left unchanged; the Clear flags reset optional fields to null.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uuid.UUID
	ClearAssignee bool
}

// Requested returns the set of fields the update touches.
func (in UpdateTaskInput) Requested() authz.FieldSet {
	var fields []authz.Field
	if in.Title != nil {
		fields = append(fields, authz.FieldTitle)
	}
	if in.Description != nil {
		fields = append(fields, authz.FieldDescription)
	}
	if in.Status != nil {
		fields = append(fields, authz.FieldStatus)
	}
	if in.Priority != nil {
		fields = append(fields, authz.FieldPriority)
	}
	if in.DueDate != nil || in.ClearDueDate {
		fields = append(fields, authz.FieldDueDate)
	}
	if in.AssigneeID != nil || in.ClearAssignee {
		fields = append(fields, authz.FieldAssignee)
	}
	return authz.Fields(fields...)
}

// Update changes a task. The decision is made on the locked row before any
// value is validated, so a denied update never changes the task.
func (s *TaskService) Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	requested := input.Requested()

	task, err := s.taskRepo.Update(ctx, id, func(task *models.Task, q repository.MembershipQuery) error {
		allowed, err := s.policy.TaskUpdate(caller, task.Team.LeaderID, task.AssigneeID, requested)
		if err != nil {
			return err
		}
		if allowed.Empty() {
			return ErrNoFieldsToUpdate
		}
		return applyTaskUpdate(task, allowed, input, q)
	})
	if err != nil {
		return nil, storeErr(err, ErrTaskNotFound)
	}

	logger.Info().
		Str("task_id", id.String()).
		Str("fields", requested.String()).
		Str("by", caller.ID.String()).
		Msg("task updated")
	return task, nil
}

func applyTaskUpdate(task *models.Task, allowed authz.FieldSet, input UpdateTaskInput, q repository.MembershipQuery) error {
	if allowed.Has(authz.FieldTitle) {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return err
		}
		task.Title = title
	}
	if allowed.Has(authz.FieldDescription) {
		task.Description = input.Description
	}
	if allowed.Has(authz.FieldStatus) {
		status, err := models.ParseTaskStatus(*input.Status)
		if err != nil {
			return ErrInvalidStatus
		}
		task.Status = status
	}
	if allowed.Has(authz.FieldPriority) {
		priority, err := models.ParseTaskPriority(*input.Priority)
		if err != nil {
			return ErrInvalidPriority
		}
		task.Priority = priority
	}
	if allowed.Has(authz.FieldDueDate) {
		if input.ClearDueDate {
			task.DueDate = nil
		} else {
			task.DueDate = input.DueDate
		}
	}
	if allowed.Has(authz.FieldAssignee) {
		if input.ClearAssignee {
			task.AssigneeID = nil
			return nil
		}
		ok, err := q.IsMember(task.TeamID, *input.AssigneeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAssigneeNotMember
		}
		task.AssigneeID = input.AssigneeID
	}
	return nil
}

// Delete removes a task with its comments and attachments.
func (s *TaskService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	attachments, err := s.taskRepo.Delete(ctx, id, func(task *models.Task) error {
		return s.policy.TaskDelete(caller, task.Team.LeaderID)
	})
	if err != nil {
		return storeErr(err, ErrTaskNotFound)
	}
	removeFiles(s.files, attachments)

	logger.Info().Str("task_id", id.String()).Str("by", caller.ID.String()).Msg("task deleted")
	return nil
}

// Generate drafts tasks for the team from free text. Nothing is stored.
func (s *TaskService) Generate(ctx context.Context, caller authz.Caller, teamID uuid.UUID, text string) ([]GeneratedTask, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, storeErr(err, ErrTeamNotFound)
	}
	if err := s.policy.TaskCreate(caller, team.LeaderID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, ErrAITextRequired
	case len(text) > constants.MaxAIInputLength:
		return nil, ErrAITextTooLong
	case s.ai == nil:
		return nil, ErrAINotConfigured
	}

	drafts, err := s.ai.GenerateTasksFromText(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, ErrAIGenerationFailed.WithCause(err)
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}
	for i := range drafts {
		if p, err := models.ParseTaskPriority(drafts[i].Priority); err == nil {
			drafts[i].Priority = string(p)
		} else {
			drafts[i].Priority = string(models.TaskPriorityMedium)
		}
	}
	return drafts, nil
}

func (s *TaskService) detail(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.FindDetail(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrTaskNotFound)
	}
	return task, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
