package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

// storeErr classifies a repository error. Classified errors pass through,
// missing rows become notFound and everything else is Internal.
func storeErr(err error, notFound *apierrors.Error) error {
	if err == nil {
		return nil
	}
	var classified *apierrors.Error
	if stderrors.As(err, &classified) {
		return err
	}
	if notFound != nil && repository.IsNotFound(err) {
		return notFound
	}
	return apierrors.Internal(err)
}

// removeFiles deletes stored files after their rows are gone. Failures only
// leave orphaned files behind, so they are logged and not returned.
func removeFiles(files storage.FileStore, attachments []models.Attachment) {
	for _, a := range attachments {
		if err := files.Remove(a.Location); err != nil {
			logger.Warn().Err(err).Str("location", a.Location).Msg("failed to remove attachment file")
		}
	}
}

// taskAccess loads a task and checks the caller may see it: ADMIN callers
// and members of the task's team.
type taskAccess struct {
	tasks  repository.TaskRepository
	teams  repository.TeamRepository
	policy authz.Policy
}

func (a taskAccess) check(ctx context.Context, caller authz.Caller, taskID uuid.UUID) (*models.Task, error) {
	task, err := a.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, storeErr(err, ErrTaskNotFound)
	}

	isMember := false
	if !caller.IsAdmin() {
		isMember, err = a.teams.IsMember(ctx, task.TeamID, caller.ID)
		if err != nil {
			return nil, apierrors.Internal(err)
		}
	}
	if err := a.policy.TeamView(caller, isMember); err != nil {
		return nil, err
	}
	return task, nil
}

// guard repeats check on a task locked inside a repository transaction.
func (a taskAccess) guard(caller authz.Caller) repository.TaskGuard {
	return func(task *models.Task, q repository.MembershipQuery) error {
		isMember := false
		if !caller.IsAdmin() {
			var err error
			if isMember, err = q.IsMember(task.TeamID, caller.ID); err != nil {
				return err
			}
		}
		return a.policy.TeamView(caller, isMember)
	}
}
