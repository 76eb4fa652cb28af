package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
)

var (
	ErrCommentNotFound     = apierrors.New(apierrors.KindNotFound, "Comment not found")
	ErrCommentContentEmpty = apierrors.New(apierrors.KindValidation, "Content is required")
)

// CommentService handles comments on tasks
type CommentService struct {
	commentRepo repository.CommentRepository
	policy      authz.Policy
	access      taskAccess
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository, teamRepo repository.TeamRepository, policy authz.Policy) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		policy:      policy,
		access:      taskAccess{tasks: taskRepo, teams: teamRepo, policy: policy},
	}
}

// List returns the task's comments, oldest first.
func (s *CommentService) List(ctx context.Context, caller authz.Caller, taskID uuid.UUID) ([]models.Comment, error) {
	if _, err := s.access.check(ctx, caller, taskID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, apierrors.Internal(err)
	}
	return comments, nil
}

// Create adds a comment authored by the caller. Access is checked on the
// locked task.
func (s *CommentService) Create(ctx context.Context, caller authz.Caller, taskID uuid.UUID, content string) (*models.Comment, error) {
	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: caller.ID,
	}
	visible := s.access.guard(caller)
	err := s.commentRepo.Create(ctx, comment, func(task *models.Task, q repository.MembershipQuery) error {
		if err := visible(task, q); err != nil {
			return err
		}
		comment.Content = strings.TrimSpace(content)
		if comment.Content == "" {
			return ErrCommentContentEmpty
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, ErrTaskNotFound)
	}
	return comment, nil
}

// Update replaces a comment's content. Only the author or an ADMIN may.
func (s *CommentService) Update(ctx context.Context, caller authz.Caller, id uuid.UUID, content string) (*models.Comment, error) {
	comment, err := s.commentRepo.Update(ctx, id, func(comment *models.Comment) error {
		if err := s.policy.CommentMutate(caller, comment.AuthorID); err != nil {
			return err
		}
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return ErrCommentContentEmpty
		}
		comment.Content = trimmed
		return nil
	})
	if err != nil {
		return nil, storeErr(err, ErrCommentNotFound)
	}
	return comment, nil
}

// Delete removes a comment. Only the author or an ADMIN may.
func (s *CommentService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	err := s.commentRepo.Delete(ctx, id, func(comment *models.Comment) error {
		return s.policy.CommentMutate(caller, comment.AuthorID)
	})
	return storeErr(err, ErrCommentNotFound)
}
