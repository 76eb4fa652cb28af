package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

var (
	ErrAttachmentNotFound = apierrors.New(apierrors.KindNotFound, "Attachment not found")
	ErrFileMissing        = apierrors.New(apierrors.KindNotFound, "File not found")
	ErrFileTooLarge       = apierrors.New(apierrors.KindValidation, "File exceeds the upload limit")
	ErrFilenameRequired   = apierrors.New(apierrors.KindValidation, "Filename is required")
	ErrFilenameTooLong    = apierrors.New(apierrors.KindValidation, fmt.Sprintf("Filename must be at most %d characters", constants.MaxFilenameLength))
)

// AttachmentService stores files attached to tasks
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	files          storage.FileStore
	access         taskAccess
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, taskRepo repository.TaskRepository, teamRepo repository.TeamRepository, files storage.FileStore, policy authz.Policy) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		files:          files,
		access:         taskAccess{tasks: taskRepo, teams: teamRepo, policy: policy},
	}
}

// Upload saves the file and then records it. When the record cannot be
// written the saved file is removed again.
func (s *AttachmentService) Upload(ctx context.Context, caller authz.Caller, taskID uuid.UUID, filename string, r io.Reader) (*models.Attachment, error) {
	if _, err := s.access.check(ctx, caller, taskID); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	if utf8.RuneCountInString(filename) > constants.MaxFilenameLength {
		return nil, ErrFilenameTooLong
	}

	location, size, err := s.files.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, apierrors.Internal(fmt.Errorf("save file: %w", err))
	}

	attachment := &models.Attachment{
		TaskID:     taskID,
		UploaderID: caller.ID,
		Filename:   filename,
		Location:   location,
		Size:       size,
	}
	if err := s.attachmentRepo.Create(ctx, attachment, s.access.guard(caller)); err != nil {
		if rmErr := s.files.Remove(location); rmErr != nil {
			logger.Warn().Err(rmErr).Str("location", location).Msg("failed to remove orphaned upload")
		}
		return nil, storeErr(err, ErrTaskNotFound)
	}

	logger.Info().
		Str("attachment_id", attachment.ID.String()).
		Str("task_id", taskID.String()).
		Int64("size", size).
		Msg("attachment uploaded")
	return attachment, nil
}

// List returns the task's attachments.
func (s *AttachmentService) List(ctx context.Context, caller authz.Caller, taskID uuid.UUID) ([]models.Attachment, error) {
	if _, err := s.access.check(ctx, caller, taskID); err != nil {
		return nil, err
	}
	attachments, err := s.attachmentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, apierrors.Internal(err)
	}
	return attachments, nil
}

// Download is an opened attachment. The caller closes File.
type Download struct {
	Attachment  *models.Attachment
	File        *os.File
	ContentType string
}

// Open opens an attachment's file for download.
func (s *AttachmentService) Open(ctx context.Context, id uuid.UUID) (*Download, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrAttachmentNotFound)
	}

	f, err := s.files.Open(attachment.Location)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileMissing
		}
		return nil, apierrors.Internal(err)
	}

	return &Download{
		Attachment:  attachment,
		File:        f,
		ContentType: s.files.ContentType(attachment.Location),
	}, nil
}
