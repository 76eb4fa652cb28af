package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create locks the task, runs guard and records the attachment
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *models.Attachment, guard TaskGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, attachment.TaskID)
		if err != nil {
			return err
		}
		if err := guard(task, txMembership{tx: tx}); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(attachment).Error
	})
}

// FindByID finds an attachment
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByTask lists a task's attachments, oldest first
func (r *GormAttachmentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Scopes(database.OldestFirst("attachments")).
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}
