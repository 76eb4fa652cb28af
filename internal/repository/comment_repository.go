package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create locks the task, runs guard, inserts the comment and loads its author
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment, guard TaskGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, comment.TaskID)
		if err != nil {
			return err
		}
		if err := guard(task, txMembership{tx: tx}); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		var author models.User
		if err := tx.Where("id = ?", comment.AuthorID).First(&author).Error; err != nil {
			return err
		}
		comment.Author = &author
		return nil
	})
}

// FindByID finds a comment with its author
func (r *GormCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByTask lists a task's comments, oldest first
func (r *GormCommentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("task_id = ?", taskID).
		Scopes(database.OldestFirst("comments")).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Update locks the comment, applies fn and saves it
func (r *GormCommentRepository) Update(ctx context.Context, id uuid.UUID, fn func(comment *models.Comment) error) (*models.Comment, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := forUpdate(tx).Where("id = ?", id).First(&comment).Error; err != nil {
			return err
		}
		if err := fn(&comment); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete locks the comment, runs guard and removes it
func (r *GormCommentRepository) Delete(ctx context.Context, id uuid.UUID, guard func(comment *models.Comment) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := forUpdate(tx).Where("id = ?", id).First(&comment).Error; err != nil {
			return err
		}
		if err := guard(&comment); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Comment{}).Error
	})
}
