package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create locks the team, runs guard and inserts the task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task, guard func(team *models.Team, q MembershipQuery) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).Where("id = ?", task.TeamID).First(&team).Error; err != nil {
			return err
		}
		if err := guard(&team, txMembership{tx: tx}); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(task).Error
	})
}

// FindByID finds a task with its team
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("Team").Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindDetail finds a task with everything shown on its detail view
func (r *GormTaskRepository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Preload("Creator").
		Preload("Assignee").
		Preload("Comments", database.NewestFirst("comments")).
		Preload("Comments.Author").
		Preload("Attachments", database.OldestFirst("attachments")).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("tasks.team_id = ?", filter.TeamID)

	// Apply filters
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.NewestFirst("tasks"))
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var tasks []models.Task
	if err := listQuery.Preload("Creator").Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update locks the task, applies fn and saves it
func (r *GormTaskRepository) Update(ctx context.Context, id uuid.UUID, fn func(task *models.Task, q MembershipQuery) error) (*models.Task, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, id)
		if err != nil {
			return err
		}

		if err := fn(task, txMembership{tx: tx}); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(task).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindDetail(ctx, id)
}

// Delete removes the task with its comments and attachments
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID, guard func(task *models.Task) error) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, id)
		if err != nil {
			return err
		}

		if err := guard(task); err != nil {
			return err
		}

		removed, err := deleteTaskChildren(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		attachments = removed

		return tx.Where("id = ?", id).Delete(&models.Task{}).Error
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// lockTask locks the task row and loads its team.
func lockTask(tx *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := forUpdate(tx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	var team models.Team
	if err := tx.Where("id = ?", task.TeamID).First(&team).Error; err != nil {
		return nil, err
	}
	task.Team = &team
	return &task, nil
}
