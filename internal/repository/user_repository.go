package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users ordered by creation time with pagination
func (r *GormUserRepository) List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Scopes(database.OldestFirst("users"), database.Paginate(params)).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListByRole retrieves every user holding the role
func (r *GormUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("UPPER(role) = ?", string(role)).
		Order("username ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update locks the user, applies fn and saves the result
func (r *GormUserRepository) Update(ctx context.Context, id uuid.UUID, fn func(user *models.User) error) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		previous := user.Role
		if err := fn(&user); err != nil {
			return err
		}
		if previous == models.RoleTeamLeader && user.Role != models.RoleTeamLeader {
			if err := checkLeadsNoTeam(tx, id); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user with their memberships and assignments
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID, guard func(user *models.User) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if err := guard(&user); err != nil {
			return err
		}

		if err := checkLeadsNoTeam(tx, id); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).
			Where("assignee_id = ?", id).
			Update("assignee_id", nil).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
}

// EnsureExists creates the user unless the email is already registered
func (r *GormUserRepository) EnsureExists(ctx context.Context, user *models.User) (bool, error) {
	var existing models.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		*user = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := r.Create(ctx, user); err != nil {
		// Another instance seeded it first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// checkLeadsNoTeam fails with ErrUserLeadsTeam while the user leads a team.
func checkLeadsNoTeam(tx *gorm.DB, id uuid.UUID) error {
	var led int64
	if err := tx.Model(&models.Team{}).Where("leader_id = ?", id).Count(&led).Error; err != nil {
		return err
	}
	if led > 0 {
		return ErrUserLeadsTeam
	}
	return nil
}
