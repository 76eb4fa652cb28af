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

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Order("team_members.joined_at ASC").Order("team_members.id ASC")
}

// CreateWithLeader creates the team and the leader's membership atomically
func (r *GormTeamRepository) CreateWithLeader(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(team).Error; err != nil {
			return err
		}

		member := &models.TeamMember{
			TeamID: team.ID,
			UserID: team.LeaderID,
		}
		return tx.Omit(clause.Associations).Create(member).Error
	})
}

// FindByID finds a team with its leader
func (r *GormTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Preload("Leader").Where("id = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindDetail finds a team with its leader and members
func (r *GormTeamRepository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		Preload("Members", preloadMembers).
		Preload("Members.User").
		Where("id = ?", id).
		First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByLeader finds the team led by the user
func (r *GormTeamRepository) FindByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		Preload("Members", preloadMembers).
		Preload("Members.User").
		Where("leader_id = ?", leaderID).
		First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// List retrieves all teams with their leaders
func (r *GormTeamRepository) List(ctx context.Context, params utils.PaginationParams) ([]models.Team, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Team{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		Scopes(database.OldestFirst("teams"), database.Paginate(params)).
		Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

// ListByMember lists the teams a user belongs to
func (r *GormTeamRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("team_members.joined_at ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// Update locks the team, applies fn and saves it
func (r *GormTeamRepository) Update(ctx context.Context, id uuid.UUID, fn func(team *models.Team) error) (*models.Team, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).Where("id = ?", id).First(&team).Error; err != nil {
			return err
		}
		previousLeader := team.LeaderID

		if err := fn(&team); err != nil {
			return err
		}

		if team.LeaderID != previousLeader {
			if err := requireUser(tx, team.LeaderID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(&team).Error; err != nil {
			return err
		}

		if team.LeaderID != previousLeader {
			return ensureMember(tx, team.ID, team.LeaderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindDetail(ctx, id)
}

// Delete removes a team and everything it owns
func (r *GormTeamRepository) Delete(ctx context.Context, id uuid.UUID) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).Where("id = ?", id).First(&team).Error; err != nil {
			return err
		}

		var taskIDs []uuid.UUID
		if err := tx.Model(&models.Task{}).Where("team_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			removed, err := deleteTaskChildren(tx, taskIDs)
			if err != nil {
				return err
			}
			attachments = removed

			if err := tx.Where("team_id = ?", id).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Team{}).Error
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// IsMember reports whether the user belongs to the team
func (r *GormTeamRepository) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return isMember(r.db.WithContext(ctx), teamID, userID)
}

// AddMember locks the team, runs guard and inserts the membership
func (r *GormTeamRepository) AddMember(ctx context.Context, teamID, userID uuid.UUID, guard func(team *models.Team) error) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).Where("id = ?", teamID).First(&team).Error; err != nil {
			return err
		}
		if err := guard(&team); err != nil {
			return err
		}
		if err := requireUser(tx, userID); err != nil {
			return err
		}

		member = models.TeamMember{TeamID: teamID, UserID: userID}
		if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		member.User = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember locks the team, runs guard and deletes the membership
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID, guard func(team *models.Team) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).Where("id = ?", teamID).First(&team).Error; err != nil {
			return err
		}
		if err := guard(&team); err != nil {
			return err
		}

		result := tx.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrMembershipNotFound
		}

		return tx.Model(&models.Task{}).
			Where("team_id = ? AND assignee_id = ?", teamID, userID).
			Update("assignee_id", nil).Error
	})
}

type txMembership struct {
	tx *gorm.DB
}

func (m txMembership) IsMember(teamID, userID uuid.UUID) (bool, error) {
	return isMember(m.tx, teamID, userID)
}

func isMember(db *gorm.DB, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func ensureMember(tx *gorm.DB, teamID, userID uuid.UUID) error {
	ok, err := isMember(tx, teamID, userID)
	if err != nil || ok {
		return err
	}
	return tx.Omit(clause.Associations).Create(&models.TeamMember{TeamID: teamID, UserID: userID}).Error
}

// deleteTaskChildren removes the comments and attachments of the tasks and
// returns the removed attachments.
func deleteTaskChildren(tx *gorm.DB, taskIDs []uuid.UUID) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := tx.Where("task_id IN ?", taskIDs).Find(&attachments).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func requireUser(tx *gorm.DB, userID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IsNotFound reports whether err means the looked-up row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
