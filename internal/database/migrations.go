package database

import (
	"fmt"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Task{},
		&models.Comment{},
		&models.Attachment{},
	}
}

// Migrate creates or updates the schema and adds the composite indexes.
func Migrate(db *gorm.DB) error {
	logger.Info().Msg("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	logger.Info().Msg("database migrations completed")
	return nil
}

// AddIndexes adds the multi-column indexes used by list queries.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task lists are per team, newest first, optionally per assignee
		{"tasks", "idx_tasks_team_created", "team_id, created_at"},
		{"tasks", "idx_tasks_team_assignee", "team_id, assignee_id"},

		// Comments are listed per task in time order
		{"comments", "idx_comments_task_created", "task_id, created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			logger.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Debug().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
