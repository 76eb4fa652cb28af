package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamMember struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TeamID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_team_members_team_user;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}
