package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:char(36);not null;index" json:"task_id"`
	AuthorID  uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task   *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author *User `gorm:"foreignKey:AuthorID" json:"user,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
