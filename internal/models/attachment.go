package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is append-only metadata for a file kept in the file store.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID     uuid.UUID `gorm:"type:char(36);not null;index" json:"task_id"`
	UploaderID uuid.UUID `gorm:"type:char(36);not null" json:"uploader_id"`
	Filename   string    `gorm:"type:varchar(255);not null" json:"filename"`
	Location   string    `gorm:"type:varchar(512);not null" json:"-"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Task     *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Uploader *User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
