package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusOnHold     TaskStatus = "ON_HOLD"
)

var ValidTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold}

// ParseTaskStatus normalizes a raw status string. Matching is case-insensitive.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range ValidTaskStatuses {
		if s == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", raw)
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

var ValidTaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}

// ParseTaskPriority normalizes a raw priority string. Matching is case-insensitive.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	priority := TaskPriority(strings.ToUpper(strings.TrimSpace(raw)))
	for _, p := range ValidTaskPriorities {
		if p == priority {
			return priority, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", raw)
}

type Task struct {
	ID          uuid.UUID    `gorm:"type:char(36);primaryKey" json:"id"`
	TeamID      uuid.UUID    `gorm:"type:char(36);not null;index" json:"team_id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description *string      `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	CreatorID   uuid.UUID    `gorm:"type:char(36);not null;index" json:"created_by"`
	AssigneeID  *uuid.UUID   `gorm:"type:char(36);index" json:"assigned_to"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Team        *Team        `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Creator     *User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignee    *User        `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
