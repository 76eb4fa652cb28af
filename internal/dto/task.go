package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/models"
)

// TaskDTO represents a task in API responses. Optional references are
// always present and null when unset.
type TaskDTO struct {
	ID          uuid.UUID           `json:"id"`
	TeamID      uuid.UUID           `json:"team_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	CreatedBy   uuid.UUID           `json:"created_by"`
	AssignedTo  *uuid.UUID          `json:"assigned_to"`
	DueDate     *time.Time          `json:"due_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Creator     *UserDTO            `json:"creator"`
	Assignee    *UserDTO            `json:"assignee"`
}

// TaskDetailDTO represents a task with its comments and attachments
type TaskDetailDTO struct {
	TaskDTO
	Comments    []CommentDTO    `json:"comments"`
	Attachments []AttachmentDTO `json:"attachments"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *UserDTO  `json:"author"`
}

// AttachmentDTO represents attachment metadata. FilePath is the download
// URL; the storage location is never exposed.
type AttachmentDTO struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	UploaderID uuid.UUID `json:"uploader_id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		TeamID:      task.TeamID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedBy:   task.CreatorID,
		AssignedTo:  task.AssigneeID,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Creator:     ToUserDTOPtr(task.Creator),
		Assignee:    ToUserDTOPtr(task.Assignee),
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToTaskDetailDTO converts a task with loaded comments and attachments
func ToTaskDetailDTO(task models.Task) TaskDetailDTO {
	return TaskDetailDTO{
		TaskDTO:     ToTaskDTO(task),
		Comments:    ToCommentDTOs(task.Comments),
		Attachments: ToAttachmentDTOs(task.Attachments),
	}
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Author:    ToUserDTOPtr(comment.Author),
	}
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		dtos[i] = ToCommentDTO(comment)
	}
	return dtos
}

// ToAttachmentDTO converts an Attachment model to AttachmentDTO
func ToAttachmentDTO(attachment models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:         attachment.ID,
		TaskID:     attachment.TaskID,
		UploaderID: attachment.UploaderID,
		Filename:   attachment.Filename,
		FilePath:   fmt.Sprintf("/api/attachments/%s/download", attachment.ID),
		Size:       attachment.Size,
		CreatedAt:  attachment.CreatedAt,
	}
}

// ToAttachmentDTOs converts a slice of attachments
func ToAttachmentDTOs(attachments []models.Attachment) []AttachmentDTO {
	dtos := make([]AttachmentDTO, len(attachments))
	for i, attachment := range attachments {
		dtos[i] = ToAttachmentDTO(attachment)
	}
	return dtos
}
