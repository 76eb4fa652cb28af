package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// TaskHandler serves task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks returns a team's tasks visible to the caller, newest first.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	type ListTasksQuery struct {
		Status *string `form:"status" binding:"omitempty,taskstatus"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var query ListTasksQuery
	if !bindQuery(c, &query) {
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.List(c.Request.Context(), caller, teamID, services.ListTasksInput{
		Status:     query.Status,
		Pagination: params,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      dto.ToTaskDTOs(tasks),
		"pagination": params.Response(total),
	})
}

// CreateTask creates a task in a team.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description *string    `json:"description"`
		Priority    *string    `json:"priority" binding:"omitempty,taskpriority"`
		DueDate     *time.Time `json:"due_date"`
		AssignedTo  *uuid.UUID `json:"assigned_to"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), caller, teamID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssignedTo,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*task))
}

// GenerateTasks drafts tasks from free text with the AI service.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req GenerateTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	drafts, err := h.taskService.Generate(c.Request.Context(), caller, teamID, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": drafts})
}

// GetTask returns a task with its comments and attachments.
func (h *TaskHandler) GetTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), caller, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task))
}

// UpdateTask changes the fields present in the body. Enum values are checked
// by the service after the permission check.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Status        *string    `json:"status"`
		Priority      *string    `json:"priority"`
		DueDate       *time.Time `json:"due_date"`
		ClearDueDate  bool       `json:"clear_due_date"`
		AssignedTo    *uuid.UUID `json:"assigned_to"`
		ClearAssignee bool       `json:"clear_assignee"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), caller, id, services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		ClearDueDate:  req.ClearDueDate,
		AssigneeID:    req.AssignedTo,
		ClearAssignee: req.ClearAssignee,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task))
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), caller, id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
