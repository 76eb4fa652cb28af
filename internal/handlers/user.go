package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// UserHandler serves user administration endpoints.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns a page of users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.List(c.Request.Context(), caller, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      dto.ToUserDTOs(users),
		"pagination": params.Response(total),
	})
}

// GetUser returns a single user.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ToggleActive activates or deactivates a user.
func (h *UserHandler) ToggleActive(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ToggleActive(c.Request.Context(), caller, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ChangeRole sets a user's role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	type ChangeRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), caller, id, req.Role)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), caller, id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
