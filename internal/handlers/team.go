package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// TeamHandler serves team and membership endpoints.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// ListTeams returns all teams.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	teams, total, err := h.teamService.List(c.Request.Context(), caller, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams":      dto.ToTeamDTOs(teams),
		"pagination": params.Response(total),
	})
}

// AvailableMembers lists users that can be added to teams.
func (h *TeamHandler) AvailableMembers(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	users, err := h.teamService.AvailableMembers(c.Request.Context(), caller)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// MyLedTeam returns the team led by the caller.
func (h *TeamHandler) MyLedTeam(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	team, err := h.teamService.MyLedTeam(c.Request.Context(), caller)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*team))
}

// MyTeams lists the teams the caller belongs to.
func (h *TeamHandler) MyTeams(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	teams, err := h.teamService.MyTeams(c.Request.Context(), caller)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTOs(teams))
}

// GetTeam returns a team with its members.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	team, err := h.teamService.Get(c.Request.Context(), caller, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*team))
}

// CreateTeam creates a team led by leader_id.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	type CreateTeamRequest struct {
		Name        string    `json:"name" binding:"required,max=255"`
		Description *string   `json:"description"`
		LeaderID    uuid.UUID `json:"leader_id" binding:"required"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	var req CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), caller, services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDetailDTO(*team))
}

// UpdateTeam changes a team's name, description or leader.
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	type UpdateTeamRequest struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		LeaderID    *uuid.UUID `json:"leader_id"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Update(c.Request.Context(), caller, id, services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*team))
}

// DeleteTeam removes a team and everything in it.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.teamService.Delete(c.Request.Context(), caller, id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully"})
}

// AddMember adds a user to a team.
func (h *TeamHandler) AddMember(c *gin.Context) {
	type AddMemberRequest struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}

	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.teamService.AddMember(c.Request.Context(), caller, id, req.UserID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamMemberDTO(*member))
}

// RemoveMember removes a user from a team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), caller, teamID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
