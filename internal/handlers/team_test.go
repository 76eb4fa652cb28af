package handlers

import (
	"net/http"

	"github.com/yukikurage/team-task-api/internal/dto"
	"github.com/yukikurage/team-task-api/internal/models"
)

func (suite *APITestSuite) TestTeamAndTaskScenario() {
	_, adminToken := suite.createUser("admin@example.com", models.RoleAdmin)
	leader, leaderToken := suite.createUser("leader@example.com", models.RoleTeamLeader)
	member, memberToken := suite.createUser("member@example.com", models.RoleMember)

	w := suite.do(http.MethodPost, "/api/teams", adminToken, map[string]interface{}{
		"name":      "Eng",
		"leader_id": leader.ID,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var team dto.TeamDetailDTO
	suite.decode(w, &team)
	suite.Require().Len(team.Members, 1)
	suite.Equal(leader.ID, team.Members[0].User.ID)
	suite.Nil(team.Description)

	w = suite.do(http.MethodPost, "/api/teams", adminToken, map[string]interface{}{
		"name":      "Ops",
		"leader_id": leader.ID,
	})
	suite.Equal(http.StatusConflict, w.Code)

	teamPath := "/api/teams/" + team.ID.String()
	w = suite.do(http.MethodPost, teamPath+"/members", leaderToken, map[string]interface{}{"user_id": member.ID})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, teamPath+"/members", leaderToken, map[string]interface{}{"user_id": member.ID})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodDelete, teamPath+"/members/"+leader.ID.String(), adminToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, teamPath+"/tasks", leaderToken, map[string]interface{}{
		"title":       "Fix bug",
		"assigned_to": member.ID,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDetailDTO
	suite.decode(w, &task)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Require().NotNil(task.Assignee)
	suite.Equal(member.ID, task.Assignee.ID)

	taskPath := "/api/tasks/" + task.ID.String()
	w = suite.do(http.MethodPatch, taskPath, memberToken, map[string]interface{}{"status": "IN_PROGRESS"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.TaskDetailDTO
	suite.decode(w, &updated)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal("Fix bug", updated.Title)
	suite.Equal(task.Priority, updated.Priority)

	w = suite.do(http.MethodPatch, taskPath, memberToken, map[string]interface{}{"status": "COMPLETED", "priority": "HIGH"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, taskPath, memberToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var current dto.TaskDetailDTO
	suite.decode(w, &current)
	suite.Equal(models.TaskStatusInProgress, current.Status)
	suite.Equal(models.TaskPriorityMedium, current.Priority)

	w = suite.do(http.MethodGet, teamPath+"/tasks?status=in_progress", memberToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var listed struct {
		Tasks []dto.TaskDTO `json:"tasks"`
	}
	suite.decode(w, &listed)
	suite.Len(listed.Tasks, 1)

	w = suite.do(http.MethodGet, teamPath+"/tasks?status=DONE", memberToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	var invalid errorBody
	suite.decode(w, &invalid)
	suite.Contains(invalid.Details, "status")

	w = suite.do(http.MethodDelete, taskPath, memberToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.do(http.MethodDelete, taskPath, leaderToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.do(http.MethodGet, taskPath, leaderToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestTeamViews() {
	_, adminToken := suite.createUser("admin@example.com", models.RoleAdmin)
	leader, leaderToken := suite.createUser("leader@example.com", models.RoleTeamLeader)
	_, outsiderToken := suite.createUser("outsider@example.com", models.RoleMember)

	w := suite.do(http.MethodPost, "/api/teams", adminToken, map[string]interface{}{
		"name":        "Eng",
		"description": "builds things",
		"leader_id":   leader.ID,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var team dto.TeamDetailDTO
	suite.decode(w, &team)

	w = suite.do(http.MethodGet, "/api/teams/mine/leader", leaderToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var led dto.TeamDetailDTO
	suite.decode(w, &led)
	suite.Equal(team.ID, led.ID)

	w = suite.do(http.MethodGet, "/api/teams/available-members", leaderToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var candidates []dto.UserDTO
	suite.decode(w, &candidates)
	suite.Len(candidates, 1)

	w = suite.do(http.MethodGet, "/api/teams/"+team.ID.String(), outsiderToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/teams", leaderToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/teams", adminToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPatch, "/api/teams/"+team.ID.String(), leaderToken, map[string]interface{}{"name": "Platform"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodDelete, "/api/teams/"+team.ID.String(), adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}
