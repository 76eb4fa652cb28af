package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/dto"
	"github.com/yukikurage/team-task-api/internal/models"
)

func (suite *APITestSuite) upload(path, token, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	suite.Require().NoError(err)
	_, err = part.Write(content)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) TestAttachmentUploadAndDownload() {
	_, adminToken := suite.createUser("admin@example.com", models.RoleAdmin)
	leader, leaderToken := suite.createUser("leader@example.com", models.RoleTeamLeader)
	_, outsiderToken := suite.createUser("outsider@example.com", models.RoleMember)

	w := suite.do(http.MethodPost, "/api/teams", adminToken, map[string]interface{}{"name": "Eng", "leader_id": leader.ID})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var team dto.TeamDetailDTO
	suite.decode(w, &team)

	w = suite.do(http.MethodPost, "/api/teams/"+team.ID.String()+"/tasks", leaderToken, map[string]interface{}{"title": "Write docs"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDetailDTO
	suite.decode(w, &task)
	attachmentsPath := "/api/tasks/" + task.ID.String() + "/attachments"

	w = suite.upload(attachmentsPath, outsiderToken, "notes.txt", []byte("hello"))
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.upload(attachmentsPath, leaderToken, "notes.txt", []byte("hello world"))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var attachment dto.AttachmentDTO
	suite.decode(w, &attachment)
	suite.Equal("notes.txt", attachment.Filename)
	suite.Equal(int64(11), attachment.Size)
	suite.Equal("/api/attachments/"+attachment.ID.String()+"/download", attachment.FilePath)

	w = suite.do(http.MethodGet, attachmentsPath, leaderToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var listed []dto.AttachmentDTO
	suite.decode(w, &listed)
	suite.Len(listed, 1)

	w = suite.do(http.MethodGet, attachment.FilePath, leaderToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("hello world", w.Body.String())
	suite.Contains(w.Header().Get("Content-Type"), "text/plain")
	suite.Equal(`attachment; filename=notes.txt`, w.Header().Get("Content-Disposition"))

	w = suite.do(http.MethodGet, "/api/tasks/"+task.ID.String(), leaderToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.TaskDetailDTO
	suite.decode(w, &detail)
	suite.Len(detail.Attachments, 1)
}

func (suite *APITestSuite) TestAttachmentUploadRequiresFile() {
	_, token := suite.createUser("member@example.com", models.RoleMember)

	w := suite.do(http.MethodPost, "/api/tasks/"+"00000000-0000-0000-0000-000000000001"+"/attachments", token, map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)
}
