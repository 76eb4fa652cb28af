package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

type stubGenerator struct {
	tasks []GeneratedTask
	err   error
	input string
}

func (g *stubGenerator) GenerateTasksFromText(_ context.Context, text string) ([]GeneratedTask, error) {
	g.input = text
	return g.tasks, g.err
}

func (suite *ServiceTestSuite) TestTaskLifecycle_AssigneeStatusOnly() {
	f := suite.setupTeam()

	task := suite.createTask(f, &f.member.ID)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal(f.leader.ID, task.CreatorID)

	updated, err := suite.tasks.Update(suite.ctx, f.member, task.ID, UpdateTaskInput{Status: strPtr("in_progress")})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal("Fix bug", updated.Title)
	suite.Equal(models.TaskPriorityMedium, updated.Priority)

	_, err = suite.tasks.Update(suite.ctx, f.member, task.ID, UpdateTaskInput{
		Status:   strPtr("DONE"),
		Priority: strPtr("HIGH"),
	})
	suite.ErrorIs(err, authz.ErrStatusOnly)

	stored, err := suite.taskRepo.FindByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, stored.Status)
	suite.Equal(models.TaskPriorityMedium, stored.Priority)
}

func (suite *ServiceTestSuite) TestCreateTask_Rules() {
	f := suite.setupTeam()

	_, err := suite.tasks.Create(suite.ctx, f.member, f.team.ID, CreateTaskInput{Title: "x"})
	suite.ErrorIs(err, authz.ErrTeamLeaderOnly)

	_, err = suite.tasks.Create(suite.ctx, f.admin, f.team.ID, CreateTaskInput{Title: "x"})
	suite.assertKind(err, apierrors.KindForbidden)

	_, err = suite.tasks.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: "x", AssigneeID: &f.outsider.ID})
	suite.ErrorIs(err, ErrAssigneeNotMember)

	_, err = suite.tasks.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: "x", Priority: strPtr("someday")})
	suite.ErrorIs(err, ErrInvalidPriority)

	_, err = suite.tasks.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: " "})
	suite.ErrorIs(err, ErrTitleRequired)

	_, err = suite.tasks.Create(suite.ctx, f.leader, uuid.New(), CreateTaskInput{Title: "x"})
	suite.ErrorIs(err, ErrTeamNotFound)

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	task, err := suite.tasks.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{
		Title:       "Ship it",
		Description: strPtr("release v1"),
		Priority:    strPtr("urgent"),
		DueDate:     &due,
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskPriorityUrgent, task.Priority)
	suite.Nil(task.AssigneeID)
	suite.Nil(task.Assignee)
	suite.Require().NotNil(task.Creator)
	suite.Require().NotNil(task.DueDate)
	suite.True(due.Equal(*task.DueDate))
}

func (suite *ServiceTestSuite) TestCreateTask_AdminBypass() {
	f := suite.setupTeam()
	suite.buildServices(authz.Policy{AdminBypass: true}, nil)

	task, err := suite.tasks.Create(suite.ctx, f.admin, f.team.ID, CreateTaskInput{Title: "Audit"})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.tasks.Delete(suite.ctx, f.admin, task.ID))
}

func (suite *ServiceTestSuite) TestUpdateTask_DeniedBeforeValidation() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)

	_, err := suite.tasks.Update(suite.ctx, f.outsider, task.ID, UpdateTaskInput{Status: strPtr("NOT_A_STATUS")})
	suite.ErrorIs(err, authz.ErrNotTaskParticipant)

	_, err = suite.tasks.Update(suite.ctx, f.member, task.ID, UpdateTaskInput{Status: strPtr("NOT_A_STATUS")})
	suite.ErrorIs(err, ErrInvalidStatus)

	_, err = suite.tasks.Update(suite.ctx, f.member, task.ID, UpdateTaskInput{})
	suite.ErrorIs(err, ErrNoFieldsToUpdate)

	_, err = suite.tasks.Update(suite.ctx, f.leader, uuid.New(), UpdateTaskInput{Title: strPtr("x")})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestUpdateTask_LeaderChangesEverything() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)
	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	updated, err := suite.tasks.Update(suite.ctx, f.leader, task.ID, UpdateTaskInput{
		Title:         strPtr("Fix the bug"),
		Description:   strPtr("null pointer in login"),
		Status:        strPtr("COMPLETED"),
		Priority:      strPtr("HIGH"),
		DueDate:       &due,
		ClearAssignee: true,
	})
	suite.Require().NoError(err)
	suite.Equal("Fix the bug", updated.Title)
	suite.Equal(models.TaskStatusCompleted, updated.Status)
	suite.Equal(models.TaskPriorityHigh, updated.Priority)
	suite.Nil(updated.AssigneeID)
	suite.Nil(updated.Assignee)

	_, err = suite.tasks.Update(suite.ctx, f.leader, task.ID, UpdateTaskInput{AssigneeID: &f.outsider.ID})
	suite.ErrorIs(err, ErrAssigneeNotMember)

	updated, err = suite.tasks.Update(suite.ctx, f.leader, task.ID, UpdateTaskInput{AssigneeID: &f.member.ID, ClearDueDate: true})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.AssigneeID)
	suite.Equal(f.member.ID, *updated.AssigneeID)
	suite.Nil(updated.DueDate)
}

func (suite *ServiceTestSuite) TestListTasks_Visibility() {
	f := suite.setupTeam()
	suite.createTask(f, &f.member.ID)
	suite.createTask(f, nil)
	suite.createTask(f, &f.leader.ID)

	page := utils.NewPaginationParams(1, 20)

	tasks, total, err := suite.tasks.List(suite.ctx, f.leader, f.team.ID, ListTasksInput{Pagination: page})
	suite.Require().NoError(err)
	suite.Len(tasks, 3)
	suite.EqualValues(3, total)

	tasks, total, err = suite.tasks.List(suite.ctx, f.member, f.team.ID, ListTasksInput{Pagination: page})
	suite.Require().NoError(err)
	suite.Len(tasks, 1)
	suite.EqualValues(1, total)
	suite.Equal(f.member.ID, *tasks[0].AssigneeID)

	tasks, _, err = suite.tasks.List(suite.ctx, f.admin, f.team.ID, ListTasksInput{Pagination: page, Status: strPtr("completed")})
	suite.Require().NoError(err)
	suite.Empty(tasks)

	_, _, err = suite.tasks.List(suite.ctx, f.admin, f.team.ID, ListTasksInput{Pagination: page, Status: strPtr("DONE")})
	suite.ErrorIs(err, ErrInvalidStatus)

	_, _, err = suite.tasks.List(suite.ctx, f.outsider, f.team.ID, ListTasksInput{Pagination: page})
	suite.ErrorIs(err, authz.ErrNotTeamMember)
}

func (suite *ServiceTestSuite) TestGetTask_Detail() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)
	_, err := suite.comments.Create(suite.ctx, f.member, task.ID, "first")
	suite.Require().NoError(err)
	_, err = suite.comments.Create(suite.ctx, f.leader, task.ID, "second")
	suite.Require().NoError(err)

	detail, err := suite.tasks.Get(suite.ctx, f.member, task.ID)
	suite.Require().NoError(err)
	suite.Nil(detail.Assignee)
	suite.Require().Len(detail.Comments, 2)
	suite.Equal("second", detail.Comments[0].Content)
	suite.NotNil(detail.Comments[0].Author)

	_, err = suite.tasks.Get(suite.ctx, f.outsider, task.ID)
	suite.ErrorIs(err, authz.ErrNotTeamMember)

	_, err = suite.tasks.Get(suite.ctx, f.admin, task.ID)
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestDeleteTask() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)
	_, err := suite.comments.Create(suite.ctx, f.member, task.ID, "note")
	suite.Require().NoError(err)
	attachment, err := suite.attachments.Upload(suite.ctx, f.member, task.ID, "log.txt", strings.NewReader("trace"))
	suite.Require().NoError(err)

	err = suite.tasks.Delete(suite.ctx, f.member, task.ID)
	suite.ErrorIs(err, authz.ErrNotTeamLeader)

	err = suite.tasks.Delete(suite.ctx, f.admin, task.ID)
	suite.ErrorIs(err, authz.ErrNotTeamLeader)

	suite.Require().NoError(suite.tasks.Delete(suite.ctx, f.leader, task.ID))

	comments, err := suite.commentRepo.ListByTask(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Empty(comments)

	_, err = suite.attachments.Open(suite.ctx, attachment.ID)
	suite.ErrorIs(err, ErrAttachmentNotFound)

	_, err = suite.files.Open(attachment.Location)
	suite.Error(err)
}

func (suite *ServiceTestSuite) TestGenerateTasks() {
	f := suite.setupTeam()

	_, err := suite.tasks.Generate(suite.ctx, f.leader, f.team.ID, "write the release notes")
	suite.ErrorIs(err, ErrAINotConfigured)
	suite.assertKind(err, apierrors.KindUpstream)

	gen := &stubGenerator{tasks: []GeneratedTask{
		{Title: "Write release notes", Priority: "high"},
		{Title: "Tag release", Priority: "whenever"},
	}}
	suite.buildServices(authz.Policy{}, gen)

	_, err = suite.tasks.Generate(suite.ctx, f.member, f.team.ID, "anything")
	suite.ErrorIs(err, authz.ErrTeamLeaderOnly)

	_, err = suite.tasks.Generate(suite.ctx, f.leader, f.team.ID, "   ")
	suite.ErrorIs(err, ErrAITextRequired)

	drafts, err := suite.tasks.Generate(suite.ctx, f.leader, f.team.ID, "  write and tag the release  ")
	suite.Require().NoError(err)
	suite.Equal("write and tag the release", gen.input)
	suite.Require().Len(drafts, 2)
	suite.Equal("HIGH", drafts[0].Priority)
	suite.Equal("MEDIUM", drafts[1].Priority)

	gen.err = errors.New("rate limited")
	_, err = suite.tasks.Generate(suite.ctx, f.leader, f.team.ID, "again")
	suite.ErrorIs(err, ErrAIGenerationFailed)
}
