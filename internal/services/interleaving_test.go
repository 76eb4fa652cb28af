package services

import (
	"context"
	"os"
	"strings"

	"github.com/yukikurage/team-task-api/internal/authz"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
)

// The wrappers below run a competing change after the service has done its
// own reads and right before the repository write starts.

type racingTasks struct {
	repository.TaskRepository
	before func()
}

func (r racingTasks) Create(ctx context.Context, task *models.Task, guard func(*models.Team, repository.MembershipQuery) error) error {
	r.before()
	return r.TaskRepository.Create(ctx, task, guard)
}

type racingComments struct {
	repository.CommentRepository
	before func()
}

func (r racingComments) Create(ctx context.Context, comment *models.Comment, guard repository.TaskGuard) error {
	r.before()
	return r.CommentRepository.Create(ctx, comment, guard)
}

type racingAttachments struct {
	repository.AttachmentRepository
	before func()
}

func (r racingAttachments) Create(ctx context.Context, attachment *models.Attachment, guard repository.TaskGuard) error {
	r.before()
	return r.AttachmentRepository.Create(ctx, attachment, guard)
}

func (suite *ServiceTestSuite) count(model interface{}) int64 {
	var n int64
	suite.Require().NoError(suite.db.Model(model).Count(&n).Error)
	return n
}

func (suite *ServiceTestSuite) TestCreateTask_AssigneeRemovedMeanwhile() {
	f := suite.setupTeam()
	repo := racingTasks{TaskRepository: suite.taskRepo, before: func() {
		suite.Require().NoError(suite.teams.RemoveMember(suite.ctx, f.leader, f.team.ID, f.member.ID))
	}}
	svc := NewTaskService(repo, suite.teamRepo, suite.files, nil, suite.policy)

	_, err := svc.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: "Fix bug", AssigneeID: &f.member.ID})
	suite.ErrorIs(err, ErrAssigneeNotMember)
	suite.Zero(suite.count(&models.Task{}))
}

func (suite *ServiceTestSuite) TestCreateTask_LeaderReplacedMeanwhile() {
	f := suite.setupTeam()
	newLeader, _ := suite.createUser("new-leader@example.com", models.RoleTeamLeader)
	repo := racingTasks{TaskRepository: suite.taskRepo, before: func() {
		_, err := suite.teams.Update(suite.ctx, f.admin, f.team.ID, UpdateTeamInput{LeaderID: &newLeader.ID})
		suite.Require().NoError(err)
	}}
	svc := NewTaskService(repo, suite.teamRepo, suite.files, nil, suite.policy)

	_, err := svc.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: "Fix bug"})
	suite.ErrorIs(err, authz.ErrNotTeamLeader)
	suite.Zero(suite.count(&models.Task{}))
}

func (suite *ServiceTestSuite) TestCreateComment_TaskDeletedMeanwhile() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)
	repo := racingComments{CommentRepository: suite.commentRepo, before: func() {
		suite.Require().NoError(suite.tasks.Delete(suite.ctx, f.leader, task.ID))
	}}
	svc := NewCommentService(repo, suite.taskRepo, suite.teamRepo, suite.policy)

	_, err := svc.Create(suite.ctx, f.member, task.ID, "on it")
	suite.ErrorIs(err, ErrTaskNotFound)
	suite.Zero(suite.count(&models.Comment{}))
}

func (suite *ServiceTestSuite) TestCreateComment_AuthorRemovedMeanwhile() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)
	repo := racingComments{CommentRepository: suite.commentRepo, before: func() {
		suite.Require().NoError(suite.teams.RemoveMember(suite.ctx, f.leader, f.team.ID, f.member.ID))
	}}
	svc := NewCommentService(repo, suite.taskRepo, suite.teamRepo, suite.policy)

	_, err := svc.Create(suite.ctx, f.member, task.ID, "on it")
	suite.ErrorIs(err, authz.ErrNotTeamMember)
	suite.Zero(suite.count(&models.Comment{}))
}

func (suite *ServiceTestSuite) TestUpload_TaskDeletedMeanwhile() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)
	repo := racingAttachments{AttachmentRepository: suite.attachmentRepo, before: func() {
		suite.Require().NoError(suite.tasks.Delete(suite.ctx, f.leader, task.ID))
	}}
	svc := NewAttachmentService(repo, suite.taskRepo, suite.teamRepo, suite.files, suite.policy)

	_, err := svc.Upload(suite.ctx, f.member, task.ID, "notes.txt", strings.NewReader("draft"))
	suite.ErrorIs(err, ErrTaskNotFound)
	suite.Zero(suite.count(&models.Attachment{}))

	entries, err := os.ReadDir(suite.uploadDir)
	suite.Require().NoError(err)
	suite.Empty(entries)
}
