package services

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
)

// failingAttachments refuses every insert.
type failingAttachments struct {
	repository.AttachmentRepository
}

func (failingAttachments) Create(context.Context, *models.Attachment, repository.TaskGuard) error {
	return errors.New("insert failed")
}

func (suite *ServiceTestSuite) TestUploadAndDownload() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)

	attachment, err := suite.attachments.Upload(suite.ctx, f.member, task.ID, "report.txt", strings.NewReader("quarterly numbers"))
	suite.Require().NoError(err)
	suite.Equal("report.txt", attachment.Filename)
	suite.EqualValues(len("quarterly numbers"), attachment.Size)
	suite.True(strings.HasSuffix(attachment.Location, "_report.txt"))

	listed, err := suite.attachments.List(suite.ctx, f.leader, task.ID)
	suite.Require().NoError(err)
	suite.Len(listed, 1)

	// Any authenticated caller may download.
	download, err := suite.attachments.Open(suite.ctx, attachment.ID)
	suite.Require().NoError(err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	suite.Require().NoError(err)
	suite.Equal("quarterly numbers", string(body))
	suite.Contains(download.ContentType, "text/plain")
}

func (suite *ServiceTestSuite) TestUpload_Rejections() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)

	_, err := suite.attachments.Upload(suite.ctx, f.outsider, task.ID, "x.txt", strings.NewReader("x"))
	suite.ErrorIs(err, authz.ErrNotTeamMember)

	_, err = suite.attachments.Upload(suite.ctx, f.member, task.ID, "big.bin", strings.NewReader(strings.Repeat("a", 2048)))
	suite.ErrorIs(err, ErrFileTooLarge)

	_, err = suite.attachments.Upload(suite.ctx, f.member, task.ID, strings.Repeat("n", 252)+".txt", strings.NewReader("x"))
	suite.ErrorIs(err, ErrFilenameTooLong)
	suite.assertKind(err, apierrors.KindValidation)

	_, err = suite.attachments.List(suite.ctx, f.outsider, task.ID)
	suite.ErrorIs(err, authz.ErrNotTeamMember)

	entries, err := os.ReadDir(suite.uploadDir)
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *ServiceTestSuite) TestUpload_RemovesFileWhenRecordFails() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)
	dir := suite.T().TempDir()
	files, err := storage.NewLocalStore(dir, 1024)
	suite.Require().NoError(err)

	svc := NewAttachmentService(failingAttachments{suite.attachmentRepo}, suite.taskRepo, suite.teamRepo, files, suite.policy)
	_, err = svc.Upload(suite.ctx, f.member, task.ID, "notes.txt", strings.NewReader("draft"))
	suite.Require().Error(err)

	entries, err := os.ReadDir(dir)
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *ServiceTestSuite) TestDownload_MissingFile() {
	f := suite.setupTeam()
	task := suite.createTask(f, nil)

	attachment, err := suite.attachments.Upload(suite.ctx, f.member, task.ID, "gone.txt", strings.NewReader("bye"))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.files.Remove(attachment.Location))

	_, err = suite.attachments.Open(suite.ctx, attachment.ID)
	suite.ErrorIs(err, ErrFileMissing)
}
