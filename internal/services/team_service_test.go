package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

func (suite *ServiceTestSuite) TestCreateTeam_LeaderIsFirstMember() {
	_, admin := suite.createUser("admin@example.com", models.RoleAdmin)
	leader, _ := suite.createUser("leader@example.com", models.RoleTeamLeader)

	team, err := suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: " Eng ", LeaderID: leader.ID})
	suite.Require().NoError(err)
	suite.Equal("Eng", team.Name)
	suite.Require().Len(team.Members, 1)
	suite.Equal(leader.ID, team.Members[0].UserID)
	suite.Require().NotNil(team.Leader)
	suite.Equal(leader.Email, team.Leader.Email)
}

func (suite *ServiceTestSuite) TestCreateTeam_Rules() {
	_, admin := suite.createUser("admin@example.com", models.RoleAdmin)
	leader, leaderCaller := suite.createUser("leader@example.com", models.RoleTeamLeader)
	member, _ := suite.createUser("member@example.com", models.RoleMember)

	_, err := suite.teams.Create(suite.ctx, leaderCaller, CreateTeamInput{Name: "Eng", LeaderID: leader.ID})
	suite.ErrorIs(err, authz.ErrAdminOnly)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: "Eng", LeaderID: member.ID})
	suite.ErrorIs(err, ErrLeaderRole)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: "Eng", LeaderID: uuid.New()})
	suite.ErrorIs(err, ErrLeaderNotFound)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: "   ", LeaderID: leader.ID})
	suite.ErrorIs(err, ErrTeamNameRequired)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: strings.Repeat("x", 256), LeaderID: leader.ID})
	suite.ErrorIs(err, ErrTeamNameTooLong)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: "Eng", LeaderID: leader.ID})
	suite.Require().NoError(err)

	_, err = suite.teams.Create(suite.ctx, admin, CreateTeamInput{Name: "Ops", LeaderID: leader.ID})
	suite.ErrorIs(err, ErrLeaderHasTeam)
	suite.assertKind(err, apierrors.KindConflict)
}

func (suite *ServiceTestSuite) TestMembership() {
	f := suite.setupTeam()

	_, err := suite.teams.AddMember(suite.ctx, f.leader, f.team.ID, f.member.ID)
	suite.ErrorIs(err, ErrAlreadyTeamMember)

	_, err = suite.teams.AddMember(suite.ctx, f.member, f.team.ID, f.outsider.ID)
	suite.ErrorIs(err, authz.ErrNotTeamLeader)

	_, err = suite.teams.AddMember(suite.ctx, f.leader, f.team.ID, uuid.New())
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = suite.teams.AddMember(suite.ctx, f.leader, uuid.New(), f.outsider.ID)
	suite.ErrorIs(err, ErrTeamNotFound)

	added, err := suite.teams.AddMember(suite.ctx, f.admin, f.team.ID, f.outsider.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(added.User)
	suite.Equal(f.outsider.ID, added.User.ID)

	suite.Require().NoError(suite.teams.RemoveMember(suite.ctx, f.leader, f.team.ID, f.outsider.ID))

	err = suite.teams.RemoveMember(suite.ctx, f.leader, f.team.ID, f.outsider.ID)
	suite.ErrorIs(err, ErrMembershipNotFound)
}

func (suite *ServiceTestSuite) TestLeaderCannotBeRemoved() {
	f := suite.setupTeam()

	for _, caller := range []authz.Caller{f.leader, f.admin} {
		err := suite.teams.RemoveMember(suite.ctx, caller, f.team.ID, f.leader.ID)
		suite.ErrorIs(err, authz.ErrCannotRemoveLeader)
	}

	ok, err := suite.teamRepo.IsMember(suite.ctx, f.team.ID, f.leader.ID)
	suite.Require().NoError(err)
	suite.True(ok)
}

func (suite *ServiceTestSuite) TestRemoveMember_UnassignsTasks() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)

	suite.Require().NoError(suite.teams.RemoveMember(suite.ctx, f.leader, f.team.ID, f.member.ID))

	stored, err := suite.taskRepo.FindByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.AssigneeID)
}

func (suite *ServiceTestSuite) TestGetTeam_Visibility() {
	f := suite.setupTeam()

	for _, caller := range []authz.Caller{f.admin, f.leader, f.member} {
		team, err := suite.teams.Get(suite.ctx, caller, f.team.ID)
		suite.Require().NoError(err)
		suite.Len(team.Members, 2)
	}

	_, err := suite.teams.Get(suite.ctx, f.outsider, f.team.ID)
	suite.ErrorIs(err, authz.ErrNotTeamMember)

	_, err = suite.teams.Get(suite.ctx, f.admin, uuid.New())
	suite.ErrorIs(err, ErrTeamNotFound)
}

func (suite *ServiceTestSuite) TestMyTeams() {
	f := suite.setupTeam()

	led, err := suite.teams.MyLedTeam(suite.ctx, f.leader)
	suite.Require().NoError(err)
	suite.Equal(f.team.ID, led.ID)

	_, err = suite.teams.MyLedTeam(suite.ctx, f.member)
	suite.ErrorIs(err, authz.ErrTeamLeaderOnly)

	_, otherLeader := suite.createUser("idle@example.com", models.RoleTeamLeader)
	_, err = suite.teams.MyLedTeam(suite.ctx, otherLeader)
	suite.ErrorIs(err, ErrNoLedTeam)

	teams, err := suite.teams.MyTeams(suite.ctx, f.member)
	suite.Require().NoError(err)
	suite.Require().Len(teams, 1)
	suite.Equal(f.team.ID, teams[0].ID)

	teams, err = suite.teams.MyTeams(suite.ctx, f.outsider)
	suite.Require().NoError(err)
	suite.Empty(teams)
}

func (suite *ServiceTestSuite) TestListTeamsAndAvailableMembers() {
	f := suite.setupTeam()

	teams, total, err := suite.teams.List(suite.ctx, f.admin, utils.NewPaginationParams(1, 20))
	suite.Require().NoError(err)
	suite.Len(teams, 1)
	suite.EqualValues(1, total)

	_, _, err = suite.teams.List(suite.ctx, f.leader, utils.NewPaginationParams(1, 20))
	suite.ErrorIs(err, authz.ErrAdminOnly)

	users, err := suite.teams.AvailableMembers(suite.ctx, f.leader)
	suite.Require().NoError(err)
	suite.Len(users, 2)
	for _, u := range users {
		suite.Equal(models.RoleMember, u.Role)
	}

	_, err = suite.teams.AvailableMembers(suite.ctx, f.member)
	suite.ErrorIs(err, authz.ErrTeamLeaderOnly)
}

func (suite *ServiceTestSuite) TestUpdateTeam() {
	f := suite.setupTeam()
	newLeader, _ := suite.createUser("new-leader@example.com", models.RoleTeamLeader)

	updated, err := suite.teams.Update(suite.ctx, f.leader, f.team.ID, UpdateTeamInput{
		Name:        strPtr("Platform"),
		Description: strPtr("Infra and tooling"),
	})
	suite.Require().NoError(err)
	suite.Equal("Platform", updated.Name)
	suite.Equal("Infra and tooling", *updated.Description)

	_, err = suite.teams.Update(suite.ctx, f.leader, f.team.ID, UpdateTeamInput{LeaderID: &newLeader.ID})
	suite.ErrorIs(err, authz.ErrAdminOnly)

	_, err = suite.teams.Update(suite.ctx, f.member, f.team.ID, UpdateTeamInput{Name: strPtr("Mine")})
	suite.ErrorIs(err, authz.ErrNotTeamLeader)

	_, err = suite.teams.Update(suite.ctx, f.admin, f.team.ID, UpdateTeamInput{LeaderID: &f.member.ID})
	suite.ErrorIs(err, ErrLeaderRole)

	updated, err = suite.teams.Update(suite.ctx, f.admin, f.team.ID, UpdateTeamInput{LeaderID: &newLeader.ID})
	suite.Require().NoError(err)
	suite.Equal(newLeader.ID, updated.LeaderID)

	ok, err := suite.teamRepo.IsMember(suite.ctx, f.team.ID, newLeader.ID)
	suite.Require().NoError(err)
	suite.True(ok)
}

func (suite *ServiceTestSuite) TestUpdateTeam_LeaderAlreadyLeadsAnotherTeam() {
	f := suite.setupTeam()
	other, _ := suite.createUser("other-leader@example.com", models.RoleTeamLeader)
	_, err := suite.teams.Create(suite.ctx, f.admin, CreateTeamInput{Name: "Ops", LeaderID: other.ID})
	suite.Require().NoError(err)

	_, err = suite.teams.Update(suite.ctx, f.admin, f.team.ID, UpdateTeamInput{LeaderID: &other.ID})
	suite.ErrorIs(err, ErrLeaderHasTeam)
}

func (suite *ServiceTestSuite) TestDeleteTeam_Cascades() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)
	_, err := suite.comments.Create(suite.ctx, f.member, task.ID, "on it")
	suite.Require().NoError(err)
	attachment, err := suite.attachments.Upload(suite.ctx, f.member, task.ID, "notes.txt", strings.NewReader("hello"))
	suite.Require().NoError(err)

	err = suite.teams.Delete(suite.ctx, f.leader, f.team.ID)
	suite.ErrorIs(err, authz.ErrAdminOnly)

	suite.Require().NoError(suite.teams.Delete(suite.ctx, f.admin, f.team.ID))

	_, err = suite.tasks.Get(suite.ctx, f.admin, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.files.Open(attachment.Location)
	suite.Error(err)

	err = suite.teams.Delete(suite.ctx, f.admin, f.team.ID)
	suite.ErrorIs(err, ErrTeamNotFound)
}
