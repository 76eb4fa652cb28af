package services

import (
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

func (suite *ServiceTestSuite) TestAdminAccountsAreImmutable() {
	_, admin := suite.createUser("admin@example.com", models.RoleAdmin)
	target, _ := suite.createUser("other-admin@example.com", models.RoleAdmin)
	_, leader := suite.createUser("leader@example.com", models.RoleTeamLeader)

	for _, tc := range []struct {
		name string
		fn   func() error
	}{
		{"toggle by admin", func() error { _, err := suite.users.ToggleActive(suite.ctx, admin, target.ID); return err }},
		{"role by admin", func() error { _, err := suite.users.ChangeRole(suite.ctx, admin, target.ID, "MEMBER"); return err }},
		{"delete by admin", func() error { return suite.users.Delete(suite.ctx, admin, target.ID) }},
		{"toggle by leader", func() error { _, err := suite.users.ToggleActive(suite.ctx, leader, target.ID); return err }},
		{"delete self", func() error { return suite.users.Delete(suite.ctx, admin, admin.ID) }},
	} {
		suite.Run(tc.name, func() {
			suite.assertKind(tc.fn(), apierrors.KindForbidden)
		})
	}

	stored, err := suite.userRepo.FindByID(suite.ctx, target.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, stored.Role)
	suite.True(stored.Active)
}

func (suite *ServiceTestSuite) TestChangeRole() {
	_, admin := suite.createUser("admin@example.com", models.RoleAdmin)
	user, member := suite.createUser("member@example.com", models.RoleMember)

	updated, err := suite.users.ChangeRole(suite.ctx, admin, user.ID, " team_leader ")
	suite.Require().NoError(err)
	suite.Equal(models.RoleTeamLeader, updated.Role)

	_, err = suite.users.ChangeRole(suite.ctx, admin, user.ID, "OWNER")
	suite.ErrorIs(err, ErrInvalidRole)

	// The permission check wins over the value check.
	_, err = suite.users.ChangeRole(suite.ctx, member, user.ID, "OWNER")
	suite.ErrorIs(err, authz.ErrAdminOnly)
}

func (suite *ServiceTestSuite) TestChangeRole_SittingLeaderKeepsRole() {
	f := suite.setupTeam()

	_, err := suite.users.ChangeRole(suite.ctx, f.admin, f.leader.ID, "MEMBER")
	suite.ErrorIs(err, ErrUserLeadsTeam)
	suite.assertKind(err, apierrors.KindConflict)

	stored, err := suite.userRepo.FindByID(suite.ctx, f.leader.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleTeamLeader, stored.Role)

	// The leader can still run the team.
	_, err = suite.tasks.Create(suite.ctx, f.leader, f.team.ID, CreateTaskInput{Title: "Still leading"})
	suite.NoError(err)

	// Once replaced, the former leader can be demoted.
	newLeader, _ := suite.createUser("new-leader@example.com", models.RoleTeamLeader)
	_, err = suite.teams.Update(suite.ctx, f.admin, f.team.ID, UpdateTeamInput{LeaderID: &newLeader.ID})
	suite.Require().NoError(err)
	updated, err := suite.users.ChangeRole(suite.ctx, f.admin, f.leader.ID, "MEMBER")
	suite.Require().NoError(err)
	suite.Equal(models.RoleMember, updated.Role)
}

func (suite *ServiceTestSuite) TestListUsers() {
	_, admin := suite.createUser("admin@example.com", models.RoleAdmin)
	_, member := suite.createUser("member@example.com", models.RoleMember)

	users, total, err := suite.users.List(suite.ctx, admin, utils.NewPaginationParams(1, 10))
	suite.Require().NoError(err)
	suite.Len(users, 2)
	suite.EqualValues(2, total)

	_, _, err = suite.users.List(suite.ctx, member, utils.NewPaginationParams(1, 10))
	suite.assertKind(err, apierrors.KindForbidden)
}

func (suite *ServiceTestSuite) TestDeleteUser() {
	f := suite.setupTeam()
	task := suite.createTask(f, &f.member.ID)

	err := suite.users.Delete(suite.ctx, f.admin, f.leader.ID)
	suite.ErrorIs(err, ErrUserLeadsTeam)

	suite.Require().NoError(suite.users.Delete(suite.ctx, f.admin, f.member.ID))

	_, err = suite.users.Get(suite.ctx, f.member.ID)
	suite.ErrorIs(err, ErrUserNotFound)

	stored, err := suite.taskRepo.FindByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.AssigneeID)

	ok, err := suite.teamRepo.IsMember(suite.ctx, f.team.ID, f.member.ID)
	suite.Require().NoError(err)
	suite.False(ok)

	err = suite.users.Delete(suite.ctx, f.admin, f.member.ID)
	suite.ErrorIs(err, ErrUserNotFound)
}
