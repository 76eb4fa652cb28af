package services

import (
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
)

func (suite *ServiceTestSuite) TestSignupActivationLoginFlow() {
	_, admin := suite.createUser("root@example.com", models.RoleAdmin)

	user, err := suite.auth.Signup(suite.ctx, SignupInput{Username: "alice", Email: "a@x.com", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal(models.RoleMember, user.Role)
	suite.False(user.Active)

	_, err = suite.auth.Signup(suite.ctx, SignupInput{Username: "alice2", Email: "A@X.com", Password: "password123"})
	suite.ErrorIs(err, ErrEmailTaken)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Email: "a@x.com", Password: "password123"})
	suite.ErrorIs(err, ErrUserNotActivated)
	suite.assertKind(err, apierrors.KindForbidden)

	_, err = suite.users.ToggleActive(suite.ctx, admin, user.ID)
	suite.Require().NoError(err)

	result, err := suite.auth.Login(suite.ctx, LoginInput{Email: "a@x.com", Password: "password123"})
	suite.Require().NoError(err)
	suite.NotEmpty(result.AccessToken)
	suite.True(result.ExpiresAt.After(result.User.CreatedAt))

	claims, err := suite.tokens.Parse(result.AccessToken)
	suite.Require().NoError(err)
	subject, err := claims.UserID()
	suite.Require().NoError(err)
	suite.Equal(user.ID, subject)
}

func (suite *ServiceTestSuite) TestLogin_WrongPassword() {
	_, err := suite.auth.Signup(suite.ctx, SignupInput{Username: "bob", Email: "b@x.com", Password: "password123"})
	suite.Require().NoError(err)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Email: "b@x.com", Password: "wrong-password"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Email: "nobody@x.com", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *ServiceTestSuite) TestSignup_Validation() {
	_, err := suite.auth.Signup(suite.ctx, SignupInput{Username: "c", Email: "c@x.com", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)

	_, err = suite.auth.Signup(suite.ctx, SignupInput{Username: "  ", Email: "c@x.com", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameRequired)
}

func (suite *ServiceTestSuite) TestSeedAdmin_Idempotent() {
	suite.Require().NoError(suite.auth.SeedAdmin(suite.ctx, "Admin@Example.com", "adminpassword"))
	suite.Require().NoError(suite.auth.SeedAdmin(suite.ctx, "admin@example.com", "other"))

	admins, err := suite.userRepo.ListByRole(suite.ctx, models.RoleAdmin)
	suite.Require().NoError(err)
	suite.Len(admins, 1)
	suite.True(admins[0].Active)

	result, err := suite.auth.Login(suite.ctx, LoginInput{Email: "admin@example.com", Password: "adminpassword"})
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, result.User.Role)
}
