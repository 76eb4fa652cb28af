package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

var (
	ErrEmailTaken         = apierrors.New(apierrors.KindConflict, "Email already registered")
	ErrInvalidCredentials = apierrors.New(apierrors.KindUnauthenticated, "Incorrect email or password")
	ErrUserNotActivated   = apierrors.New(apierrors.KindForbidden, "User not activated by admin")
	ErrPasswordTooShort   = apierrors.New(apierrors.KindValidation, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	ErrUsernameRequired   = apierrors.New(apierrors.KindValidation, "Username is required")
	ErrUserNotFound       = apierrors.New(apierrors.KindNotFound, "User not found")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *utils.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *utils.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup creates an inactive MEMBER account. An administrator has to
// activate it before the user can log in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	email := normalizeEmail(input.Email)

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, apierrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleMember,
		Active:       false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, apierrors.Internal(fmt.Errorf("create user: %w", err))
	}

	logger.Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is an issued access token and the user it belongs to.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

// Login verifies credentials and issues an access token. Credentials are
// checked before the activation state.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, apierrors.Internal(fmt.Errorf("find user: %w", err))
	}

	if !utils.CheckPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUserNotActivated
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apierrors.Internal(err)
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	return user, nil
}

// SeedAdmin creates the default active ADMIN account unless the email is
// already registered.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if password == "" {
		password = constants.DefaultAdminPassword
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     "admin",
		Email:        normalizeEmail(email),
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	created, err := s.userRepo.EnsureExists(ctx, admin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info().Str("email", admin.Email).Msg("default admin created")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
