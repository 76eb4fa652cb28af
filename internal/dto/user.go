package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.Active,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDTOPtr converts an optional user. A missing user stays nil and is
// rendered as null.
func ToUserDTOPtr(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	dto := ToUserDTO(*user)
	return &dto
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, user := range users {
		dtos[i] = ToUserDTO(user)
	}
	return dtos
}

// ToLoginResponse converts a login result
func ToLoginResponse(result *services.LoginResult, tokenType string) LoginResponse {
	return LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   result.ExpiresAt,
		User:        ToUserDTO(*result.User),
	}
}
