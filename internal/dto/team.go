package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	LeaderID    uuid.UUID `json:"leader_id"`
	Leader      *UserDTO  `json:"leader"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	User     *UserDTO  `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamDetailDTO represents a team with its members
type TeamDetailDTO struct {
	TeamDTO
	Members []TeamMemberDTO `json:"members"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		LeaderID:    team.LeaderID,
		Leader:      ToUserDTOPtr(team.Leader),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}

// ToTeamDTOs converts a slice of teams
func ToTeamDTOs(teams []models.Team) []TeamDTO {
	dtos := make([]TeamDTO, len(teams))
	for i, team := range teams {
		dtos[i] = ToTeamDTO(team)
	}
	return dtos
}

// ToTeamMemberDTO converts a membership to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTOPtr(member.User),
		JoinedAt: member.JoinedAt,
	}
}

// ToTeamDetailDTO converts a team with loaded members
func ToTeamDetailDTO(team models.Team) TeamDetailDTO {
	members := make([]TeamMemberDTO, len(team.Members))
	for i, member := range team.Members {
		members[i] = ToTeamMemberDTO(member)
	}
	return TeamDetailDTO{
		TeamDTO: ToTeamDTO(team),
		Members: members,
	}
}
