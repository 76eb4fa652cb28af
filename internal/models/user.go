package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the account-level role of a user. Values are always stored and
// compared in their canonical upper-case form.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTeamLeader Role = "TEAM_LEADER"
	RoleMember     Role = "MEMBER"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleAdmin, RoleTeamLeader, RoleMember}

// ParseRole normalizes a raw role string. Matching is case-insensitive.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, r := range ValidRoles {
		if r == role {
			return role, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", raw)
}

// Scan normalizes roles read from the store, which may carry mixed case.
func (r *Role) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*r = Role(strings.ToUpper(strings.TrimSpace(v)))
	case []byte:
		*r = Role(strings.ToUpper(strings.TrimSpace(string(v))))
	case nil:
		*r = ""
	default:
		return fmt.Errorf("unsupported role value %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(100);not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	Active       bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Memberships []TeamMember `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
