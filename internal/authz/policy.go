// Package authz decides whether a caller may perform an action on a resource.
//
// Every decision is a pure function of snapshots the caller already loaded:
// nothing here touches the store, so the same inputs always give the same
// answer. Roles are normalized before any comparison.
package authz

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/models"
)

// Caller is the authenticated principal a decision is made for.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

func (c Caller) role() models.Role {
	return normalize(c.Role)
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool {
	return c.role() == models.RoleAdmin
}

func normalize(r models.Role) models.Role {
	return models.Role(strings.ToUpper(strings.TrimSpace(string(r))))
}

// Policy holds the switches that vary between deployments.
// AdminBypass lets ADMIN callers create and delete tasks in any team.
type Policy struct {
	AdminBypass bool
}

// MemberAction is a change to a team's membership.
type MemberAction int

const (
	MemberAdd MemberAction = iota
	MemberRemove
)

// AdminAction is a management action on a user account.
type AdminAction int

const (
	AdminToggleActive AdminAction = iota
	AdminChangeRole
	AdminDelete
)

// Visibility is how much of a team's task list a caller may see.
type Visibility int

const (
	VisibilityNone Visibility = iota
	// VisibilityAssigned limits the caller to tasks assigned to them.
	VisibilityAssigned
	VisibilityAll
)

// TeamMemberChange allows ADMIN callers and the team's own leader to add or
// remove members. The leader can never be removed from their own team.
func (p Policy) TeamMemberChange(c Caller, leaderID, memberID uuid.UUID, action MemberAction) error {
	if !c.IsAdmin() && !(c.role() == models.RoleTeamLeader && c.ID == leaderID) {
		return ErrNotTeamLeader
	}
	if action == MemberRemove && memberID == leaderID {
		return ErrCannotRemoveLeader
	}
	return nil
}

// TaskCreate allows only the team's own leader to create tasks.
func (p Policy) TaskCreate(c Caller, leaderID uuid.UUID) error {
	if p.AdminBypass && c.IsAdmin() {
		return nil
	}
	if c.role() != models.RoleTeamLeader {
		return ErrTeamLeaderOnly
	}
	if c.ID != leaderID {
		return ErrNotTeamLeader
	}
	return nil
}

// TaskUpdate returns the fields the caller may change. The leader may change
// anything. The assignee may change the status and nothing else: a request
// touching any other field is rejected as a whole.
func (p Policy) TaskUpdate(c Caller, leaderID uuid.UUID, assigneeID *uuid.UUID, requested FieldSet) (FieldSet, error) {
	if c.ID == leaderID || (p.AdminBypass && c.IsAdmin()) {
		return requested, nil
	}
	if assigneeID != nil && *assigneeID == c.ID {
		if !requested.Within(FieldStatus) {
			return 0, ErrStatusOnly
		}
		return requested, nil
	}
	return 0, ErrNotTaskParticipant
}

// TaskDelete allows only the team's own leader to delete tasks.
func (p Policy) TaskDelete(c Caller, leaderID uuid.UUID) error {
	if p.AdminBypass && c.IsAdmin() {
		return nil
	}
	if c.ID != leaderID {
		return ErrNotTeamLeader
	}
	return nil
}

// CommentMutate allows the author or any ADMIN to edit or delete a comment.
func (p Policy) CommentMutate(c Caller, authorID uuid.UUID) error {
	if c.ID == authorID || c.IsAdmin() {
		return nil
	}
	return ErrNotCommentAuthor
}

// AdminAction allows ADMIN callers to manage any account except another ADMIN.
func (p Policy) AdminAction(c Caller, targetRole models.Role, action AdminAction) error {
	if !c.IsAdmin() {
		return ErrAdminOnly
	}
	if normalize(targetRole) != models.RoleAdmin {
		return nil
	}
	switch action {
	case AdminChangeRole:
		return ErrCannotChangeAdminRole
	case AdminDelete:
		return ErrCannotDeleteAdmin
	default:
		return ErrCannotActivateAdmin
	}
}

// RequireAdmin allows only ADMIN callers.
func (p Policy) RequireAdmin(c Caller) error {
	if !c.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// TeamAdminister allows only ADMIN callers to create or delete teams and to
// list every team.
func (p Policy) TeamAdminister(c Caller) error {
	return p.RequireAdmin(c)
}

// TeamUpdate allows ADMIN callers to change anything and the team's leader to
// change its name and description.
func (p Policy) TeamUpdate(c Caller, leaderID uuid.UUID, changesLeader bool) error {
	if c.IsAdmin() {
		return nil
	}
	if c.ID != leaderID {
		return ErrNotTeamLeader
	}
	if changesLeader {
		return ErrAdminOnly
	}
	return nil
}

// TeamView allows ADMIN callers and members to see a team and its tasks.
func (p Policy) TeamView(c Caller, isMember bool) error {
	if c.IsAdmin() || isMember {
		return nil
	}
	return ErrNotTeamMember
}

// TaskVisibility decides how much of a team's task list the caller sees.
func (p Policy) TaskVisibility(c Caller, leaderID uuid.UUID, isMember bool) (Visibility, error) {
	switch {
	case c.IsAdmin(), c.ID == leaderID:
		return VisibilityAll, nil
	case isMember:
		return VisibilityAssigned, nil
	default:
		return VisibilityNone, ErrNotTeamMember
	}
}

// LeaderOnly restricts an action to the team's leader.
func (p Policy) LeaderOnly(c Caller) error {
	if c.role() != models.RoleTeamLeader {
		return ErrTeamLeaderOnly
	}
	return nil
}
