package authz

import apierrors "github.com/yukikurage/team-task-api/internal/errors"

// Denials. Each carries the reason shown to the caller.
var (
	ErrAdminOnly             = apierrors.New(apierrors.KindForbidden, "Only administrators can perform this action")
	ErrTeamLeaderOnly        = apierrors.New(apierrors.KindForbidden, "Only team leaders can perform this action")
	ErrNotTeamLeader         = apierrors.New(apierrors.KindForbidden, "Only the leader of this team can perform this action")
	ErrNotTeamMember         = apierrors.New(apierrors.KindForbidden, "You are not a member of this team")
	ErrCannotRemoveLeader    = apierrors.New(apierrors.KindForbidden, "Cannot remove the team leader from the team")
	ErrStatusOnly            = apierrors.New(apierrors.KindForbidden, "Assignees can only update the task status")
	ErrNotTaskParticipant    = apierrors.New(apierrors.KindForbidden, "Only the team leader or the assignee can update this task")
	ErrNotCommentAuthor      = apierrors.New(apierrors.KindForbidden, "Only the author or an administrator can modify this comment")
	ErrCannotActivateAdmin   = apierrors.New(apierrors.KindForbidden, "Cannot deactivate an administrator")
	ErrCannotChangeAdminRole = apierrors.New(apierrors.KindForbidden, "Cannot change role of an administrator")
	ErrCannotDeleteAdmin     = apierrors.New(apierrors.KindForbidden, "Cannot delete an administrator")
)
