// services/policy.go - role resolution and the project authorization policy
package services

import (
	"bugtrack/models"

	"gorm.io/gorm"
)

// Role is the effective role of a user within a project. The owner never has
// a membership row, so this is a superset of models.ProjectRole.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleNone   Role = "none"
)

type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage-members"
)

// Can is the project-level policy. Per-object rules (own-content edits for
// plain members, reporter/assignee issue edits, author comment edits) are
// layered on top by the services.
//
//	owner:  everything
//	admin:  view, edit project content; cannot delete the project or
//	        touch membership
//	member: view and create; own-content writes only
//	none:   nothing
func Can(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return action == ActionView || action == ActionEdit
	case RoleMember:
		return action == ActionView
	default:
		return false
	}
}

// memberRole resolves a user's effective role in a project, owner first.
func memberRole(db *gorm.DB, projectID, userID uint) Role {
	var project models.Project
	if err := db.Select("id", "owner_id").First(&project, projectID).Error; err != nil {
		return RoleNone
	}
	if project.OwnerID == userID {
		return RoleOwner
	}

	var member models.ProjectMember
	if err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error; err != nil {
		return RoleNone
	}

	switch member.Role {
	case models.ProjectRoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// isProjectMember reports whether a user may act inside a project at all
// (owner, admin or plain member).
func isProjectMember(db *gorm.DB, projectID, userID uint) bool {
	return memberRole(db, projectID, userID) != RoleNone
}
