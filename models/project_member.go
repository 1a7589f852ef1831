// models/project_member.go
package models

import "time"

type ProjectRole string

const (
	ProjectRoleAdmin  ProjectRole = "admin"
	ProjectRoleMember ProjectRole = "member"
)

// ValidRole reports whether a role string is one of the assignable roles.
// The owner is never stored as a membership row.
func ValidRole(r ProjectRole) bool {
	return r == ProjectRoleAdmin || r == ProjectRoleMember
}

type ProjectMember struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	ProjectID uint        `json:"project_id" gorm:"not null;uniqueIndex:idx_project_user"`
	Project   *Project    `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	UserID    uint        `json:"user_id" gorm:"not null;uniqueIndex:idx_project_user"`
	User      *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Role      ProjectRole `json:"role" gorm:"not null;default:'member';size:20"`
	JoinedAt  time.Time   `json:"joined_at" gorm:"not null"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
