// models/project.go
package models

import "time"

type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:200"`
	Description string    `json:"description" gorm:"type:text"`
	OwnerID     uint      `json:"owner_id" gorm:"not null;index"`
	Owner       *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Issues      []Issue   `json:"-" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectInfo is a project plus its derived counts. The counts are computed
// from the membership and issue tables at read time, never stored.
type ProjectInfo struct {
	Project
	MemberCount int64 `json:"member_count"`
	IssueCount  int64 `json:"issue_count"`
}
