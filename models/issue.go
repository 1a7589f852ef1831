// models/issue.go
package models

import "time"

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// ValidStatus accepts any of the four statuses. Transitions are free-form:
// the status field is set directly, there is no enforced workflow order.
func ValidStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "low"
	IssuePriorityMedium   IssuePriority = "medium"
	IssuePriorityHigh     IssuePriority = "high"
	IssuePriorityCritical IssuePriority = "critical"
)

func ValidPriority(p IssuePriority) bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	}
	return false
}

type Issue struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Title       string        `json:"title" gorm:"not null;size:200"`
	Description string        `json:"description" gorm:"type:text"`
	Status      IssueStatus   `json:"status" gorm:"not null;default:'open';size:20;index"`
	Priority    IssuePriority `json:"priority" gorm:"not null;default:'medium';size:20;index"`
	ProjectID   uint          `json:"project_id" gorm:"not null;index"`
	Project     *Project      `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	ReporterID  uint          `json:"reporter_id" gorm:"not null"`
	Reporter    *User         `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
	AssigneeID  *uint         `json:"assignee_id" gorm:"index"`
	Assignee    *User         `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Comments    []Comment     `json:"-" gorm:"foreignKey:IssueID"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Issue) TableName() string {
	return "issues"
}

// IssueInfo is an issue plus its derived comment count.
type IssueInfo struct {
	Issue
	CommentCount int64 `json:"comment_count"`
}
