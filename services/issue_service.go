// services/issue_service.go - issue CRUD, search and pagination
package services

import (
	"strings"
	"time"

	"bugtrack/apperrors"
	"bugtrack/models"
	"bugtrack/utils"

	"gorm.io/gorm"
)

type IssueService struct {
	db *gorm.DB
}

func NewIssueService(db *gorm.DB) *IssueService {
	return &IssueService{db: db}
}

type CreateIssueInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.IssueStatus   `json:"status"`
	Priority    models.IssuePriority `json:"priority"`
	AssigneeID  *uint                `json:"assignee_id"`
}

// UpdateIssueInput carries a partial update. AssigneeSet distinguishes an
// absent assignee_id field from an explicit null (which clears the assignee).
type UpdateIssueInput struct {
	Title       *string
	Description *string
	Status      *models.IssueStatus
	Priority    *models.IssuePriority
	AssigneeID  *uint
	AssigneeSet bool
}

// IssueFilter narrows ListIssues results.
type IssueFilter struct {
	Search   string
	Status   models.IssueStatus
	Priority models.IssuePriority
}

// CreateIssue files an issue in a project with the acting user as reporter.
// Any project member may report; the assignee, if given, must be a member.
func (s *IssueService) CreateIssue(projectID, reporterID uint, input CreateIssueInput) (*models.IssueInfo, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, err
	}
	if !isProjectMember(s.db, projectID, reporterID) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, apperrors.Validation("Issue title is required").
			WithDetail("title", "cannot be empty")
	}

	if input.Status == "" {
		input.Status = models.IssueStatusOpen
	}
	if !models.ValidStatus(input.Status) {
		return nil, apperrors.Validation("Invalid status").
			WithDetail("status", "must be one of open, in_progress, resolved, closed")
	}
	if input.Priority == "" {
		input.Priority = models.IssuePriorityMedium
	}
	if !models.ValidPriority(input.Priority) {
		return nil, apperrors.Validation("Invalid priority").
			WithDetail("priority", "must be one of low, medium, high, critical")
	}

	if input.AssigneeID != nil && !isProjectMember(s.db, projectID, *input.AssigneeID) {
		return nil, apperrors.Validation("Assignee must be a member of the project").
			WithDetail("assignee_id", "not a project member")
	}

	issue := models.Issue{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		ProjectID:   projectID,
		ReporterID:  reporterID,
		AssigneeID:  input.AssigneeID,
	}

	if err := s.db.Create(&issue).Error; err != nil {
		return nil, apperrors.Internal("Failed to create issue")
	}

	info := s.load(issue.ID)
	return info, nil
}

// GetIssue returns a single issue with its derived comment count.
func (s *IssueService) GetIssue(projectID, issueID, userID uint) (*models.IssueInfo, error) {
	if _, err := s.requireIssue(projectID, issueID); err != nil {
		return nil, err
	}
	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	return s.load(issueID), nil
}

// ListIssues pages through a project's issues, newest first. The search term
// matches title or description, case-insensitive substring.
func (s *IssueService) ListIssues(projectID, userID uint, page, pageSize int, filter IssueFilter) ([]models.IssueInfo, *utils.Pagination, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, nil, err
	}
	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, nil, apperrors.Forbidden("You are not a member of this project")
	}

	query := s.db.Model(&models.Issue{}).Where("project_id = ?", projectID)
	query = applyIssueFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	var issues []models.Issue
	err := query.Preload("Reporter").Preload("Assignee").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&issues).Error
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	infos := s.withCounts(issues)
	pagination := utils.Paginate(count, page, pageSize)
	return infos, &pagination, nil
}

// MyIssues returns issues assigned to the acting user across all projects,
// newest first.
func (s *IssueService) MyIssues(userID uint, page, pageSize int, filter IssueFilter) ([]models.IssueInfo, *utils.Pagination, error) {
	query := s.db.Model(&models.Issue{}).Where("assignee_id = ?", userID)
	query = applyIssueFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	var issues []models.Issue
	err := query.Preload("Reporter").Preload("Assignee").Preload("Project").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&issues).Error
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	infos := s.withCounts(issues)
	pagination := utils.Paginate(count, page, pageSize)
	return infos, &pagination, nil
}

// ListAccessible pages through issues across every project the user owns or
// belongs to, newest first.
func (s *IssueService) ListAccessible(userID uint, page, pageSize int, filter IssueFilter) ([]models.IssueInfo, *utils.Pagination, error) {
	projectIDs := s.db.Model(&models.Project{}).Select("id").
		Where("owner_id = ? OR id IN (?)", userID,
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID))

	query := s.db.Model(&models.Issue{}).Where("project_id IN (?)", projectIDs)
	query = applyIssueFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	var issues []models.Issue
	err := query.Preload("Reporter").Preload("Assignee").Preload("Project").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&issues).Error
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to list issues")
	}

	infos := s.withCounts(issues)
	pagination := utils.Paginate(count, page, pageSize)
	return infos, &pagination, nil
}

// UpdateIssue applies a partial update. Owner/admin may edit any issue;
// the reporter and the current assignee may edit their own. The project
// association never changes.
func (s *IssueService) UpdateIssue(projectID, issueID, userID uint, input UpdateIssueInput) (*models.IssueInfo, error) {
	issue, err := s.requireIssue(projectID, issueID)
	if err != nil {
		return nil, err
	}

	role := memberRole(s.db, projectID, userID)
	if !Can(role, ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}
	if !s.canEditIssue(role, issue, userID) {
		return nil, apperrors.Forbidden("You cannot edit this issue")
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, apperrors.Validation("Issue title is required").
				WithDetail("title", "cannot be empty")
		}
		updates["title"] = trimmed
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Status != nil {
		if !models.ValidStatus(*input.Status) {
			return nil, apperrors.Validation("Invalid status").
				WithDetail("status", "must be one of open, in_progress, resolved, closed")
		}
		updates["status"] = *input.Status
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			return nil, apperrors.Validation("Invalid priority").
				WithDetail("priority", "must be one of low, medium, high, critical")
		}
		updates["priority"] = *input.Priority
	}
	if input.AssigneeSet {
		if input.AssigneeID == nil {
			updates["assignee_id"] = nil
		} else {
			if !isProjectMember(s.db, projectID, *input.AssigneeID) {
				return nil, apperrors.Validation("Assignee must be a member of the project").
					WithDetail("assignee_id", "not a project member")
			}
			updates["assignee_id"] = *input.AssigneeID
		}
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.db.Model(issue).Updates(updates).Error; err != nil {
			return nil, apperrors.Internal("Failed to update issue")
		}
	}

	return s.load(issueID), nil
}

// DeleteIssue removes an issue and its comments. Owner/admin or the
// reporter.
func (s *IssueService) DeleteIssue(projectID, issueID, userID uint) error {
	issue, err := s.requireIssue(projectID, issueID)
	if err != nil {
		return err
	}

	role := memberRole(s.db, projectID, userID)
	if !Can(role, ActionView) {
		return apperrors.Forbidden("You are not a member of this project")
	}
	if !Can(role, ActionEdit) && issue.ReporterID != userID {
		return apperrors.Forbidden("You cannot delete this issue")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", issueID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(issue).Error
	})
}

// ================== HELPERS ==================

// canEditIssue: owner/admin edit anything; a plain member edits issues they
// reported or are assigned to.
func (s *IssueService) canEditIssue(role Role, issue *models.Issue, userID uint) bool {
	if Can(role, ActionEdit) {
		return true
	}
	if issue.ReporterID == userID {
		return true
	}
	return issue.AssigneeID != nil && *issue.AssigneeID == userID
}

func (s *IssueService) requireProject(projectID uint) error {
	var project models.Project
	if err := s.db.Select("id").First(&project, projectID).Error; err != nil {
		return apperrors.NotFound("Project not found")
	}
	return nil
}

func (s *IssueService) requireIssue(projectID, issueID uint) (*models.Issue, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, err
	}

	var issue models.Issue
	if err := s.db.Where("id = ? AND project_id = ?", issueID, projectID).First(&issue).Error; err != nil {
		return nil, apperrors.NotFound("Issue not found")
	}
	return &issue, nil
}

func (s *IssueService) load(issueID uint) *models.IssueInfo {
	var issue models.Issue
	s.db.Preload("Reporter").Preload("Assignee").Preload("Project").First(&issue, issueID)

	var commentCount int64
	s.db.Model(&models.Comment{}).Where("issue_id = ?", issueID).Count(&commentCount)

	return &models.IssueInfo{Issue: issue, CommentCount: commentCount}
}

func (s *IssueService) withCounts(issues []models.Issue) []models.IssueInfo {
	infos := make([]models.IssueInfo, 0, len(issues))
	for _, issue := range issues {
		var commentCount int64
		s.db.Model(&models.Comment{}).Where("issue_id = ?", issue.ID).Count(&commentCount)
		infos = append(infos, models.IssueInfo{Issue: issue, CommentCount: commentCount})
	}
	return infos
}

func applyIssueFilter(query *gorm.DB, filter IssueFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	return query
}
