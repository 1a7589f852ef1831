// services/comment_service.go - comments under issues
package services

import (
	"strings"
	"time"

	"bugtrack/apperrors"
	"bugtrack/models"

	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// ListComments returns an issue's comments oldest first.
func (s *CommentService) ListComments(projectID, issueID, userID uint) ([]models.Comment, error) {
	if _, err := s.requireIssue(projectID, issueID); err != nil {
		return nil, err
	}
	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	var comments []models.Comment
	err := s.db.Where("issue_id = ?", issueID).
		Preload("Author").
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to list comments")
	}

	return comments, nil
}

// CreateComment adds a comment authored by the acting user. Any project
// member may comment.
func (s *CommentService) CreateComment(projectID, issueID, userID uint, content string) (*models.Comment, error) {
	if _, err := s.requireIssue(projectID, issueID); err != nil {
		return nil, err
	}
	if !isProjectMember(s.db, projectID, userID) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("Comment content is required").
			WithDetail("content", "cannot be empty")
	}

	comment := models.Comment{
		Content:  content,
		IssueID:  issueID,
		AuthorID: userID,
	}

	// Creating a comment also bumps the issue so the derived comment_count
	// and updated_at move together.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Issue{}).Where("id = ?", issueID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to create comment")
	}

	s.db.Preload("Author").First(&comment, comment.ID)
	return &comment, nil
}

// UpdateComment edits a comment's content. Author only.
func (s *CommentService) UpdateComment(projectID, issueID, commentID, userID uint, content string) (*models.Comment, error) {
	comment, err := s.requireComment(projectID, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}
	if comment.AuthorID != userID {
		return nil, apperrors.Forbidden("Only the author can edit a comment")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("Comment content is required").
			WithDetail("content", "cannot be empty")
	}

	if err := s.db.Model(comment).Updates(map[string]interface{}{
		"content":    content,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, apperrors.Internal("Failed to update comment")
	}

	s.db.Preload("Author").First(comment, commentID)
	return comment, nil
}

// DeleteComment removes a comment. The author, or the project owner/admin.
func (s *CommentService) DeleteComment(projectID, issueID, commentID, userID uint) error {
	comment, err := s.requireComment(projectID, issueID, commentID)
	if err != nil {
		return err
	}

	role := memberRole(s.db, projectID, userID)
	if !Can(role, ActionView) {
		return apperrors.Forbidden("You are not a member of this project")
	}
	if comment.AuthorID != userID && !Can(role, ActionEdit) {
		return apperrors.Forbidden("You cannot delete this comment")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Issue{}).Where("id = ?", issueID).
			Update("updated_at", time.Now()).Error
	})
}

// ================== HELPERS ==================

func (s *CommentService) requireIssue(projectID, issueID uint) (*models.Issue, error) {
	var project models.Project
	if err := s.db.Select("id").First(&project, projectID).Error; err != nil {
		return nil, apperrors.NotFound("Project not found")
	}

	var issue models.Issue
	if err := s.db.Where("id = ? AND project_id = ?", issueID, projectID).First(&issue).Error; err != nil {
		return nil, apperrors.NotFound("Issue not found")
	}
	return &issue, nil
}

func (s *CommentService) requireComment(projectID, issueID, commentID uint) (*models.Comment, error) {
	if _, err := s.requireIssue(projectID, issueID); err != nil {
		return nil, err
	}

	var comment models.Comment
	if err := s.db.Where("id = ? AND issue_id = ?", commentID, issueID).First(&comment).Error; err != nil {
		return nil, apperrors.NotFound("Comment not found")
	}
	return &comment, nil
}
