// services/project_service.go - project CRUD and membership management
package services

import (
	"errors"
	"strings"
	"time"

	"bugtrack/apperrors"
	"bugtrack/models"
	"bugtrack/utils"

	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ================== PROJECT CRUD ==================

// CreateProject persists a project owned by the creator. The owner is an
// implicit member with full rights and never gets a membership row.
func (s *ProjectService) CreateProject(ownerID uint, name, description string) (*models.ProjectInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("Project name is required").
			WithDetail("name", "cannot be empty")
	}

	project := models.Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, apperrors.Internal("Failed to create project")
	}

	s.db.Preload("Owner").First(&project, project.ID)
	info := s.withCounts(project)
	return &info, nil
}

// ListProjects returns projects where the user is owner or member, most
// recently updated first.
func (s *ProjectService) ListProjects(userID uint, page, pageSize int) ([]models.ProjectInfo, *utils.Pagination, error) {
	base := s.db.Model(&models.Project{}).
		Where("owner_id = ? OR id IN (?)", userID,
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID))

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, nil, apperrors.Internal("Failed to list projects")
	}

	var projects []models.Project
	err := base.Preload("Owner").
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to list projects")
	}

	infos := make([]models.ProjectInfo, 0, len(projects))
	for _, p := range projects {
		infos = append(infos, s.withCounts(p))
	}

	pagination := utils.Paginate(count, page, pageSize)
	return infos, &pagination, nil
}

// GetProject returns a single project with derived counts. Non-members are
// denied regardless of whether the project exists.
func (s *ProjectService) GetProject(projectID, userID uint) (*models.ProjectInfo, error) {
	var project models.Project
	if err := s.db.Preload("Owner").First(&project, projectID).Error; err != nil {
		return nil, apperrors.NotFound("Project not found")
	}

	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	info := s.withCounts(project)
	return &info, nil
}

// UpdateProject updates name/description. Owner and admins only.
func (s *ProjectService) UpdateProject(projectID, userID uint, name, description *string) (*models.ProjectInfo, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, apperrors.NotFound("Project not found")
	}

	role := memberRole(s.db, projectID, userID)
	if !Can(role, ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}
	if !Can(role, ActionEdit) {
		return nil, apperrors.Forbidden("Only the project owner or an admin can update the project")
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.Validation("Project name is required").
				WithDetail("name", "cannot be empty")
		}
		updates["name"] = trimmed
	}
	if description != nil {
		updates["description"] = *description
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.db.Model(&project).Updates(updates).Error; err != nil {
			return nil, apperrors.Internal("Failed to update project")
		}
	}

	s.db.Preload("Owner").First(&project, projectID)
	info := s.withCounts(project)
	return &info, nil
}

// DeleteProject removes a project and everything under it. Owner only.
func (s *ProjectService) DeleteProject(projectID, userID uint) error {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return apperrors.NotFound("Project not found")
	}

	role := memberRole(s.db, projectID, userID)
	if !Can(role, ActionView) {
		return apperrors.Forbidden("You are not a member of this project")
	}
	if !Can(role, ActionDelete) {
		return apperrors.Forbidden("Only the project owner can delete the project")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		issueIDs := tx.Model(&models.Issue{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Where("issue_id IN (?)", issueIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Issue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}

// ================== MEMBERSHIP ==================

// ListMembers returns the explicit membership rows. The owner is implicit
// and is reported through the project's owner field instead.
func (s *ProjectService) ListMembers(projectID, userID uint) ([]models.ProjectMember, error) {
	if _, err := s.requireProject(projectID); err != nil {
		return nil, err
	}
	if !Can(memberRole(s.db, projectID, userID), ActionView) {
		return nil, apperrors.Forbidden("You are not a member of this project")
	}

	var members []models.ProjectMember
	err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Order("joined_at DESC").
		Find(&members).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to list members")
	}

	return members, nil
}

// AddMember adds a user to a project with the given role. Owner only.
func (s *ProjectService) AddMember(projectID, actingUserID, targetUserID uint, role models.ProjectRole) (*models.ProjectMember, error) {
	project, err := s.requireProject(projectID)
	if err != nil {
		return nil, err
	}

	if !Can(memberRole(s.db, projectID, actingUserID), ActionManageMembers) {
		return nil, apperrors.Forbidden("Only the project owner can manage members")
	}

	if role == "" {
		role = models.ProjectRoleMember
	}
	if !models.ValidRole(role) {
		return nil, apperrors.Validation("Invalid role").
			WithDetail("role", "must be 'member' or 'admin'")
	}

	var target models.User
	if err := s.db.First(&target, targetUserID).Error; err != nil {
		return nil, apperrors.NotFound("User not found")
	}

	if target.ID == project.OwnerID {
		return nil, apperrors.Validation("Project owner cannot be added as a member")
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    targetUserID,
		Role:      role,
		JoinedAt:  time.Now(),
	}

	// Membership changes bump the project's recency in listings. The
	// composite unique index is what rejects a duplicate, so two concurrent
	// adds cannot both land.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("User is already a member of this project")
		}
		return nil, apperrors.Internal("Failed to add member")
	}

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// UpdateMemberRole changes a member's role. Owner only; the owner has no
// membership row to change.
func (s *ProjectService) UpdateMemberRole(projectID, actingUserID, targetUserID uint, role models.ProjectRole) (*models.ProjectMember, error) {
	if _, err := s.requireProject(projectID); err != nil {
		return nil, err
	}

	if !Can(memberRole(s.db, projectID, actingUserID), ActionManageMembers) {
		return nil, apperrors.Forbidden("Only the project owner can manage members")
	}

	if !models.ValidRole(role) {
		return nil, apperrors.Validation("Invalid role").
			WithDetail("role", "must be 'member' or 'admin'")
	}

	var member models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, targetUserID).First(&member).Error; err != nil {
		return nil, apperrors.NotFound("Member not found")
	}

	if err := s.db.Model(&member).Update("role", role).Error; err != nil {
		return nil, apperrors.Internal("Failed to update member role")
	}

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// RemoveMember deletes a membership row. Owner only.
func (s *ProjectService) RemoveMember(projectID, actingUserID, targetUserID uint) error {
	if _, err := s.requireProject(projectID); err != nil {
		return err
	}

	if !Can(memberRole(s.db, projectID, actingUserID), ActionManageMembers) {
		return apperrors.Forbidden("Only the project owner can manage members")
	}

	var member models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, targetUserID).First(&member).Error; err != nil {
		return apperrors.NotFound("Member not found")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&member).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("updated_at", time.Now()).Error
	})
}

// ================== HELPERS ==================

func (s *ProjectService) requireProject(projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, apperrors.NotFound("Project not found")
	}
	return &project, nil
}

// withCounts computes the derived counts from the relationship tables.
// member_count includes the implicit owner.
func (s *ProjectService) withCounts(project models.Project) models.ProjectInfo {
	var memberCount, issueCount int64
	s.db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&memberCount)
	s.db.Model(&models.Issue{}).Where("project_id = ?", project.ID).Count(&issueCount)

	return models.ProjectInfo{
		Project:     project,
		MemberCount: memberCount + 1,
		IssueCount:  issueCount,
	}
}
