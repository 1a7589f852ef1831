// handlers/issues.go - issue endpoints
package handlers

import (
	"bytes"
	"encoding/json"

	"bugtrack/apperrors"
	"bugtrack/middleware"
	"bugtrack/models"
	"bugtrack/services"
	"bugtrack/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateIssue files a new issue in a project
// POST /api/projects/:id/issues
func CreateIssue(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.CreateIssueInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	issue, err := issueService.CreateIssue(projectID, userID, req)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Issue created successfully",
		"data":    issue,
	})
}

// ListIssues pages through a project's issues
// GET /api/projects/:id/issues?page=&page_size=&search=&status=&priority=
func ListIssues(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	page, pageSize := utils.ParsePageParams(c)
	filter := services.IssueFilter{
		Search:   c.Query("search"),
		Status:   models.IssueStatus(c.Query("status")),
		Priority: models.IssuePriority(c.Query("priority")),
	}

	issues, pagination, err := issueService.ListIssues(projectID, userID, page, pageSize, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"results":    issues,
		"pagination": pagination,
	})
}

// ListAllIssues pages through issues across every project the caller can see
// GET /api/issues?page=&page_size=&search=&status=&priority=
func ListAllIssues(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	page, pageSize := utils.ParsePageParams(c)
	filter := services.IssueFilter{
		Search:   c.Query("search"),
		Status:   models.IssueStatus(c.Query("status")),
		Priority: models.IssuePriority(c.Query("priority")),
	}

	issues, pagination, err := issueService.ListAccessible(userID, page, pageSize, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"results":    issues,
		"pagination": pagination,
	})
}

// MyIssues lists issues assigned to the caller across all projects
// GET /api/my-issues
func MyIssues(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	page, pageSize := utils.ParsePageParams(c)
	filter := services.IssueFilter{
		Search:   c.Query("search"),
		Status:   models.IssueStatus(c.Query("status")),
		Priority: models.IssuePriority(c.Query("priority")),
	}

	issues, pagination, err := issueService.MyIssues(userID, page, pageSize, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"results":    issues,
		"pagination": pagination,
	})
}

// GetIssue returns a single issue
// GET /api/projects/:id/issues/:issueId
func GetIssue(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	issueID, err := paramID(c, "issueId")
	if err != nil {
		return err
	}

	issue, err := issueService.GetIssue(projectID, issueID, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    issue,
	})
}

// UpdateIssue applies a partial update. An explicit "assignee_id": null
// clears the assignee; an absent field leaves it unchanged.
// PATCH /api/projects/:id/issues/:issueId
func UpdateIssue(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	issueID, err := paramID(c, "issueId")
	if err != nil {
		return err
	}

	var req struct {
		Title       *string               `json:"title"`
		Description *string               `json:"description"`
		Status      *models.IssueStatus   `json:"status"`
		Priority    *models.IssuePriority `json:"priority"`
		AssigneeID  json.RawMessage       `json:"assignee_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	input := services.UpdateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}

	if len(req.AssigneeID) > 0 {
		input.AssigneeSet = true
		if !bytes.Equal(bytes.TrimSpace(req.AssigneeID), []byte("null")) {
			var assigneeID uint
			if err := json.Unmarshal(req.AssigneeID, &assigneeID); err != nil {
				return apperrors.Validation("Invalid assignee_id")
			}
			input.AssigneeID = &assigneeID
		}
	}

	issue, err := issueService.UpdateIssue(projectID, issueID, userID, input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Issue updated successfully",
		"data":    issue,
	})
}

// DeleteIssue removes an issue and its comments
// DELETE /api/projects/:id/issues/:issueId
func DeleteIssue(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	issueID, err := paramID(c, "issueId")
	if err != nil {
		return err
	}

	if err := issueService.DeleteIssue(projectID, issueID, userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Issue deleted successfully",
	})
}
