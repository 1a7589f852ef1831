// handlers/members.go - project membership endpoints
package handlers

import (
	"bugtrack/apperrors"
	"bugtrack/middleware"
	"bugtrack/models"

	"github.com/gofiber/fiber/v2"
)

// ListMembers returns a project's membership rows
// GET /api/projects/:id/members
func ListMembers(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	members, err := projectService.ListMembers(projectID, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": members,
		"count":   len(members),
	})
}

// AddMember adds a user to the project
// POST /api/projects/:id/members
func AddMember(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		UserID uint               `json:"user_id"`
		Role   models.ProjectRole `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if req.UserID == 0 {
		return apperrors.Validation("user_id is required")
	}

	member, err := projectService.AddMember(projectID, userID, req.UserID, req.Role)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Member added successfully",
		"data":    member,
	})
}

// UpdateMemberRole changes a member's role
// PATCH /api/projects/:id/members/:userId
func UpdateMemberRole(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var req struct {
		Role models.ProjectRole `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	member, err := projectService.UpdateMemberRole(projectID, userID, targetID, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Member role updated successfully",
		"data":    member,
	})
}

// RemoveMember removes a user from the project
// DELETE /api/projects/:id/members/:userId
func RemoveMember(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	if err := projectService.RemoveMember(projectID, userID, targetID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Member removed successfully",
	})
}
