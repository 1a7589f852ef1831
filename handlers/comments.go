// handlers/comments.go - comment endpoints
package handlers

import (
	"bugtrack/apperrors"
	"bugtrack/middleware"

	"github.com/gofiber/fiber/v2"
)

// ListComments returns an issue's comments, oldest first
// GET /api/projects/:id/issues/:issueId/comments
func ListComments(c *fiber.Ctx) error {
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

	comments, err := commentService.ListComments(projectID, issueID, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": comments,
		"count":   len(comments),
	})
}

// CreateComment adds a comment to an issue
// POST /api/projects/:id/issues/:issueId/comments
func CreateComment(c *fiber.Ctx) error {
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
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	comment, err := commentService.CreateComment(projectID, issueID, userID, req.Content)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Comment added successfully",
		"data":    comment,
	})
}

// UpdateComment edits a comment (author only)
// PATCH /api/projects/:id/issues/:issueId/comments/:commentId
func UpdateComment(c *fiber.Ctx) error {
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
	commentID, err := paramID(c, "commentId")
	if err != nil {
		return err
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	comment, err := commentService.UpdateComment(projectID, issueID, commentID, userID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Comment updated successfully",
		"data":    comment,
	})
}

// DeleteComment removes a comment (author, or project owner/admin)
// DELETE /api/projects/:id/issues/:issueId/comments/:commentId
func DeleteComment(c *fiber.Ctx) error {
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
	commentID, err := paramID(c, "commentId")
	if err != nil {
		return err
	}

	if err := commentService.DeleteComment(projectID, issueID, commentID, userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
