// handlers/projects.go - project CRUD endpoints
package handlers

import (
	"bugtrack/apperrors"
	"bugtrack/middleware"
	"bugtrack/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateProject creates a new project owned by the caller
// POST /api/projects
func CreateProject(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	project, err := projectService.CreateProject(userID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Project created successfully",
		"data":    project,
	})
}

// ListProjects lists the caller's projects, most recently updated first
// GET /api/projects?page=&page_size=
func ListProjects(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	page, pageSize := utils.ParsePageParams(c)
	projects, pagination, err := projectService.ListProjects(userID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"results":    projects,
		"pagination": pagination,
	})
}

// GetProject returns a single project with derived counts
// GET /api/projects/:id
func GetProject(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	project, err := projectService.GetProject(projectID, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    project,
	})
}

// UpdateProject updates name/description
// PATCH /api/projects/:id
func UpdateProject(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	project, err := projectService.UpdateProject(projectID, userID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project updated successfully",
		"data":    project,
	})
}

// DeleteProject removes a project and everything under it
// DELETE /api/projects/:id
func DeleteProject(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := projectService.DeleteProject(projectID, userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project deleted successfully",
	})
}
