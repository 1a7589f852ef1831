// handlers/handlers.go - service wiring for the HTTP layer
package handlers

import (
	"strconv"

	"bugtrack/apperrors"
	"bugtrack/database"
	"bugtrack/services"

	"github.com/gofiber/fiber/v2"
)

var (
	authService    *services.AuthService
	projectService *services.ProjectService
	issueService   *services.IssueService
	commentService *services.CommentService
)

// InitHandlers initializes the services behind the HTTP handlers.
func InitHandlers() {
	db := database.GetDB()
	if db == nil {
		panic("Database not initialized before InitHandlers")
	}
	authService = services.NewAuthService(db)
	projectService = services.NewProjectService(db)
	issueService = services.NewIssueService(db)
	commentService = services.NewCommentService(db)
}

// paramID parses a numeric path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, apperrors.Validation("Invalid " + name)
	}
	return uint(id), nil
}
