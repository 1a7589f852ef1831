// handlers/users.go - current user profile and user search
package handlers

import (
	"bugtrack/apperrors"
	"bugtrack/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetCurrentUser returns the authenticated user's profile
// GET /api/users/me
func GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	user, err := authService.GetUser(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.Public(),
	})
}

// UpdateCurrentUser updates mutable profile fields
// PUT /api/users/me
func UpdateCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	user, err := authService.UpdateProfile(userID, req.Email, req.FirstName, req.LastName)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    user.Public(),
	})
}

// ChangePassword updates the authenticated user's password
// POST /api/users/me/password
func ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		OldPassword        string `json:"old_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	if err := authService.ChangePassword(userID, req.OldPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}

// SearchUsers lists active users for member pickers
// GET /api/users?search=
func SearchUsers(c *fiber.Ctx) error {
	users, err := authService.SearchUsers(c.Query("search"), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": users,
		"count":   len(users),
	})
}
