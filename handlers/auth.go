// handlers/auth.go - registration, login and token endpoints
package handlers

import (
	"bugtrack/apperrors"
	"bugtrack/services"

	"github.com/gofiber/fiber/v2"
)

// Register creates a new user account
// POST /api/auth/register
func Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	user, tokens, err := authService.Register(req)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"data": fiber.Map{
			"user":   user.Public(),
			"tokens": tokens,
		},
	})
}

// Login authenticates a user by username or email
// POST /api/auth/login
func Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}

	user, tokens, err := authService.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"user":   user.Public(),
			"tokens": tokens,
		},
	})
}

// Refresh rotates a refresh token into a new token pair
// POST /api/auth/refresh
func Refresh(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return apperrors.Validation("Refresh token required")
	}

	tokens, err := authService.Refresh(req.Refresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"tokens": tokens},
	})
}

// Logout revokes the presented refresh token
// POST /api/auth/logout
func Logout(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return apperrors.Validation("Refresh token required")
	}

	if err := authService.Logout(req.Refresh); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout successful",
	})
}
