// main.go
package main

import (
	"errors"
	"log"
	"os"
	"time"

	"bugtrack/apperrors"
	"bugtrack/database"
	"bugtrack/handlers"
	"bugtrack/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Validate critical environment variables
	validateEnvironment()

	// Initialize database
	database.InitDB()
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// Initialize handlers
	handlers.InitHandlers()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.RateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/refresh", handlers.Refresh)
	authGroup.Post("/logout", middleware.AuthMiddleware, handlers.Logout)

	// User routes
	userGroup := api.Group("/users")
	userGroup.Use(middleware.AuthMiddleware)
	userGroup.Get("/me", handlers.GetCurrentUser)
	userGroup.Put("/me", handlers.UpdateCurrentUser)
	userGroup.Post("/me/password", handlers.ChangePassword)
	userGroup.Get("/", handlers.SearchUsers)

	// Project routes
	projectGroup := api.Group("/projects")
	projectGroup.Use(middleware.AuthMiddleware)
	projectGroup.Post("/", handlers.CreateProject)
	projectGroup.Get("/", handlers.ListProjects)
	projectGroup.Get("/:id", handlers.GetProject)
	projectGroup.Patch("/:id", handlers.UpdateProject)
	projectGroup.Delete("/:id", handlers.DeleteProject)

	// Membership routes
	projectGroup.Get("/:id/members", handlers.ListMembers)
	projectGroup.Post("/:id/members", handlers.AddMember)
	projectGroup.Patch("/:id/members/:userId", handlers.UpdateMemberRole)
	projectGroup.Delete("/:id/members/:userId", handlers.RemoveMember)

	// Issue routes
	projectGroup.Get("/:id/issues", handlers.ListIssues)
	projectGroup.Post("/:id/issues", handlers.CreateIssue)
	projectGroup.Get("/:id/issues/:issueId", handlers.GetIssue)
	projectGroup.Patch("/:id/issues/:issueId", handlers.UpdateIssue)
	projectGroup.Delete("/:id/issues/:issueId", handlers.DeleteIssue)
	api.Get("/issues", middleware.AuthMiddleware, handlers.ListAllIssues)
	api.Get("/my-issues", middleware.AuthMiddleware, handlers.MyIssues)

	// Comment routes
	projectGroup.Get("/:id/issues/:issueId/comments", handlers.ListComments)
	projectGroup.Post("/:id/issues/:issueId/comments", handlers.CreateComment)
	projectGroup.Patch("/:id/issues/:issueId/comments/:commentId", handlers.UpdateComment)
	projectGroup.Delete("/:id/issues/:issueId/comments/:commentId", handlers.DeleteComment)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

// customErrorHandler renders every error in the structured envelope:
// {error: true, message, details?, status_code}
func customErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body := fiber.Map{
			"error":       true,
			"message":     appErr.Message,
			"status_code": appErr.StatusCode,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		return c.Status(appErr.StatusCode).JSON(body)
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"error":       true,
		"message":     message,
		"status_code": code,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
