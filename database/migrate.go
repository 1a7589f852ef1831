// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"bugtrack/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Issue{},
		&models.Comment{},
		&models.RefreshToken{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates indexes beyond the ones GORM derives from tags
func createIndexes() {
	db := GetDB()
	log.Println("Creating indexes...")

	// Project listing is ordered by update recency
	db.Exec("CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)")

	// Issue listing is ordered by creation, filtered by status/priority
	db.Exec("CREATE INDEX IF NOT EXISTS idx_issues_created ON issues(created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_issues_project_created ON issues(project_id, created_at DESC)")

	// Comment threads render oldest first
	db.Exec("CREATE INDEX IF NOT EXISTS idx_comments_issue_created ON comments(issue_id, created_at)")

	// Refresh token lookups during auth
	db.Exec("CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON refresh_tokens(expires_at)")

	log.Println("✅ Indexes created successfully")
}
