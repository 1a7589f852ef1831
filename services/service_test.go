// services/service_test.go - shared test fixtures
package services

import (
	"fmt"
	"testing"

	"bugtrack/apperrors"
	"bugtrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
// The DSN is unique per call so tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Issue{},
		&models.Comment{},
		&models.RefreshToken{},
	))

	return db
}

// createUser seeds a user with password "sw0rdfish!" (hashed at min cost to
// keep the suite fast).
func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("sw0rdfish!"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// requireStatus asserts that err is an *apperrors.Error with the given
// HTTP status.
func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	require.Error(t, err)
	appErr, ok := err.(*apperrors.Error)
	require.True(t, ok, "expected *apperrors.Error, got %T: %v", err, err)
	require.Equal(t, status, appErr.StatusCode, "unexpected status for error: %v", err)
}
