// services/auth_service_test.go
package services

import (
	"testing"

	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		FirstName:       "Test",
		LastName:        "User",
		Password:        "correct horse battery",
		PasswordConfirm: "correct horse battery",
	}
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, tokens, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)
	assert.NotEqual(t, tokens.Access, tokens.Refresh)

	// Password is stored hashed, never verbatim
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "correct horse battery", stored.Password)

	// A refresh token row is tracked for the pair
	var count int64
	db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	input := registerInput("alice")
	input.Email = "other@example.com"
	_, _, err = svc.Register(input)
	requireStatus(t, err, 400)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	input := registerInput("bob")
	input.Email = "alice@example.com"
	_, _, err = svc.Register(input)
	requireStatus(t, err, 400)
}

func TestRegisterDuplicateUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	// Row seeded outside the service, as a concurrent registration would
	// leave it. The unique index is what rejects the insert; the error must
	// still come back as field-level validation, not a 500.
	createUser(t, db, "alice")

	_, _, err := svc.Register(registerInput("alice"))
	requireStatus(t, err, 400)

	input := registerInput("bob")
	input.Email = "alice@example.com"
	_, _, err = svc.Register(input)
	requireStatus(t, err, 400)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	input := registerInput("alice")
	input.PasswordConfirm = "something else entirely"
	_, _, err := svc.Register(input)
	requireStatus(t, err, 400)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	short := registerInput("alice")
	short.Password = "short"
	short.PasswordConfirm = "short"
	_, _, err := svc.Register(short)
	requireStatus(t, err, 400)

	numeric := registerInput("bob")
	numeric.Password = "1234567890"
	numeric.PasswordConfirm = "1234567890"
	_, _, err = svc.Register(numeric)
	requireStatus(t, err, 400)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	user, tokens, err := svc.Login("alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, tokens.Access)

	// Email works in place of the username
	user, _, err = svc.Login("alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	_, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	_, _, err = svc.Login("alice", "not the password")
	requireStatus(t, err, 401)

	_, _, err = svc.Login("nobody", "correct horse battery")
	requireStatus(t, err, 401)
}

func TestLoginInactiveUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, _, err = svc.Login("alice", "correct horse battery")
	requireStatus(t, err, 401)
}

func TestRefreshRotation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, tokens, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	fresh, err := svc.Refresh(tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.Access)
	assert.NotEqual(t, tokens.Refresh, fresh.Refresh)

	// Rotation makes the old refresh token single-use
	_, err = svc.Refresh(tokens.Refresh)
	requireStatus(t, err, 401)

	// The new one still works
	_, err = svc.Refresh(fresh.Refresh)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	_, tokens, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	_, err = svc.Refresh(tokens.Access)
	requireStatus(t, err, 401)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	_, tokens, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(tokens.Refresh))

	// Revoked token cannot be refreshed or logged out again
	_, err = svc.Refresh(tokens.Refresh)
	requireStatus(t, err, 401)
	requireStatus(t, svc.Logout(tokens.Refresh), 400)
}

func TestChangePassword(t *testing.T) {
	svc := NewAuthService(newTestDB(t))

	user, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)

	err = svc.ChangePassword(user.ID, "wrong", "new password here", "new password here")
	requireStatus(t, err, 400)

	err = svc.ChangePassword(user.ID, "correct horse battery", "new password here", "mismatch")
	requireStatus(t, err, 400)

	require.NoError(t, svc.ChangePassword(user.ID, "correct horse battery", "new password here", "new password here"))

	_, _, err = svc.Login("alice", "correct horse battery")
	requireStatus(t, err, 401)
	_, _, err = svc.Login("alice", "new password here")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, _, err := svc.Register(registerInput("alice"))
	require.NoError(t, err)
	_, _, err = svc.Register(registerInput("bob"))
	require.NoError(t, err)

	first := "Alicia"
	updated, err := svc.UpdateProfile(user.ID, nil, &first, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Alicia User", updated.FullName())

	// Cannot take another user's email
	taken := "bob@example.com"
	_, err = svc.UpdateProfile(user.ID, &taken, nil, nil)
	requireStatus(t, err, 400)
}

func TestSearchUsers(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	createUser(t, db, "alice")
	createUser(t, db, "alicia")
	createUser(t, db, "bob")

	results, err := svc.SearchUsers("ALIC", 50)
	require.NoError(t, err)
	require.Len(t, results, 2)

	all, err := svc.SearchUsers("", 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
