// services/auth_service.go - registration, login and token lifecycle
package services

import (
	"errors"
	"os"
	"strings"
	"time"
	"unicode"

	"bugtrack/apperrors"
	"bugtrack/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	// Password policy: at least 8 characters and not fully numeric.
	minPasswordLength = 8
)

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Register creates a new user account and returns a fresh token pair.
func (s *AuthService) Register(input RegisterInput) (*models.User, *TokenPair, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if input.Username == "" || input.Email == "" {
		return nil, nil, apperrors.Validation("Username and email are required")
	}
	if input.Password != input.PasswordConfirm {
		return nil, nil, apperrors.Validation("Password fields didn't match").
			WithDetail("password", "Password fields didn't match")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to hash password")
	}

	user := models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		IsActive:  true,
	}

	// Uniqueness is enforced by the DB indexes so concurrent registrations
	// cannot slip past a pre-check.
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.User
			if s.db.Where("username = ?", input.Username).First(&existing).Error == nil {
				return nil, nil, apperrors.Validation("A user with this username already exists").
					WithDetail("username", "already taken")
			}
			return nil, nil, apperrors.Validation("A user with this email already exists").
				WithDetail("email", "already taken")
		}
		return nil, nil, apperrors.Internal("Failed to create account")
	}

	pair, err := s.issueTokenPair(&user)
	if err != nil {
		return nil, nil, err
	}

	return &user, pair, nil
}

// Login verifies credentials and returns a fresh token pair. The first
// argument may be a username or an email address.
func (s *AuthService) Login(usernameOrEmail, password string) (*models.User, *TokenPair, error) {
	if usernameOrEmail == "" || password == "" {
		return nil, nil, apperrors.Validation("Username and password required")
	}

	var user models.User
	err := s.db.Where("username = ?", usernameOrEmail).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Where("email = ?", usernameOrEmail).First(&user).Error
	}
	if err != nil {
		return nil, nil, apperrors.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperrors.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("User account is disabled")
	}

	pair, err := s.issueTokenPair(&user)
	if err != nil {
		return nil, nil, err
	}

	return &user, pair, nil
}

// Refresh validates a refresh token, revokes it and mints a new pair.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	var stored models.RefreshToken
	if err := s.db.Where("jti = ?", jti).First(&stored).Error; err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	if stored.Revoked || stored.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("User account is disabled")
	}

	// Rotate: the presented token is single-use.
	if err := s.db.Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, apperrors.Internal("Failed to rotate token")
	}

	// No background jobs here, so stale rows are purged on the way through.
	s.purgeExpiredTokens()

	return s.issueTokenPair(&user)
}

// Logout revokes the presented refresh token server-side. Access tokens are
// left to expire on their own.
func (s *AuthService) Logout(refreshToken string) error {
	claims, err := parseToken(refreshToken, "refresh")
	if err != nil {
		return apperrors.Validation("Invalid token")
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return apperrors.Validation("Invalid token")
	}

	result := s.db.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true)
	if result.Error != nil {
		return apperrors.Internal("Failed to revoke token")
	}
	if result.RowsAffected == 0 {
		return apperrors.Validation("Invalid token")
	}

	return nil
}

// ChangePassword verifies the old password and sets a new one.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword, newPasswordConfirm string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return apperrors.NotFound("User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.Validation("Old password is incorrect").
			WithDetail("old_password", "incorrect")
	}
	if newPassword != newPasswordConfirm {
		return apperrors.Validation("New password fields didn't match").
			WithDetail("new_password", "fields didn't match")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password")
	}

	return s.db.Model(&user).Update("password", string(hashed)).Error
}

// GetUser loads a single user by id.
func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, apperrors.NotFound("User not found")
	}
	return &user, nil
}

// UpdateProfile updates the mutable profile fields. Username is part of the
// user's identity and never changes.
func (s *AuthService) UpdateProfile(userID uint, email, firstName, lastName *string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, apperrors.NotFound("User not found")
	}

	updates := map[string]interface{}{}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			return nil, apperrors.Validation("Email cannot be empty")
		}
		var existing models.User
		if err := s.db.Where("email = ? AND id != ?", trimmed, userID).First(&existing).Error; err == nil {
			return nil, apperrors.Validation("A user with this email already exists").
				WithDetail("email", "already taken")
		}
		updates["email"] = trimmed
	}
	if firstName != nil {
		updates["first_name"] = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		updates["last_name"] = strings.TrimSpace(*lastName)
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Internal("Failed to update profile")
		}
	}

	s.db.First(&user, userID)
	return &user, nil
}

// SearchUsers lists active users, optionally filtered by a case-insensitive
// substring over username, email and name fields. Used by member pickers.
func (s *AuthService) SearchUsers(search string, limit int) ([]models.PublicUser, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	query := s.db.Where("is_active = ?", true)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var users []models.User
	if err := query.Order("username").Limit(limit).Find(&users).Error; err != nil {
		return nil, apperrors.Internal("Failed to search users")
	}

	result := make([]models.PublicUser, 0, len(users))
	for i := range users {
		result = append(result, users[i].Public())
	}
	return result, nil
}

// ================== TOKEN HELPERS ==================

func (s *AuthService) issueTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"username":   user.Username,
		"token_type": "access",
		"exp":        now.Add(accessTokenTTL).Unix(),
		"iat":        now.Unix(),
	})
	accessString, err := access.SignedString(jwtSecret())
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token")
	}

	jti := uuid.New().String()
	expiresAt := now.Add(refreshTokenTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"token_type": "refresh",
		"jti":        jti,
		"exp":        expiresAt.Unix(),
		"iat":        now.Unix(),
	})
	refreshString, err := refresh.SignedString(jwtSecret())
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token")
	}

	record := models.RefreshToken{
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, apperrors.Internal("Failed to store token")
	}

	return &TokenPair{Access: accessString, Refresh: refreshString}, nil
}

func (s *AuthService) purgeExpiredTokens() {
	s.db.Where("expires_at < ?", time.Now().Add(-24*time.Hour)).
		Delete(&models.RefreshToken{})
}

func parseToken(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		return nil, apperrors.Unauthorized("Invalid token type")
	}

	return claims, nil
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "bugtrack-secret-change-in-production"
	}
	return []byte(secret)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.Validation("Password must be at least 8 characters").
			WithDetail("password", "too short")
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return apperrors.Validation("Password cannot be entirely numeric").
			WithDetail("password", "entirely numeric")
	}

	return nil
}
