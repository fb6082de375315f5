package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/config"
	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/mailer"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountInactive      = errors.New("account is not verified yet")
	ErrInvalidVerification  = errors.New("invalid verification token")
	ErrWeakPassword         = errors.New("password must be at least 8 characters")
	ErrInvalidEmail         = errors.New("a valid email address is required")
	ErrFullNameRequired     = errors.New("full name is required")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer mailer.Sender
}

func NewAuthService(db *gorm.DB, cfg *config.Config, sender mailer.Sender) *AuthService {
	return &AuthService{db: db, cfg: cfg, mailer: sender}
}

// Register creates an inactive account and sends a verification email. The
// mail send is best effort; a relay outage must not lose the registration.
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, ErrFullNameRequired
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:             email,
		FullName:          strings.TrimSpace(req.FullName),
		HashedPassword:    string(hash),
		IsActive:          false,
		VerificationToken: &token,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.Send(user.Email, mailer.VerificationSubject(),
		mailer.VerificationBody(s.cfg.AppBaseURL, token)); err != nil {
		slog.Error("failed to send verification email",
			"user_id", fmt.Sprint(user.ID), "action", "register", "error", err)
	}

	resp := userResponse(&user)
	return &resp, nil
}

// VerifyEmail activates the account matching the token and clears it so the
// link is single use.
func (s *AuthService) VerifyEmail(token string) error {
	if token == "" {
		return ErrInvalidVerification
	}

	var user models.User
	if err := s.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		return ErrInvalidVerification
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"is_active":          true,
		"verification_token": nil,
	}).Error
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.generateTokenPair(&user)
}

// Refresh rotates the refresh token: the presented token is revoked whether
// or not it is still valid, and a fresh pair is issued only when it was.
func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *AuthService) GetUser(userID uint) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	resp := userResponse(&user)
	return &resp, nil
}

func (s *AuthService) UpdateProfile(userID uint, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, ErrFullNameRequired
		}
		if err := s.db.Model(&user).Update("full_name", name).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		user.FullName = name
	}

	resp := userResponse(&user)
	return &resp, nil
}

// SetProfileImage stores the new image path and returns the previous one so
// the caller can remove the stale file.
func (s *AuthService) SetProfileImage(userID uint, relPath string) (old *string, err error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	old = user.ProfileImage
	if err := s.db.Model(&user).Update("profile_image", relPath).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile image: %w", err)
	}
	return old, nil
}

// RequestPasswordReset issues a reset token for the account, if one exists.
// The caller always sees success so addresses cannot be enumerated.
func (s *AuthService) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("verification_token", token).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.Send(user.Email, mailer.PasswordResetSubject(),
		mailer.PasswordResetBody(s.cfg.AppBaseURL, token)); err != nil {
		slog.Error("failed to send password reset email",
			"user_id", fmt.Sprint(user.ID), "action", "password_reset", "error", err)
	}
	return nil
}

// ResetPassword completes the reset. The token is single use and every
// refresh token is revoked so stolen sessions die with the old password.
func (s *AuthService) ResetPassword(req *dto.ResetPasswordRequest) error {
	if req.Token == "" {
		return ErrInvalidVerification
	}
	if len(req.NewPassword) < 8 {
		return ErrWeakPassword
	}

	var user models.User
	if err := s.db.Where("verification_token = ?", req.Token).First(&user).Error; err != nil {
		return ErrInvalidVerification
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"hashed_password":    string(hash),
			"verification_token": nil,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ?", user.ID).
			Update("revoked", true).Error
	})
}

func (s *AuthService) ChangePassword(userID uint, req *dto.ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongCurrentPassword
	}
	if len(req.NewPassword) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("hashed_password", string(hash)).Error; err != nil {
			return err
		}
		// Force re-login everywhere else.
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ?", userID).
			Update("revoked", true).Error
	})
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      fmt.Sprint(user.ID),
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func userResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		IsActive:     user.IsActive,
		IsAdmin:      user.IsAdmin,
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt,
	}
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
