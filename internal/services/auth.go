package services

import (
	"context"

	"github.com/pratik-mahalle/leafdoctor/internal/auth"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
)

// Session is a signed-in user with fresh tokens
type Session struct {
	User   *user.User
	Tokens auth.TokenPair
}

// AuthService signs users in and out and records their logins
type AuthService struct {
	users     user.Service
	analytics analytics.Service
	cfg       config.AuthConfig
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users user.Service, analyticsService analytics.Service, cfg config.AuthConfig, log *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		analytics: analyticsService,
		cfg:       cfg,
		logger:    log,
	}
}

// Register creates the account and signs it in
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	u, err := s.users.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, u.ID, analytics.ActivityUserRegistered, map[string]interface{}{
		"username": u.Username,
	})
	s.recordLogin(ctx, u.ID)

	return s.session(u)
}

// Login checks credentials and signs the user in
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, u.ID)
	s.logActivity(ctx, u.ID, analytics.ActivityUserLogin, nil)

	return s.session(u)
}

// Refresh exchanges a refresh token for a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := auth.ParseClaims(refreshToken, s.cfg.JWTSecret, auth.TokenRefresh)
	if err != nil {
		return nil, errors.Unauthorized("Invalid refresh token")
	}

	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}

	return s.session(u)
}

// Logout records the sign-out. Tokens are stateless and simply expire.
func (s *AuthService) Logout(ctx context.Context, userID int64) {
	s.logActivity(ctx, userID, analytics.ActivityUserLogout, nil)
}

func (s *AuthService) session(u *user.User) (*Session, error) {
	tokens, err := auth.MintTokens(u.ID, u.Username, s.cfg.JWTSecret, s.cfg.AccessTokenExpiry, s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, errors.Internal("Failed to issue tokens", err)
	}
	return &Session{User: u, Tokens: tokens}, nil
}

func (s *AuthService) recordLogin(ctx context.Context, userID int64) {
	if err := s.analytics.RecordLogin(ctx, userID); err != nil {
		s.logger.With("user_id", userID).WarnWithErr(err, "Failed to record login")
	}
}

func (s *AuthService) logActivity(ctx context.Context, userID int64, activityType string, details map[string]interface{}) {
	if _, err := s.analytics.LogActivity(ctx, userID, activityType, details); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"activity": activityType,
		}).WarnWithErr(err, "Failed to log activity")
	}
}
