package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/leafdoctor/internal/auth"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	apperrors "github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/testutil"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:          "test-secret",
	AccessTokenExpiry:  15 * time.Minute,
	RefreshTokenExpiry: time.Hour,
	BCryptCost:         4,
}

func newTestAuthService(t *testing.T) (*AuthService, *testutil.MockAnalyticsRepository) {
	t.Helper()
	clock := testutil.NewClock(testNow)
	analyticsRepo := testutil.NewMockAnalyticsRepository()
	users := newTestUserService(testutil.NewMockUserRepository(), clock, 0)
	svc := NewAuthService(users, newTestAnalyticsService(analyticsRepo, clock), testAuthConfig, logger.Nop())
	return svc, analyticsRepo
}

func TestAuthService_RegisterLoginLogout(t *testing.T) {
	svc, analyticsRepo := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "grower", "grower@example.com", "tomatoes1")
	require.NoError(t, err)
	assert.Equal(t, "grower", session.User.Username)

	claims, err := auth.ParseClaims(session.Tokens.AccessToken, testAuthConfig.JWTSecret, auth.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	_, err = svc.Login(ctx, "grower@example.com", "tomatoes1")
	require.NoError(t, err)
	svc.Logout(ctx, session.User.ID)

	assert.Equal(t, []string{
		analytics.ActivityUserRegistered,
		analytics.ActivityUserLogin,
		analytics.ActivityUserLogout,
	}, analyticsRepo.ActivityTypes(session.User.ID))
	assert.Equal(t, 2, analyticsRepo.UsageOn(session.User.ID, "2025-05-10").LoginCount)
}

func TestAuthService_LoginRejected(t *testing.T) {
	svc, analyticsRepo := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "grower", "grower@example.com", "tomatoes1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "grower", "wrong-password")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)
	assert.Equal(t, 1, analyticsRepo.UsageOn(session.User.ID, "2025-05-10").LoginCount)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "grower", "grower@example.com", "tomatoes1")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	tests := []struct {
		name  string
		token string
	}{
		{name: "access token", token: session.Tokens.AccessToken},
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Refresh(ctx, tt.token)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, 401, appErr.StatusCode)
		})
	}
}

func TestAuthService_RefreshUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tokens, err := auth.MintTokens(99, "ghost", testAuthConfig.JWTSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid refresh token", appErr.Message)
}
