package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/api/dto"
	"github.com/pratik-mahalle/leafdoctor/internal/api/middleware"
	"github.com/pratik-mahalle/leafdoctor/internal/auth"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
	"github.com/pratik-mahalle/leafdoctor/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	userService user.Service
	config      config.AuthConfig
	logger      *logger.Logger
	validator   *validator.Validator
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	userService user.Service,
	cfg config.AuthConfig,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
		now:         time.Now,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticate with a username or email and a password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Identifier(), req.Password)
	if err != nil {
		h.logger.With("identifier", req.Identifier()).Info("Authentication failed")
		writeServiceError(w, r, h.logger, err, "Failed to log in")
		return
	}

	h.logger.With("user_id", session.User.ID).Info("User logged in")
	h.writeSession(w, http.StatusOK, session)
}

// Register handles user registration
// @Summary User registration
// @Description Register a new account and sign it in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User successfully registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Username or email already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create user")
		return
	}

	h.logger.With("user_id", session.User.ID).Info("User registered")
	h.writeSession(w, http.StatusCreated, session)
}

// Logout handles user logout
// @Summary User logout
// @Description Clear the session cookies
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := middleware.GetUserID(r); ok {
		h.authService.Logout(r.Context(), userID)
	}

	h.setCookie(w, middleware.AccessTokenCookie, "", -1)
	h.setCookie(w, middleware.RefreshTokenCookie, "", -1)

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the current user's information
// @Summary Get current user
// @Description Get the authenticated user with derived trial status
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO "User information"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get user")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u, h.now()))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchange a refresh token from the body or cookie for a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token"
// @Success 200 {object} dto.AuthResponse "New tokens generated"
// @Failure 401 {object} utils.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
			return
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, errors.Unauthorized("Invalid refresh token"))
		return
	}

	session, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to refresh token")
		return
	}

	h.writeSession(w, http.StatusOK, session)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, session *services.Session) {
	h.setTokenCookies(w, session.Tokens)

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		User:         dto.NewUserDTO(session.User, h.now()),
	})
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens auth.TokenPair) {
	h.setCookie(w, middleware.AccessTokenCookie, tokens.AccessToken, int(h.config.AccessTokenExpiry.Seconds()))
	h.setCookie(w, middleware.RefreshTokenCookie, tokens.RefreshToken, int(h.config.RefreshTokenExpiry.Seconds()))
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}
