package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/models"
)

// TokenVerifier checks a Google ID token
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.GoogleUserInfo, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	creds      *auth.CredentialStore
	jwtService *auth.JWTService
	google     TokenVerifier
}

// NewAuthHandler creates a new auth handler. google may be nil when Google
// sign-in is not configured.
func NewAuthHandler(creds *auth.CredentialStore, jwtService *auth.JWTService, google TokenVerifier) *AuthHandler {
	return &AuthHandler{
		creds:      creds,
		jwtService: jwtService,
		google:     google,
	}
}

// Register handles user registration with email/password
// @Summary Register a new user
// @Description Register a new user with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.AuthResponse "Registration successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 409 {object} models.ErrorResponse "User already exists"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.creds.Register(c.Request.Context(), req)
	if err != nil {
		log.Printf("[Handler] Registration failed for %s: %v", req.Email, err)
		respondError(c, "Registration failed", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user, "Registration successful")
}

// Login handles user login with email/password
// @Summary Login user
// @Description Login with email and password to get JWT token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.creds.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "Invalid email or password", err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user, "Login successful")
}

// GoogleLogin handles Google SSO authentication
// @Summary Login with Google
// @Description Login or register using Google SSO ID token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.GoogleAuthRequest true "Google auth request"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 401 {object} models.ErrorResponse "Invalid Google token"
// @Failure 503 {object} models.ErrorResponse "Google sign-in not configured"
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Google sign-in is not configured",
			Code:  http.StatusServiceUnavailable,
		})
		return
	}

	var req models.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	info, err := h.google.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		log.Printf("[Handler] Failed to verify Google token: %v", err)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid Google token",
			Code:    http.StatusUnauthorized,
			Details: err.Error(),
		})
		return
	}

	user, err := h.creds.UpsertGoogleUser(c.Request.Context(), info)
	if err != nil {
		log.Printf("[Handler] Failed to save Google user %s: %v", info.Email, err)
		respondError(c, "Failed to create account", err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user, "Login successful")
}

// Me returns the signed-in user
// @Summary Current user
// @Description Get the authenticated user's account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "User account"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.creds.GetUser(c.Request.Context(), auth.CurrentEmail(c))
	if err != nil {
		respondError(c, "User not found", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User, message string) {
	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("[Handler] Failed to generate token: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to generate token",
			Code:  http.StatusInternalServerError,
		})
		return
	}

	log.Printf("[Handler] User signed in: %s (%s)", user.Email, user.Provider)
	c.JSON(status, models.AuthResponse{
		Token:   token,
		User:    user,
		Message: message,
	})
}
