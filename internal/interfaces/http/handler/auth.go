package handler

import (
	"time"

	"github.com/enterprise/backend/internal/infrastructure/auth"
	"github.com/enterprise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles token lifecycle requests. Tokens are issued by the
// host LMS with the shared secret; this service only refreshes and revokes.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		blacklist:  blacklist,
	}
}

// RefreshTokenRequest represents a token refresh request
// @Description Request body for refreshing an access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse represents an issued token pair
// @Description Access and refresh token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// LogoutResponse represents a logout confirmation
// @Description Logout confirmation
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// CurrentUserResponse represents the authenticated user's claims
// @Description Authenticated user information from the access token
type CurrentUserResponse struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	IsStaff  bool     `json:"is_staff"`
}

// RefreshToken godoc
// @ID           refreshToken
// @Summary      Refresh access token
// @Description  Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} APIResponse[TokenResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken, nil)
	if err != nil {
		h.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	h.Success(c, TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	})
}

// Logout godoc
// @ID           logout
// @Summary      Logout
// @Description  Revoke the current access token until it expires
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, ttl); err != nil {
		h.InternalError(c, "Failed to revoke token")
		return
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @ID           getCurrentUser
// @Summary      Get current user
// @Description  Returns the claims of the authenticated user
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[CurrentUserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, CurrentUserResponse{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    claims.Roles,
		IsStaff:  claims.IsStaff,
	})
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/refresh", h.RefreshToken)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.GET("/me", h.GetCurrentUser)
	}
}
