package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/social-jukebox/pkg/jwt"
)

// Handler issues guest sessions. Listeners do not need a catalog account;
// a display name is enough to join rooms, queue and vote.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/guest", h.guestLogin)
	}
}

type GuestLoginRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *Handler) guestLogin(c *gin.Context) {
	var req GuestLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := uuid.New()
	token, err := jwt.GenerateToken(userID.String(), req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"user_id":      userID.String(),
		"display_name": req.DisplayName,
	})
}
