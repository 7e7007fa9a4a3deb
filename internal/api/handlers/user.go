package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/config"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account persistence used by UserHandler.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateTelegramChatID(ctx context.Context, id string, chatID *string) (*models.User, error)
}

// ProfileCache caches profile lookups. *cache.UserCache satisfies it.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*models.UserResponse, bool)
	Set(ctx context.Context, user models.UserResponse) error
	Invalidate(ctx context.Context, userID string) error
}

type UserHandler struct {
	users    UserStore
	cache    ProfileCache
	auth     *middleware.AuthMiddleware
	security config.SecurityConfig
	logger   *logrus.Logger
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  models.UserResponse `json:"user"`
	Token string              `json:"token"`
}

type UpdateProfileRequest struct {
	TelegramChatID *string `json:"telegram_chat_id"`
}

// NewUserHandler creates the account handler. cache may be nil.
func NewUserHandler(users UserStore, cache ProfileCache, auth *middleware.AuthMiddleware, security config.SecurityConfig, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		cache:    cache,
		auth:     auth,
		security: security,
		logger:   logger,
	}
}

// RegisterUser handles user registration
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx := c.Request.Context()
	exists, err := h.users.ExistsByEmail(ctx, email)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.security.BcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := h.users.Create(ctx, user); err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Email, h.security.JWTDuration())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.logger.WithField("user_id", user.ID).Info("User registered")
	c.JSON(http.StatusCreated, AuthResponse{User: user.ToResponse(), Token: token})
}

// LoginUser handles user authentication
func (h *UserHandler) LoginUser(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.WithError(err).Error("Failed to load user for login")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Email, h.security.JWTDuration())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: user.ToResponse(), Token: token})
}

// GetUserProfile returns the authenticated user, preferring the cache.
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID required"})
		return
	}

	ctx := c.Request.Context()
	if h.cache != nil {
		if cached, found := h.cache.Get(ctx, userID); found {
			c.JSON(http.StatusOK, gin.H{"user": cached})
			return
		}
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}

	response := user.ToResponse()
	if h.cache != nil {
		if err := h.cache.Set(ctx, response); err != nil {
			h.logger.WithError(err).Warn("Failed to cache user profile")
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": response})
}

// UpdateUserProfile links or unlinks the Telegram chat used for forecast notifications.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID required"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.TelegramChatID != nil {
		trimmed := strings.TrimSpace(*req.TelegramChatID)
		if trimmed == "" {
			req.TelegramChatID = nil
		} else {
			req.TelegramChatID = &trimmed
		}
	}

	ctx := c.Request.Context()
	user, err := h.users.UpdateTelegramChatID(ctx, userID, req.TelegramChatID)
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, userID); err != nil {
			h.logger.WithError(err).Warn("Failed to invalidate user profile cache")
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}
