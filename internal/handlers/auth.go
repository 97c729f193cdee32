// internal/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"healcheck-back/internal/accounts"
	"healcheck-back/internal/auth"
	"healcheck-back/internal/middleware"
	"healcheck-back/internal/models"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password string  `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func setAuthCookie(c *gin.Context, issuer *auth.TokenIssuer, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, token, int(issuer.TTL().Seconds()), "/", "", false, true)
}

func Register(users *accounts.Directory, issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user, err := users.Create(c.Request.Context(), req.Username, req.Email, hashedPassword)
		if errors.Is(err, accounts.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		token, err := issuer.GenerateToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		setAuthCookie(c, issuer, token)
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: *user})
	}
}

func Login(users *accounts.Directory, issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := users.FindByLogin(c.Request.Context(), req.Login)
		if errors.Is(err, accounts.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
			return
		}

		if !auth.CheckPassword(user.Password, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := issuer.GenerateToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		setAuthCookie(c, issuer, token)
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: *user})
	}
}

func GetProfile(users *accounts.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.UserIDKey)

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusOK)
}
