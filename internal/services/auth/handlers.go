package auth

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/fleet-dashboard-api/internal/models"
	"github.com/user/fleet-dashboard-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler - login and session endpoints
type AuthHandler struct {
	repo *repository.Repository
}

// NewAuthHandler creates the handler
func NewAuthHandler(repo *repository.Repository) *AuthHandler {
	return &AuthHandler{repo: repo}
}

// LoginRequest - credentials payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	user, err := h.repo.GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := GenerateJWT(user.ID, user.Email, user.IsAdmin, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetCurrentUser returns the user behind the presented token
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userIDVal, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
		return
	}

	user, err := h.repo.GetUserByID(userIDVal.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// EnsureAdminUser creates the initial admin account when the user table is
// empty and bootstrap credentials are provided. Called once at startup.
func EnsureAdminUser(repo *repository.Repository, email, password string) {
	if email == "" || password == "" {
		return
	}

	count, err := repo.CountUsers()
	if err != nil || count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Auth] bootstrap hash failed: %v", err)
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		Role:         "admin",
	}
	if err := repo.CreateUser(user); err != nil {
		log.Printf("[Auth] bootstrap admin failed: %v", err)
		return
	}
	log.Printf("[Auth] bootstrap admin %s created", email)
}
