package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/auth"
	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/models"
)

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=255"`
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SocialCallbackRequest carries the provider-verified identity payload.
// The provider handshake itself happens outside this API.
type SocialCallbackRequest struct {
	Provider  string `json:"provider" binding:"required,oneof=github google"`
	Email     string `json:"email" binding:"required,email"`
	Name      string `json:"name"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

// AuthResponse is returned on successful authentication.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Register handles POST /api/auth/register.
func Register(c *gin.Context) {
	var req RegisterRequest
	if !bindRequest(c, &req) {
		return
	}

	db := database.GetDB()
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": gin.H{"email": "This email address is already registered."},
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := models.User{Name: req.Name, Email: req.Email, Password: hash}
	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
}

// Login handles POST /api/auth/login.
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindRequest(c, &req) {
		return
	}

	db := database.GetDB()
	var user models.User
	err := db.Where("email = ?", req.Email).First(&user).Error
	if err != nil || user.Password == "" || !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
}

// avatarFetchTimeout bounds the remote avatar download so a slow
// provider cannot stall the callback.
var avatarClient = &http.Client{Timeout: 10 * time.Second}

// SocialCallback handles POST /api/auth/social/callback: it exchanges a
// provider-verified identity for a local user record, created or
// updated by email, and best-effort pulls the remote avatar.
func SocialCallback(c *gin.Context) {
	var req SocialCallbackRequest
	if !bindRequest(c, &req) {
		return
	}

	// GitHub identities prefer the nickname, like the original flow
	name := req.Name
	if req.Provider == "github" && req.Nickname != "" {
		name = req.Nickname
	}
	if name == "" {
		name = req.Email
	}

	profilePicture := fetchAvatar(req.AvatarURL)

	db := database.GetDB()
	var user models.User
	err := db.Where("email = ?", req.Email).First(&user).Error
	switch {
	case err == nil:
		user.Name = name
		if profilePicture != "" {
			user.ProfilePicture = profilePicture
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during social login"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Name: name, Email: req.Email, ProfilePicture: profilePicture}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during social login"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during social login"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during social login"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
}

// fetchAvatar downloads a remote avatar into the profile_pictures
// store. Best-effort: any failure yields an empty path, never an error
// surfaced to the user.
func fetchAvatar(url string) string {
	if url == "" || Disk == nil {
		return ""
	}
	resp, err := avatarClient.Get(url)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	filename := uuid.NewString()[:10] + ".jpg"
	path, err := Disk.Save(resp.Body, "profile_pictures", filename)
	if err != nil {
		return ""
	}
	return path
}
