package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/resources"
)

// GetUsers handles GET /api/users.
func GetUsers(c *gin.Context) {
	var users []models.User
	if err := database.GetDB().Order("name asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	projector := resources.NewProjector(database.GetDB(), Disk)
	resp := make([]resources.UserResource, 0, len(users))
	for i := range users {
		resp = append(resp, *projector.User(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}

// SearchUsers handles GET /api/user-search: matches users by name or
// email substring, used by the invite form.
func SearchUsers(c *gin.Context) {
	term := c.Query("query")
	if term == "" {
		c.JSON(http.StatusOK, gin.H{"users": []resources.UserResource{}})
		return
	}

	var users []models.User
	err := database.GetDB().
		Where("name LIKE ? OR email LIKE ?", "%"+term+"%", "%"+term+"%").
		Order("name asc").
		Limit(20).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	projector := resources.NewProjector(database.GetDB(), Disk)
	resp := make([]resources.UserResource, 0, len(users))
	for i := range users {
		resp = append(resp, *projector.User(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}
