package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/authz"
	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/resources"
	"github.com/stekatag/project-management-app/internal/services"
)

// StoreTaskLabelRequest is the payload for creating a label. A nil
// project id creates a globally available label.
type StoreTaskLabelRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	Variant   string `json:"variant" binding:"required"`
	ProjectID *uint  `json:"project_id"`
}

// UpdateTaskLabelRequest is the payload for updating a label.
type UpdateTaskLabelRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Variant string `json:"variant" binding:"required"`
}

func fetchLabel(c *gin.Context) (*models.TaskLabel, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, false
	}
	svc := services.NewLabelService(database.GetDB())
	label, err := svc.GetLabel(id)
	if err != nil {
		notFoundOr500(c, err, "Label")
		return nil, false
	}
	return label, true
}

// GetLabels handles GET /api/labels, scoped by an optional project_id.
func GetLabels(c *gin.Context) {
	svc := services.NewLabelService(database.GetDB())
	labels, err := svc.GetLabels(queryUint(c, "project_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch labels"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(database.GetDB(), Disk)
	c.JSON(http.StatusOK, gin.H{"labels": projector.Labels(labels, loc)})
}

// GetLabel handles GET /api/labels/:id.
func GetLabel(c *gin.Context) {
	label, ok := fetchLabel(c)
	if !ok {
		return
	}
	loc := middleware.Location(c)
	projector := resources.NewProjector(database.GetDB(), Disk)
	c.JSON(http.StatusOK, gin.H{"label": projector.Label(label, loc)})
}

// CreateLabel handles POST /api/labels. Project-scoped labels require
// board management rights on that project.
func CreateLabel(c *gin.Context) {
	userID := middleware.UserID(c)

	var req StoreTaskLabelRequest
	if !bindRequest(c, &req) {
		return
	}

	db := database.GetDB()
	if req.ProjectID != nil {
		projSvc := services.NewProjectService(db, Disk)
		project, err := projSvc.GetProject(*req.ProjectID)
		if err != nil {
			notFoundOr500(c, err, "Project")
			return
		}
		if forbid(c, authz.NewPolicy(db).CanManageBoard(project, userID)) {
			return
		}
	}

	svc := services.NewLabelService(db)
	label, err := svc.StoreLabel(services.LabelInput{
		Name:      req.Name,
		Variant:   req.Variant,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create label"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task label created successfully.",
		"label":   projector.Label(label, loc),
	})
}

// UpdateLabel handles PUT /api/labels/:id.
func UpdateLabel(c *gin.Context) {
	userID := middleware.UserID(c)
	label, ok := fetchLabel(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if label.ProjectID != nil {
		projSvc := services.NewProjectService(db, Disk)
		project, err := projSvc.GetProject(*label.ProjectID)
		if err != nil {
			notFoundOr500(c, err, "Project")
			return
		}
		if forbid(c, authz.NewPolicy(db).CanManageBoard(project, userID)) {
			return
		}
	}

	var req UpdateTaskLabelRequest
	if !bindRequest(c, &req) {
		return
	}

	svc := services.NewLabelService(db)
	if err := svc.UpdateLabel(label, services.LabelInput{Name: req.Name, Variant: req.Variant}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update label"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task label updated successfully.",
		"label":   projector.Label(label, loc),
	})
}

// DeleteLabel handles DELETE /api/labels/:id.
func DeleteLabel(c *gin.Context) {
	userID := middleware.UserID(c)
	label, ok := fetchLabel(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if label.ProjectID != nil {
		projSvc := services.NewProjectService(db, Disk)
		project, err := projSvc.GetProject(*label.ProjectID)
		if err != nil {
			notFoundOr500(c, err, "Project")
			return
		}
		if forbid(c, authz.NewPolicy(db).CanManageBoard(project, userID)) {
			return
		}
	}

	svc := services.NewLabelService(db)
	if err := svc.DeleteLabel(label); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete label"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Task label '%s' deleted successfully.", label.Name),
	})
}

// SearchLabels handles GET /api/label-search.
func SearchLabels(c *gin.Context) {
	svc := services.NewLabelService(database.GetDB())
	labels, err := svc.SearchLabels(c.Query("query"), queryUint(c, "project_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search labels"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(database.GetDB(), Disk)
	c.JSON(http.StatusOK, projector.Labels(labels, loc))
}
