package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/authz"
	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/resources"
	"github.com/stekatag/project-management-app/internal/services"
)

// StoreCommentRequest is the payload for adding a comment or a reply.
type StoreCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// UpdateCommentRequest is the payload for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func projectComment(c *gin.Context, projector *resources.Projector, comment *models.TaskComment) resources.CommentResource {
	loc := middleware.Location(c)
	return projector.Comments([]models.TaskComment{*comment}, loc)[0]
}

// GetComments handles GET /api/tasks/:id/comments.
func GetComments(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil || forbid(c, authz.NewPolicy(db).CanViewProject(task.Project, userID)) {
		return
	}

	svc := services.NewCommentService(db)
	comments, err := svc.GetComments(task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{"comments": projector.Comments(comments, loc)})
}

// CreateComment handles POST /api/tasks/:id/comments. Any accepted
// project member may comment.
func CreateComment(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil || forbid(c, authz.NewPolicy(db).CanViewProject(task.Project, userID)) {
		return
	}

	var req StoreCommentRequest
	if !bindRequest(c, &req) {
		return
	}

	svc := services.NewCommentService(db)
	comment, result := svc.AddComment(task, userID, req.Content, req.ParentID)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	if full, err := svc.GetComment(comment.ID); err == nil {
		comment = full
	}
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": result.Message,
		"comment": projectComment(c, projector, comment),
	})
}

// UpdateComment handles PUT /api/comments/:id. Only the author edits;
// the comment is marked as edited.
func UpdateComment(c *gin.Context) {
	userID := middleware.UserID(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	db := database.GetDB()
	svc := services.NewCommentService(db)
	comment, err := svc.GetComment(id)
	if err != nil {
		notFoundOr500(c, err, "Comment")
		return
	}

	var req UpdateCommentRequest
	if !bindRequest(c, &req) {
		return
	}

	result := svc.UpdateComment(comment, userID, req.Content)
	if !result.Success {
		c.JSON(http.StatusForbidden, result)
		return
	}

	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"comment": projectComment(c, projector, comment),
	})
}

// DeleteComment handles DELETE /api/comments/:id. The author or a
// manager of the owning project may delete.
func DeleteComment(c *gin.Context) {
	userID := middleware.UserID(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	db := database.GetDB()
	svc := services.NewCommentService(db)
	comment, err := svc.GetComment(id)
	if err != nil {
		notFoundOr500(c, err, "Comment")
		return
	}

	if comment.UserID != userID {
		taskSvc := services.NewTaskService(db, Disk)
		task, err := taskSvc.GetTask(comment.TaskID)
		if err != nil || task.Project == nil {
			notFoundOr500(c, err, "Task")
			return
		}
		if forbid(c, authz.NewPolicy(db).CanManageTask(task.Project, task, userID)) {
			return
		}
	}

	if err := svc.DeleteComment(comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment deleted.",
	})
}
