package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/authz"
	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/realtime"
	"github.com/stekatag/project-management-app/internal/resources"
	"github.com/stekatag/project-management-app/internal/services"
)

// StoreProjectRequest is the payload for creating a project.
type StoreProjectRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	Description string `json:"description" form:"description"`
	DueDate     string `json:"due_date" form:"due_date"`
	Status      string `json:"status" form:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// UpdateProjectRequest is the payload for updating a project.
type UpdateProjectRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	Description string `json:"description" form:"description"`
	DueDate     string `json:"due_date" form:"due_date"`
	Status      string `json:"status" form:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// InviteRequest is the payload for inviting a user by email.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// KickMembersRequest is the payload for bulk member removal.
type KickMembersRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// UpdateUserRoleRequest changes a membership role.
type UpdateUserRoleRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=project_manager project_member"`
}

func fetchProject(c *gin.Context) (*models.Project, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, false
	}
	svc := services.NewProjectService(database.GetDB(), Disk)
	project, err := svc.GetProject(id)
	if err != nil {
		notFoundOr500(c, err, "Project")
		return nil, false
	}
	return project, true
}

// GetProjects handles GET /api/projects.
func GetProjects(c *gin.Context) {
	userID := middleware.UserID(c)
	svc := services.NewProjectService(database.GetDB(), Disk)

	filter := parseProjectFilter(c)
	sort := parseSort(c)
	page := parsePagination(c)

	projects, total, err := svc.GetProjects(userID, filter, sort, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(database.GetDB(), Disk)
	policy := authz.NewPolicy(database.GetDB())

	permissions := make(map[uint]bool, len(projects))
	for i := range projects {
		permissions[projects[i].ID] = policy.CanEditProject(&projects[i], userID).Allowed
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":    projector.Projects(projects, loc),
		"permissions": permissions,
		"meta":        listMeta(page, total),
	})
}

// GetProject handles GET /api/projects/:id. Tasks are rendered in the
// project context, so their embedded project reference is suppressed.
func GetProject(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	policy := authz.NewPolicy(db)
	if forbid(c, policy.CanViewProject(project, userID)) {
		return
	}

	filter := parseTaskFilter(c)
	filter.ProjectID = &project.ID
	sort := parseSort(c)
	page := parsePagination(c)

	taskSvc := services.NewTaskService(db, Disk)
	tasks, total, err := taskSvc.GetTasks(userID, filter, sort, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}

	labelOptions, _ := taskSvc.LabelOptions(&project.ID)
	statusOptions, _ := taskSvc.StatusOptions(&project.ID, userID)

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)

	c.JSON(http.StatusOK, gin.H{
		"project":       projector.Project(project, loc),
		"tasks":         projector.Tasks(tasks, loc, false),
		"meta":          listMeta(page, total),
		"labelOptions":  labelOptions,
		"statusOptions": statusOptions,
		"permissions": gin.H{
			"canInviteUsers": policy.CanInviteUsers(project, userID).Allowed,
			"canEditProject": policy.CanEditProject(project, userID).Allowed,
			"canManageTasks": policy.CanManageBoard(project, userID).Allowed,
			"canManageBoard": policy.CanManageBoard(project, userID).Allowed,
		},
	})
}

// CreateProject handles POST /api/projects.
func CreateProject(c *gin.Context) {
	userID := middleware.UserID(c)

	var req StoreProjectRequest
	if !bindRequest(c, &req) {
		return
	}

	loc := middleware.Location(c)
	in := services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     parseDueDate(req.DueDate, loc),
		Status:      models.ProjectStatus(req.Status),
		Image:       imageUpload(c),
	}

	svc := services.NewProjectService(database.GetDB(), Disk)
	project, err := svc.StoreProject(userID, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	projector := resources.NewProjector(database.GetDB(), Disk)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Project '%s' created successfully.", project.Name),
		"project": projector.Project(project, loc),
	})
}

// UpdateProject handles PUT /api/projects/:id.
func UpdateProject(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanManage(project, userID)) {
		return
	}

	var req UpdateProjectRequest
	if !bindRequest(c, &req) {
		return
	}

	loc := middleware.Location(c)
	in := services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     parseDueDate(req.DueDate, loc),
		Status:      models.ProjectStatus(req.Status),
		Image:       imageUpload(c),
	}

	svc := services.NewProjectService(db, Disk)
	if err := svc.UpdateProject(project, userID, in); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
		Type:    realtime.EventProjectUpdated,
		ActorID: userID,
	})

	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Project '%s' updated successfully.", project.Name),
		"project": projector.Project(project, loc),
	})
}

// DeleteProject handles DELETE /api/projects/:id.
func DeleteProject(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanManage(project, userID)) {
		return
	}

	realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
		Type:    realtime.EventProjectDeleted,
		ActorID: userID,
	})

	svc := services.NewProjectService(db, Disk)
	if err := svc.DeleteProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Project '%s' deleted successfully.", project.Name),
	})
}

// InviteUser handles POST /api/projects/:id/invite.
func InviteUser(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanInviteUsers(project, userID)) {
		return
	}

	var req InviteRequest
	if !bindRequest(c, &req) {
		return
	}

	svc := services.NewProjectService(db, Disk)
	result := svc.HandleInvitation(project, req.Email)
	if result.Success {
		realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
			Type:    realtime.EventMemberInvited,
			ActorID: userID,
		})
	}
	c.JSON(http.StatusOK, result)
}

// GetInvitations handles GET /api/invitations: the caller's pending
// invitations.
func GetInvitations(c *gin.Context) {
	userID := middleware.UserID(c)
	db := database.GetDB()

	svc := services.NewProjectService(db, Disk)
	invitations, err := svc.GetPendingInvitations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{"invitations": projector.Invitations(invitations, loc)})
}

// AcceptInvitation handles POST /api/projects/:id/accept-invitation.
func AcceptInvitation(c *gin.Context) {
	respondInvitation(c, models.MembershipAccepted)
}

// RejectInvitation handles POST /api/projects/:id/reject-invitation.
func RejectInvitation(c *gin.Context) {
	respondInvitation(c, models.MembershipRejected)
}

func respondInvitation(c *gin.Context, status models.MembershipStatus) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	svc := services.NewProjectService(database.GetDB(), Disk)
	result := svc.UpdateInvitationStatus(project, userID, status)
	c.JSON(http.StatusOK, result)
}

// LeaveProject handles POST /api/projects/:id/leave.
func LeaveProject(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	svc := services.NewProjectService(db, Disk)
	result := svc.LeaveProject(project, userID)
	if result.Success {
		realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
			Type:    realtime.EventMemberLeft,
			ActorID: userID,
		})
	}
	c.JSON(http.StatusOK, result)
}

// CheckRole handles GET /api/projects/:id/check-role.
func CheckRole(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	policy := authz.NewPolicy(database.GetDB())
	c.JSON(http.StatusOK, gin.H{
		"isProjectMember": policy.IsProjectMember(project, userID),
	})
}

// KickMembers handles POST /api/projects/:id/kick-members. Removing
// ordinary members needs manager rights; removing managers needs the
// elevated creator check.
func KickMembers(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	policy := authz.NewPolicy(db)
	if forbid(c, policy.CanKickProjectMember(project, userID)) {
		return
	}

	var req KickMembersRequest
	if !bindRequest(c, &req) {
		return
	}

	svc := services.NewProjectService(db, Disk)
	if svc.HasAcceptedManagers(project, req.UserIDs) {
		if forbid(c, policy.CanKickProjectManager(project, userID)) {
			return
		}
	}

	result := svc.KickMembers(project, req.UserIDs)
	if result.Success {
		realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
			Type:    realtime.EventMemberKicked,
			ActorID: userID,
		})
	}
	c.JSON(http.StatusOK, result)
}

// UpdateUserRole handles PATCH /api/projects/:id/user-role.
func UpdateUserRole(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanManage(project, userID)) {
		return
	}

	var req UpdateUserRoleRequest
	if !bindRequest(c, &req) {
		return
	}

	svc := services.NewProjectService(db, Disk)
	c.JSON(http.StatusOK, svc.UpdateUserRole(project, req.UserID, req.Role))
}

// GetProjectMembers handles GET /api/projects/:id/members.
func GetProjectMembers(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanViewProject(project, userID)) {
		return
	}

	svc := services.NewProjectService(db, Disk)
	members, err := svc.AcceptedMembers(project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{"members": projector.Members(members)})
}

// DeleteProjectImage handles DELETE /api/projects/:id/image. The
// response intentionally nulls the image path.
func DeleteProjectImage(c *gin.Context) {
	userID := middleware.UserID(c)
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if forbid(c, authz.NewPolicy(db).CanEditProject(project, userID)) {
		return
	}

	svc := services.NewProjectService(db, Disk)
	if err := svc.DeleteImage(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Project image deleted successfully.",
		"image_path": nil,
	})
}

// CheckInvitation handles GET /api/projects/:id/check-invitation.
func CheckInvitation(c *gin.Context) {
	project, ok := fetchProject(c)
	if !ok {
		return
	}

	email := c.Query("email")
	svc := services.NewProjectService(database.GetDB(), Disk)
	c.JSON(http.StatusOK, gin.H{
		"hasPendingInvitation": email != "" && svc.HasPendingInvitation(project, email),
	})
}
