package handlers

import (
	"errors"
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

// StoreTaskRequest is the payload for creating a task.
type StoreTaskRequest struct {
	Name           string `json:"name" form:"name" binding:"required,max=255"`
	Description    string `json:"description" form:"description"`
	DueDate        string `json:"due_date" form:"due_date"`
	Priority       string `json:"priority" form:"priority" binding:"omitempty,oneof=low medium high"`
	StatusID       *uint  `json:"status_id" form:"status_id"`
	ProjectID      uint   `json:"project_id" form:"project_id" binding:"required"`
	AssignedUserID *uint  `json:"assigned_user_id" form:"assigned_user_id"`
	LabelIDs       []uint `json:"label_ids" form:"label_ids"`
}

// UpdateTaskRequest is the payload for updating a task.
type UpdateTaskRequest struct {
	Name           string `json:"name" form:"name" binding:"required,max=255"`
	Description    string `json:"description" form:"description"`
	DueDate        string `json:"due_date" form:"due_date"`
	Priority       string `json:"priority" form:"priority" binding:"omitempty,oneof=low medium high"`
	StatusID       *uint  `json:"status_id" form:"status_id"`
	AssignedUserID *uint  `json:"assigned_user_id" form:"assigned_user_id"`
	LabelIDs       []uint `json:"label_ids" form:"label_ids"`
}

func fetchTask(c *gin.Context) (*models.Task, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, false
	}
	svc := services.NewTaskService(database.GetDB(), Disk)
	task, err := svc.GetTask(id)
	if err != nil {
		notFoundOr500(c, err, "Task")
		return nil, false
	}
	return task, true
}

func listTasksResponse(c *gin.Context, list func(*services.TaskService) ([]models.Task, int64, error)) {
	svc := services.NewTaskService(database.GetDB(), Disk)
	tasks, total, err := list(svc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(database.GetDB(), Disk)
	c.JSON(http.StatusOK, gin.H{
		"tasks": projector.Tasks(tasks, loc, true),
		"meta":  listMeta(parsePagination(c), total),
	})
}

// GetTasks handles GET /api/tasks: all tasks visible to the caller.
func GetTasks(c *gin.Context) {
	userID := middleware.UserID(c)
	filter := parseTaskFilter(c)
	sort := parseSort(c)
	page := parsePagination(c)
	listTasksResponse(c, func(svc *services.TaskService) ([]models.Task, int64, error) {
		return svc.GetTasks(userID, filter, sort, page)
	})
}

// GetMyTasks handles GET /api/my-tasks: tasks assigned to the caller.
func GetMyTasks(c *gin.Context) {
	userID := middleware.UserID(c)
	filter := parseTaskFilter(c)
	sort := parseSort(c)
	page := parsePagination(c)
	listTasksResponse(c, func(svc *services.TaskService) ([]models.Task, int64, error) {
		return svc.GetMyTasks(userID, filter, sort, page)
	})
}

// GetTask handles GET /api/tasks/:id.
func GetTask(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	policy := authz.NewPolicy(db)
	if task.Project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if forbid(c, policy.CanViewProject(task.Project, userID)) {
		return
	}

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{"task": projector.Task(task, loc, true)})
}

// GetTaskHistory handles GET /api/tasks/:id/history.
func GetTaskHistory(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil || !authz.NewPolicy(db).CanViewProject(task.Project, userID).Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	svc := services.NewTaskService(db, Disk)
	history, err := svc.StatusHistory(task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	type historyEntry struct {
		StatusID  uint   `json:"status_id"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	}
	loc := middleware.Location(c)
	entries := make([]historyEntry, 0, len(history))
	for _, h := range history {
		entry := historyEntry{StatusID: h.TaskStatusID, CreatedAt: h.CreatedAt.In(loc).Format("2006-01-02T15:04:05Z07:00")}
		if h.TaskStatus != nil {
			entry.Status = h.TaskStatus.Name
		}
		entries = append(entries, entry)
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// GetTaskOptions handles GET /api/task-options: the select options for
// the task forms, scoped to an optional project.
func GetTaskOptions(c *gin.Context) {
	userID := middleware.UserID(c)
	db := database.GetDB()
	svc := services.NewTaskService(db, Disk)

	projectID := queryUint(c, "project_id")
	projectOptions, err := svc.ProjectOptions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch options"})
		return
	}
	labelOptions, _ := svc.LabelOptions(projectID)
	statusOptions, _ := svc.StatusOptions(projectID, userID)

	c.JSON(http.StatusOK, gin.H{
		"projectOptions": projectOptions,
		"labelOptions":   labelOptions,
		"statusOptions":  statusOptions,
	})
}

// CreateTask handles POST /api/tasks.
func CreateTask(c *gin.Context) {
	userID := middleware.UserID(c)

	var req StoreTaskRequest
	if !bindRequest(c, &req) {
		return
	}

	db := database.GetDB()
	projSvc := services.NewProjectService(db, Disk)
	project, err := projSvc.GetProject(req.ProjectID)
	if err != nil {
		notFoundOr500(c, err, "Project")
		return
	}

	// Members may only create tasks assigned to themselves
	policy := authz.NewPolicy(db)
	draft := models.Task{AssignedUserID: req.AssignedUserID}
	if forbid(c, policy.CanManageTask(project, &draft, userID)) {
		return
	}

	loc := middleware.Location(c)
	in := services.TaskInput{
		Name:           req.Name,
		Description:    req.Description,
		DueDate:        parseDueDate(req.DueDate, loc),
		Priority:       models.TaskPriority(req.Priority),
		StatusID:       req.StatusID,
		AssignedUserID: req.AssignedUserID,
		LabelIDs:       req.LabelIDs,
		Image:          imageUpload(c),
	}

	svc := services.NewTaskService(db, Disk)
	task, err := svc.StoreTask(userID, project.ID, in)
	if err != nil {
		if errors.Is(err, services.ErrStatusNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task status not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	realtime.GetHub().NotifyProject(db, project.ID, realtime.Event{
		Type:    realtime.EventTaskCreated,
		TaskID:  task.ID,
		ActorID: userID,
	})

	full, err := svc.GetTask(task.ID)
	if err != nil {
		full = task
	}
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusCreated, gin.H{"task": projector.Task(full, loc, true)})
}

// UpdateTask handles PUT /api/tasks/:id.
func UpdateTask(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if forbid(c, authz.NewPolicy(db).CanManageTask(task.Project, task, userID)) {
		return
	}

	var req UpdateTaskRequest
	if !bindRequest(c, &req) {
		return
	}

	loc := middleware.Location(c)
	in := services.TaskInput{
		Name:           req.Name,
		Description:    req.Description,
		DueDate:        parseDueDate(req.DueDate, loc),
		Priority:       models.TaskPriority(req.Priority),
		StatusID:       req.StatusID,
		AssignedUserID: req.AssignedUserID,
		LabelIDs:       req.LabelIDs,
		Image:          imageUpload(c),
	}

	svc := services.NewTaskService(db, Disk)
	if _, err := svc.UpdateTask(task, userID, in); err != nil {
		if errors.Is(err, services.ErrStatusNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task status not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	realtime.GetHub().NotifyProject(db, task.ProjectID, realtime.Event{
		Type:    realtime.EventTaskUpdated,
		TaskID:  task.ID,
		ActorID: userID,
	})

	full, err := svc.GetTask(task.ID)
	if err != nil {
		full = task
	}
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{"task": projector.Task(full, loc, true)})
}

// DeleteTask handles DELETE /api/tasks/:id.
func DeleteTask(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if forbid(c, authz.NewPolicy(db).CanManageTask(task.Project, task, userID)) {
		return
	}

	svc := services.NewTaskService(db, Disk)
	if err := svc.DeleteTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	realtime.GetHub().NotifyProject(db, task.ProjectID, realtime.Event{
		Type:    realtime.EventTaskDeleted,
		TaskID:  task.ID,
		ActorID: userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully.",
		"id":      task.ID,
	})
}

// DeleteTaskImage handles DELETE /api/tasks/:id/image. The response
// intentionally nulls the image path.
func DeleteTaskImage(c *gin.Context) {
	userID := middleware.UserID(c)
	task, ok := fetchTask(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if task.Project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if forbid(c, authz.NewPolicy(db).CanManageTask(task.Project, task, userID)) {
		return
	}

	svc := services.NewTaskService(db, Disk)
	if err := svc.DeleteImage(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Task image deleted successfully.",
		"image_path": nil,
	})
}
