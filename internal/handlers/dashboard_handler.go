package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/resources"
	"github.com/stekatag/project-management-app/internal/services"
)

// GetDashboard handles GET /api/dashboard: the aggregated task counts
// plus a paginated listing of the caller's active tasks.
func GetDashboard(c *gin.Context) {
	userID := middleware.UserID(c)
	db := database.GetDB()

	taskSvc := services.NewTaskService(db, Disk)
	svc := services.NewDashboardService(db, taskSvc)

	counts, err := svc.GetTaskCounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute task counts"})
		return
	}

	filter := parseTaskFilter(c)
	sort := parseSort(c)
	page := parsePagination(c)
	tasks, total, err := svc.GetActiveTasks(userID, filter, sort, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch active tasks"})
		return
	}

	projectOptions, _ := taskSvc.ProjectOptions(userID)
	labelOptions, _ := taskSvc.LabelOptions(nil)

	loc := middleware.Location(c)
	projector := resources.NewProjector(db, Disk)
	c.JSON(http.StatusOK, gin.H{
		"counts":         counts,
		"activeTasks":    projector.Tasks(tasks, loc, true),
		"meta":           listMeta(page, total),
		"projectOptions": projectOptions,
		"labelOptions":   labelOptions,
	})
}
