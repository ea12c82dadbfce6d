package services

import (
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/query"
)

// TaskCounts aggregates task totals per status slug over the caller's
// visible projects, both project-wide and for tasks assigned to the
// caller. Computed in one place; consumers must not recompute them.
type TaskCounts struct {
	TotalPending    int64 `json:"total_pending_tasks"`
	TotalInProgress int64 `json:"total_in_progress_tasks"`
	TotalCompleted  int64 `json:"total_completed_tasks"`
	MyPending       int64 `json:"my_pending_tasks"`
	MyInProgress    int64 `json:"my_in_progress_tasks"`
	MyCompleted     int64 `json:"my_completed_tasks"`
}

// DashboardService aggregates the caller's task overview.
type DashboardService struct {
	db    *gorm.DB
	tasks *TaskService
}

// NewDashboardService returns a DashboardService over db, reusing the
// task service for the active-task listing.
func NewDashboardService(db *gorm.DB, tasks *TaskService) *DashboardService {
	return &DashboardService{db: db, tasks: tasks}
}

// GetTaskCounts computes the dashboard counters in a single grouped
// query over the user's visible projects.
func (s *DashboardService) GetTaskCounts(userID uint) (TaskCounts, error) {
	type row struct {
		Slug  string
		Total int64
		Mine  int64
	}

	var rows []row
	err := s.db.Model(&models.Task{}).
		Select("task_statuses.slug AS slug, COUNT(*) AS total, SUM(CASE WHEN tasks.assigned_user_id = ? THEN 1 ELSE 0 END) AS mine", userID).
		Joins("JOIN task_statuses ON task_statuses.id = tasks.status_id").
		Where(`EXISTS (SELECT 1 FROM projects pr WHERE pr.id = tasks.project_id AND (
			pr.created_by = ? OR EXISTS (
				SELECT 1 FROM project_user pu
				WHERE pu.project_id = pr.id AND pu.user_id = ? AND pu.status = ?
			)
		))`, userID, userID, models.MembershipAccepted).
		Group("task_statuses.slug").
		Scan(&rows).Error
	if err != nil {
		return TaskCounts{}, err
	}

	var counts TaskCounts
	for _, r := range rows {
		switch r.Slug {
		case models.StatusSlugPending:
			counts.TotalPending, counts.MyPending = r.Total, r.Mine
		case models.StatusSlugInProgress:
			counts.TotalInProgress, counts.MyInProgress = r.Total, r.Mine
		case models.StatusSlugCompleted:
			counts.TotalCompleted, counts.MyCompleted = r.Total, r.Mine
		}
	}
	return counts, nil
}

// GetActiveTasks lists the caller's active tasks with the shared
// filter/sort composer.
func (s *DashboardService) GetActiveTasks(userID uint, filter query.TaskFilter, sort query.Sort, page query.Pagination) ([]models.Task, int64, error) {
	return s.tasks.GetActiveTasks(userID, filter, sort, page)
}
