package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/cache"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/query"
	"github.com/stekatag/project-management-app/internal/sanitize"
	"github.com/stekatag/project-management-app/internal/storage"
)

// ErrStatusNotFound is returned when a task references a status id that
// does not exist. Missing foreign ids surface as not-found; only the
// default-status fallback on create is an intentional non-error.
var ErrStatusNotFound = errors.New("task status not found")

// ImageUpload is a pending file upload handed to a service.
type ImageUpload struct {
	Reader   io.Reader
	Filename string
}

// TaskInput carries validated fields for creating or updating a task.
// LabelIDs nil means "not provided": on update the label set is cleared,
// matching the full-replace sync semantics. A nil DueDate clears the
// stored due date on update.
type TaskInput struct {
	Name           string
	Description    string
	DueDate        *time.Time
	Priority       models.TaskPriority
	StatusID       *uint
	AssignedUserID *uint
	LabelIDs       []uint
	Image          *ImageUpload
}

// TaskService implements the task lifecycle including status/kanban
// synchronization and status history.
type TaskService struct {
	db   *gorm.DB
	disk *storage.Disk

	// default status ids per project, resolved lazily
	defaultStatus *cache.TTLCache[uint, uint]
}

// NewTaskService returns a TaskService over db and disk.
func NewTaskService(db *gorm.DB, disk *storage.Disk) *TaskService {
	return &TaskService{
		db:            db,
		disk:          disk,
		defaultStatus: cache.New[uint, uint](),
	}
}

// taskPreloads are the relations every task listing carries.
func taskPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Labels").
		Preload("Status").
		Preload("Project").
		Preload("AssignedUser").
		Preload("CreatedBy").
		Preload("UpdatedBy")
}

// visibleTasks scopes a query to tasks inside projects the user created
// or holds an accepted membership in.
func (s *TaskService) visibleTasks(userID uint) *gorm.DB {
	return s.db.Model(&models.Task{}).Where(
		`EXISTS (SELECT 1 FROM projects pr WHERE pr.id = tasks.project_id AND (
			pr.created_by = ? OR EXISTS (
				SELECT 1 FROM project_user pu
				WHERE pu.project_id = pr.id AND pu.user_id = ? AND pu.status = ?
			)
		))`,
		userID, userID, models.MembershipAccepted,
	)
}

func (s *TaskService) listTasks(base *gorm.DB, filter query.TaskFilter, sort query.Sort, page query.Pagination) ([]models.Task, int64, error) {
	base = filter.Apply(base)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	q := sort.Apply(base.Session(&gorm.Session{}), query.TaskSortFields)
	q = page.Apply(q)
	if err := taskPreloads(q).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// GetTasks lists all tasks visible to the user.
func (s *TaskService) GetTasks(userID uint, filter query.TaskFilter, sort query.Sort, page query.Pagination) ([]models.Task, int64, error) {
	return s.listTasks(s.visibleTasks(userID), filter, sort, page)
}

// GetMyTasks lists visible tasks assigned to the user.
func (s *TaskService) GetMyTasks(userID uint, filter query.TaskFilter, sort query.Sort, page query.Pagination) ([]models.Task, int64, error) {
	base := s.visibleTasks(userID).Where("tasks.assigned_user_id = ?", userID)
	return s.listTasks(base, filter, sort, page)
}

// GetActiveTasks lists tasks assigned to the user whose status slug is
// pending or in_progress.
func (s *TaskService) GetActiveTasks(userID uint, filter query.TaskFilter, sort query.Sort, page query.Pagination) ([]models.Task, int64, error) {
	base := s.visibleTasks(userID).
		Where("tasks.assigned_user_id = ?", userID).
		Where("tasks.status_id IN (SELECT id FROM task_statuses WHERE slug IN ?)",
			[]string{models.StatusSlugPending, models.StatusSlugInProgress})
	return s.listTasks(base, filter, sort, page)
}

// GetTask fetches one task with its relations.
func (s *TaskService) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := taskPreloads(s.db).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// defaultStatusID resolves the status for tasks created without one:
// the project's own "pending" status wins over the global default.
func (s *TaskService) defaultStatusID(projectID uint) (uint, bool) {
	if id, ok := s.defaultStatus.Get(projectID); ok {
		return id, true
	}

	var status models.TaskStatus
	err := s.db.
		Where("slug = ? AND (project_id = ? OR (project_id IS NULL AND is_default))",
			models.StatusSlugPending, projectID).
		Order("project_id IS NULL"). // project-scoped rows first
		First(&status).Error
	if err != nil {
		return 0, false
	}
	s.defaultStatus.Set(projectID, status.ID, 5*time.Minute)
	return status.ID, true
}

// StoreTask creates a task. The description is sanitized, the due date
// normalized to UTC, a missing status falls back to the default, the
// initial status lands in the history and the label set is synced.
func (s *TaskService) StoreTask(userID, projectID uint, in TaskInput) (*models.Task, error) {
	task := models.Task{
		Name:           in.Name,
		Description:    sanitize.HTML(in.Description),
		Priority:       in.Priority,
		ProjectID:      projectID,
		AssignedUserID: in.AssignedUserID,
		CreatedByID:    userID,
		UpdatedByID:    userID,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if in.DueDate != nil {
		utc := in.DueDate.UTC()
		task.DueDate = &utc
	}

	if in.StatusID != nil {
		var status models.TaskStatus
		if err := s.db.First(&status, *in.StatusID).Error; err != nil {
			return nil, ErrStatusNotFound
		}
		task.StatusID = status.ID
	} else if id, ok := s.defaultStatusID(projectID); ok {
		task.StatusID = id
	}

	if in.Image != nil {
		path, err := s.disk.Save(in.Image.Reader, "task", in.Image.Filename)
		if err != nil {
			return nil, err
		}
		task.ImagePath = path
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		if task.StatusID != 0 {
			change := models.TaskStatusChange{TaskID: task.ID, TaskStatusID: task.StatusID}
			if err := tx.Create(&change).Error; err != nil {
				return err
			}
		}
		if len(in.LabelIDs) > 0 {
			var labels []models.TaskLabel
			if err := tx.Find(&labels, in.LabelIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&task).Association("Labels").Replace(labels); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies the input. A status change resolves the kanban
// column mapped to the new status within the project, creating one at
// the end of the ordering when absent, and appends to the history.
// Labels are fully replaced when provided, cleared otherwise.
func (s *TaskService) UpdateTask(task *models.Task, userID uint, in TaskInput) (*models.Task, error) {
	task.Name = in.Name
	task.Description = sanitize.HTML(in.Description)
	task.UpdatedByID = userID
	task.AssignedUserID = in.AssignedUserID
	if in.Priority != "" {
		task.Priority = in.Priority
	}

	if in.DueDate != nil {
		utc := in.DueDate.UTC()
		task.DueDate = &utc
	} else {
		task.DueDate = nil
	}

	if in.Image != nil {
		if task.ImagePath != "" {
			s.disk.DeleteDir(task.ImagePath)
		}
		path, err := s.disk.Save(in.Image.Reader, "task", in.Image.Filename)
		if err != nil {
			return nil, err
		}
		task.ImagePath = path
	}

	statusChanged := in.StatusID != nil && *in.StatusID != task.StatusID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if statusChanged {
			column, err := s.syncKanbanColumn(tx, task.ProjectID, *in.StatusID)
			if err != nil {
				return err
			}
			task.StatusID = *in.StatusID
			task.KanbanColumnID = &column.ID

			change := models.TaskStatusChange{TaskID: task.ID, TaskStatusID: task.StatusID}
			if err := tx.Create(&change).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(task).Select("*").Omit("created_at", "created_by").Updates(task).Error; err != nil {
			return err
		}

		if len(in.LabelIDs) > 0 {
			var labels []models.TaskLabel
			if err := tx.Find(&labels, in.LabelIDs).Error; err != nil {
				return err
			}
			return tx.Model(task).Association("Labels").Replace(labels)
		}
		return tx.Model(task).Association("Labels").Clear()
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// syncKanbanColumn returns the column mapped to the status within the
// project, creating it at the end of the ordering (max(order)+1) and
// inheriting name, color and default flag from the status when absent.
func (s *TaskService) syncKanbanColumn(tx *gorm.DB, projectID, statusID uint) (*models.KanbanColumn, error) {
	var column models.KanbanColumn
	err := tx.Where("project_id = ? AND task_status_id = ?", projectID, statusID).First(&column).Error
	if err == nil {
		return &column, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var status models.TaskStatus
	if err := tx.First(&status, statusID).Error; err != nil {
		return nil, ErrStatusNotFound
	}

	var maxOrder int
	row := tx.Model(&models.KanbanColumn{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(`order`), 0)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return nil, err
	}

	column = models.KanbanColumn{
		Name:         status.Name,
		Color:        status.Color,
		Order:        maxOrder + 1,
		ProjectID:    projectID,
		TaskStatusID: status.ID,
		IsDefault:    status.IsDefault,
	}
	if err := tx.Create(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// DeleteTask removes the task's stored image directory, detaches its
// labels and history, then deletes the row.
func (s *TaskService) DeleteTask(task *models.Task) error {
	if task.ImagePath != "" {
		s.disk.DeleteDir(task.ImagePath)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).Association("Labels").Clear(); err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskStatusChange{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("task_id = ?", task.ID).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(task).Error
	})
}

// DeleteImage removes the task image from storage and clears the path.
func (s *TaskService) DeleteImage(task *models.Task) error {
	if task.ImagePath != "" {
		s.disk.DeleteDir(task.ImagePath)
	}
	task.ImagePath = ""
	return s.db.Model(task).Update("image_path", "").Error
}

// StatusHistory lists the task's status transitions oldest first.
func (s *TaskService) StatusHistory(taskID uint) ([]models.TaskStatusChange, error) {
	var history []models.TaskStatusChange
	err := s.db.Where("task_id = ?", taskID).
		Preload("TaskStatus").
		Order("created_at asc, id asc").
		Find(&history).Error
	return history, err
}

// ProjectOptions lists the user's visible projects as select options.
func (s *TaskService) ProjectOptions(userID uint) ([]Option, error) {
	var projects []models.Project
	err := VisibleProjects(s.db.Model(&models.Project{}), userID).
		Order("projects.name asc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(projects))
	for _, p := range projects {
		options = append(options, Option{Value: fmt.Sprint(p.ID), Label: p.Name})
	}
	return options, nil
}

// LabelOptions lists labels usable in the given project scope: the
// global catalog plus the project's own labels.
func (s *TaskService) LabelOptions(projectID *uint) ([]Option, error) {
	q := s.db.Model(&models.TaskLabel{})
	if projectID != nil {
		q = q.Where("project_id IS NULL OR project_id = ?", *projectID)
	}
	var labels []models.TaskLabel
	if err := q.Order("name asc").Find(&labels).Error; err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(labels))
	for _, l := range labels {
		options = append(options, Option{Value: fmt.Sprint(l.ID), Label: l.Name})
	}
	return options, nil
}

// StatusOptions merges the global default statuses with either the
// project's own statuses or, for global views, statuses from all of the
// user's projects. Custom status labels carry their project name.
func (s *TaskService) StatusOptions(projectID *uint, userID uint) ([]Option, error) {
	q := s.db.Model(&models.TaskStatus{}).Where("is_default AND project_id IS NULL")
	if projectID != nil {
		q = q.Or("project_id = ?", *projectID)
	} else {
		q = q.Or(
			"project_id IN (?)",
			VisibleProjects(s.db.Model(&models.Project{}), userID).Select("projects.id"),
		)
	}

	var statuses []models.TaskStatus
	if err := q.Preload("Project").Order("is_default desc, name asc").Find(&statuses).Error; err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(statuses))
	for _, st := range statuses {
		label := st.Name
		if !st.IsDefault && st.Project != nil {
			label = fmt.Sprintf("%s (%s)", st.Name, st.Project.Name)
		}
		options = append(options, Option{Value: fmt.Sprint(st.ID), Label: label})
	}
	return options, nil
}
