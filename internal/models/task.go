package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskPriority represents the priority of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Well-known status slugs. Statuses are open-ended rows, but the seeded
// defaults anchor dashboard counts and the "active task" predicate.
const (
	StatusSlugPending    = "pending"
	StatusSlugInProgress = "in_progress"
	StatusSlugCompleted  = "completed"
)

// TaskStatus is a status row. ProjectID nil means the status is global
// and implicitly visible inside every project.
type TaskStatus struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"not null;index"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"is_default" gorm:"default:false"`
	ProjectID *uint     `json:"project_id" gorm:"index"`
	Project   *Project  `json:"-" gorm:"foreignKey:ProjectID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TaskStatus) TableName() string {
	return "task_statuses"
}

// KanbanColumn maps a status onto a board position within one project.
// At most one column exists per (project, status); the task service
// creates the column lazily on the first transition into a status.
type KanbanColumn struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"not null"`
	Color        string      `json:"color"`
	Order        int         `json:"order" gorm:"not null;default:0"`
	ProjectID    uint        `json:"project_id" gorm:"not null;uniqueIndex:uk_project_status"`
	TaskStatusID uint        `json:"task_status_id" gorm:"not null;uniqueIndex:uk_project_status"`
	IsDefault    bool        `json:"is_default" gorm:"default:false"`
	TaskStatus   *TaskStatus `json:"task_status,omitempty" gorm:"foreignKey:TaskStatusID"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (KanbanColumn) TableName() string {
	return "kanban_columns"
}

// TaskLabel is a tag attachable to tasks. ProjectID nil means globally
// available; otherwise the label is scoped to one project.
type TaskLabel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Variant   string    `json:"variant"`
	ProjectID *uint     `json:"project_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TaskLabel) TableName() string {
	return "task_labels"
}

// Task represents a unit of work inside a project.
type Task struct {
	ID             uint               `json:"id" gorm:"primaryKey"`
	Name           string             `json:"name" gorm:"not null"`
	Description    string             `json:"description"`
	DueDate        *time.Time         `json:"due_date"`
	Priority       TaskPriority       `json:"priority" gorm:"not null;default:'medium'"`
	StatusID       uint               `json:"status_id" gorm:"index"`
	Status         *TaskStatus        `json:"status,omitempty" gorm:"foreignKey:StatusID"`
	ProjectID      uint               `json:"project_id" gorm:"not null;index"`
	Project        *Project           `json:"-" gorm:"foreignKey:ProjectID"`
	AssignedUserID *uint              `json:"assigned_user_id" gorm:"index"`
	AssignedUser   *User              `json:"-" gorm:"foreignKey:AssignedUserID"`
	CreatedByID    uint               `json:"created_by" gorm:"column:created_by"`
	UpdatedByID    uint               `json:"updated_by" gorm:"column:updated_by"`
	CreatedBy      *User              `json:"-" gorm:"foreignKey:CreatedByID"`
	UpdatedBy      *User              `json:"-" gorm:"foreignKey:UpdatedByID"`
	ImagePath      string             `json:"image_path"`
	KanbanColumnID *uint              `json:"kanban_column_id"`
	KanbanColumn   *KanbanColumn      `json:"-" gorm:"foreignKey:KanbanColumnID"`
	Labels         []TaskLabel        `json:"labels,omitempty" gorm:"many2many:task_label_pivot"`
	StatusHistory  []TaskStatusChange `json:"-" gorm:"foreignKey:TaskID"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskStatusChange is an append-only record of a status transition.
type TaskStatusChange struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	TaskID       uint        `json:"task_id" gorm:"not null;index"`
	TaskStatusID uint        `json:"task_status_id" gorm:"not null"`
	TaskStatus   *TaskStatus `json:"task_status,omitempty" gorm:"foreignKey:TaskStatusID"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (TaskStatusChange) TableName() string {
	return "task_status_history"
}

// TaskComment is a threaded comment on a task. Replies reference their
// parent comment; deletion is soft so replies keep a valid parent.
type TaskComment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TaskID    uint           `json:"task_id" gorm:"not null;index"`
	UserID    uint           `json:"user_id" gorm:"not null"`
	Content   string         `json:"content" gorm:"not null"`
	ParentID  *uint          `json:"parent_id"`
	IsEdited  bool           `json:"is_edited" gorm:"default:false"`
	User      *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (TaskComment) TableName() string {
	return "task_comments"
}
