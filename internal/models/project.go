package models

import (
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// MembershipStatus tracks an invitation: pending until the invitee
// accepts or rejects; both outcomes are terminal.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipAccepted MembershipStatus = "accepted"
	MembershipRejected MembershipStatus = "rejected"
)

// Project groups tasks and carries its own membership list.
type Project struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	ImagePath   string          `json:"image_path"`
	DueDate     *time.Time      `json:"due_date"`
	Status      ProjectStatus   `json:"status" gorm:"not null;default:'pending'"`
	CreatedByID uint            `json:"created_by" gorm:"column:created_by;index"`
	UpdatedByID uint            `json:"updated_by" gorm:"column:updated_by"`
	CreatedBy   *User           `json:"-" gorm:"foreignKey:CreatedByID"`
	UpdatedBy   *User           `json:"-" gorm:"foreignKey:UpdatedByID"`
	Tasks       []Task          `json:"tasks,omitempty"`
	Members     []ProjectMember `json:"members,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMember is the (project, user) pivot carrying invitation status
// and the per-project role. One row per pair.
type ProjectMember struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	ProjectID uint             `json:"project_id" gorm:"not null;uniqueIndex:uk_project_user"`
	UserID    uint             `json:"user_id" gorm:"not null;uniqueIndex:uk_project_user;index"`
	Status    MembershipStatus `json:"status" gorm:"not null;default:'pending'"`
	Role      string           `json:"role" gorm:"not null"`
	Project   *Project         `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	User      *User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (ProjectMember) TableName() string {
	return "project_user"
}
