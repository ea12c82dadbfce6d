// Package resources maps persisted entities to client-facing shapes.
// Each entity has a full shape and an embedded-reference shape; the
// call site picks one explicitly, which is what breaks the mutual
// project/task recursion. Dates render as ISO-8601 in the location the
// caller resolved from the User-Timezone header.
package resources

import (
	"time"

	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/storage"
)

// Projector builds client-facing representations. It holds the
// database for the aggregated counts computed at the project-resource
// boundary and the disk for public image URLs.
type Projector struct {
	db   *gorm.DB
	disk *storage.Disk
}

// NewProjector returns a Projector over db and disk.
func NewProjector(db *gorm.DB, disk *storage.Disk) *Projector {
	return &Projector{db: db, disk: disk}
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

func formatTimePtr(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t, loc)
	return &s
}

// UserResource is the client-safe user shape.
type UserResource struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

// User projects a user; nil in, nil out.
func (p *Projector) User(u *models.User) *UserResource {
	if u == nil {
		return nil
	}
	return &UserResource{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: p.disk.URL(u.ProfilePicture),
	}
}

// LabelResource is the client-safe label shape.
type LabelResource struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Variant   string `json:"variant"`
	ProjectID *uint  `json:"project_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Label projects a task label.
func (p *Projector) Label(l *models.TaskLabel, loc *time.Location) LabelResource {
	return LabelResource{
		ID:        l.ID,
		Name:      l.Name,
		Variant:   l.Variant,
		ProjectID: l.ProjectID,
		CreatedAt: formatTime(l.CreatedAt, loc),
		UpdatedAt: formatTime(l.UpdatedAt, loc),
	}
}

// Labels projects a label list.
func (p *Projector) Labels(labels []models.TaskLabel, loc *time.Location) []LabelResource {
	out := make([]LabelResource, 0, len(labels))
	for i := range labels {
		out = append(out, p.Label(&labels[i], loc))
	}
	return out
}

// StatusResource is the client-safe status shape.
type StatusResource struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
	ProjectID *uint  `json:"project_id"`
}

// Status projects a task status; nil in, nil out.
func (p *Projector) Status(s *models.TaskStatus) *StatusResource {
	if s == nil {
		return nil
	}
	return &StatusResource{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		Color:     s.Color,
		IsDefault: s.IsDefault,
		ProjectID: s.ProjectID,
	}
}

// ProjectRef is the embedded-reference project shape used inside task
// projections to avoid recursing back into the full project shape.
type ProjectRef struct {
	ID     uint                 `json:"id"`
	Name   string               `json:"name"`
	Status models.ProjectStatus `json:"status"`
}

// ProjectRefOf projects a project reference; nil in, nil out.
func (p *Projector) ProjectRefOf(project *models.Project) *ProjectRef {
	if project == nil {
		return nil
	}
	return &ProjectRef{ID: project.ID, Name: project.Name, Status: project.Status}
}

// TaskResource is the full task shape. Project is nil when the task is
// rendered inside a project context (the embedded variant).
type TaskResource struct {
	ID             uint                `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	CreatedAt      string              `json:"created_at"`
	DueDate        *string             `json:"due_date"`
	Priority       models.TaskPriority `json:"priority"`
	StatusID       uint                `json:"status_id"`
	Status         *StatusResource     `json:"status"`
	ImagePath      string              `json:"image_path"`
	Project        *ProjectRef         `json:"project,omitempty"`
	ProjectID      uint                `json:"project_id"`
	AssignedUserID *uint               `json:"assigned_user_id"`
	AssignedUser   *UserResource       `json:"assignedUser"`
	CreatedBy      *UserResource       `json:"createdBy"`
	UpdatedBy      *UserResource       `json:"updatedBy"`
	KanbanColumnID *uint               `json:"kanban_column_id"`
	Labels         []LabelResource     `json:"labels"`
}

// Task projects a task. withProject selects the full shape; listings
// fetched in a project context pass false to suppress the reference.
func (p *Projector) Task(t *models.Task, loc *time.Location, withProject bool) TaskResource {
	res := TaskResource{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		CreatedAt:      formatTime(t.CreatedAt, loc),
		DueDate:        formatTimePtr(t.DueDate, loc),
		Priority:       t.Priority,
		StatusID:       t.StatusID,
		Status:         p.Status(t.Status),
		ImagePath:      p.disk.URL(t.ImagePath),
		ProjectID:      t.ProjectID,
		AssignedUserID: t.AssignedUserID,
		AssignedUser:   p.User(t.AssignedUser),
		CreatedBy:      p.User(t.CreatedBy),
		UpdatedBy:      p.User(t.UpdatedBy),
		KanbanColumnID: t.KanbanColumnID,
		Labels:         p.Labels(t.Labels, loc),
	}
	if withProject {
		res.Project = p.ProjectRefOf(t.Project)
	}
	return res
}

// Tasks projects a task list.
func (p *Projector) Tasks(tasks []models.Task, loc *time.Location, withProject bool) []TaskResource {
	out := make([]TaskResource, 0, len(tasks))
	for i := range tasks {
		out = append(out, p.Task(&tasks[i], loc, withProject))
	}
	return out
}

// ProjectResource is the full project shape, carrying the aggregated
// task counts and the five most recently updated tasks in their
// embedded variant.
type ProjectResource struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	CreatedAt       string               `json:"created_at"`
	DueDate         *string              `json:"due_date"`
	Status          models.ProjectStatus `json:"status"`
	ImagePath       string               `json:"image_path"`
	CreatedBy       *UserResource        `json:"createdBy"`
	UpdatedBy       *UserResource        `json:"updatedBy"`
	AcceptedUsers   []UserResource       `json:"acceptedUsers"`
	InvitedUsers    []UserResource       `json:"invitedUsers"`
	Tasks           []TaskResource       `json:"tasks"`
	TotalTasks      int64                `json:"total_tasks"`
	CompletedTasks  int64                `json:"completed_tasks"`
	InProgressTasks int64                `json:"in_progress_tasks"`
	PendingTasks    int64                `json:"pending_tasks"`
}

// Project projects the full shape. The task counts are the single
// source of truth for the project's aggregates.
func (p *Projector) Project(project *models.Project, loc *time.Location) ProjectResource {
	res := ProjectResource{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   formatTime(project.CreatedAt, loc),
		DueDate:     formatTimePtr(project.DueDate, loc),
		Status:      project.Status,
		ImagePath:   p.disk.URL(project.ImagePath),
		CreatedBy:   p.User(project.CreatedBy),
		UpdatedBy:   p.User(project.UpdatedBy),
	}

	res.AcceptedUsers = p.memberUsers(project.ID, models.MembershipAccepted)
	res.InvitedUsers = p.memberUsers(project.ID, models.MembershipPending)

	p.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&res.TotalTasks)
	res.CompletedTasks = p.countBySlug(project.ID, models.StatusSlugCompleted)
	res.InProgressTasks = p.countBySlug(project.ID, models.StatusSlugInProgress)
	res.PendingTasks = p.countBySlug(project.ID, models.StatusSlugPending)

	var latest []models.Task
	p.db.Where("project_id = ?", project.ID).
		Preload("Labels").Preload("Status").Preload("AssignedUser").
		Order("updated_at desc").Limit(5).
		Find(&latest)
	res.Tasks = p.Tasks(latest, loc, false)

	return res
}

func (p *Projector) countBySlug(projectID uint, slug string) int64 {
	var n int64
	p.db.Model(&models.Task{}).
		Joins("JOIN task_statuses ON task_statuses.id = tasks.status_id").
		Where("tasks.project_id = ? AND task_statuses.slug = ?", projectID, slug).
		Count(&n)
	return n
}

func (p *Projector) memberUsers(projectID uint, status models.MembershipStatus) []UserResource {
	var members []models.ProjectMember
	p.db.Where("project_id = ? AND status = ?", projectID, status).
		Preload("User").
		Find(&members)
	out := make([]UserResource, 0, len(members))
	for i := range members {
		if u := p.User(members[i].User); u != nil {
			out = append(out, *u)
		}
	}
	return out
}

// Projects projects a list of full project shapes.
func (p *Projector) Projects(projects []models.Project, loc *time.Location) []ProjectResource {
	out := make([]ProjectResource, 0, len(projects))
	for i := range projects {
		out = append(out, p.Project(&projects[i], loc))
	}
	return out
}

// InvitationResource is the pending-invitation shape shown on the
// invitations page.
type InvitationResource struct {
	ID        uint          `json:"id"`
	ProjectID uint          `json:"project_id"`
	Project   *ProjectRef   `json:"project"`
	InvitedBy *UserResource `json:"invitedBy"`
	Status    string        `json:"status"`
	CreatedAt string        `json:"created_at"`
}

// Invitations projects pending memberships with their projects.
func (p *Projector) Invitations(members []models.ProjectMember, loc *time.Location) []InvitationResource {
	out := make([]InvitationResource, 0, len(members))
	for i := range members {
		m := &members[i]
		inv := InvitationResource{
			ID:        m.ID,
			ProjectID: m.ProjectID,
			Project:   p.ProjectRefOf(m.Project),
			Status:    string(m.Status),
			CreatedAt: formatTime(m.CreatedAt, loc),
		}
		if m.Project != nil {
			inv.InvitedBy = p.User(m.Project.CreatedBy)
		}
		out = append(out, inv)
	}
	return out
}

// MemberResource is the membership shape for project member listings.
type MemberResource struct {
	ID     uint          `json:"id"`
	UserID uint          `json:"user_id"`
	Role   string        `json:"role"`
	Status string        `json:"status"`
	User   *UserResource `json:"user"`
}

// Members projects membership rows with their users.
func (p *Projector) Members(members []models.ProjectMember) []MemberResource {
	out := make([]MemberResource, 0, len(members))
	for i := range members {
		m := &members[i]
		out = append(out, MemberResource{
			ID:     m.ID,
			UserID: m.UserID,
			Role:   m.Role,
			Status: string(m.Status),
			User:   p.User(m.User),
		})
	}
	return out
}

// CommentResource is the client-safe comment shape.
type CommentResource struct {
	ID        uint          `json:"id"`
	TaskID    uint          `json:"task_id"`
	Content   string        `json:"content"`
	ParentID  *uint         `json:"parent_id"`
	IsEdited  bool          `json:"is_edited"`
	User      *UserResource `json:"user"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

// Comments projects a comment list.
func (p *Projector) Comments(comments []models.TaskComment, loc *time.Location) []CommentResource {
	out := make([]CommentResource, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		out = append(out, CommentResource{
			ID:        c.ID,
			TaskID:    c.TaskID,
			Content:   c.Content,
			ParentID:  c.ParentID,
			IsEdited:  c.IsEdited,
			User:      p.User(c.User),
			CreatedAt: formatTime(c.CreatedAt, loc),
			UpdatedAt: formatTime(c.UpdatedAt, loc),
		})
	}
	return out
}
