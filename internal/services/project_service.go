package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/query"
	"github.com/stekatag/project-management-app/internal/storage"
)

// ProjectInput carries validated fields for creating or updating a
// project. A nil DueDate clears the stored value on update.
type ProjectInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	Status      models.ProjectStatus
	Image       *ImageUpload
}

// ProjectService implements the project and membership lifecycle.
type ProjectService struct {
	db   *gorm.DB
	disk *storage.Disk
}

// NewProjectService returns a ProjectService over db and disk.
func NewProjectService(db *gorm.DB, disk *storage.Disk) *ProjectService {
	return &ProjectService{db: db, disk: disk}
}

// VisibleProjects scopes a query to projects the user created or holds
// an accepted membership in.
func VisibleProjects(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where(
		"projects.created_by = ? OR EXISTS (SELECT 1 FROM project_user pu WHERE pu.project_id = projects.id AND pu.user_id = ? AND pu.status = ?)",
		userID, userID, models.MembershipAccepted,
	)
}

// GetProjects lists the user's visible projects with filtering, sorting
// and pagination. Returns the page plus the unpaginated total.
func (s *ProjectService) GetProjects(userID uint, filter query.ProjectFilter, sort query.Sort, page query.Pagination) ([]models.Project, int64, error) {
	base := VisibleProjects(s.db.Model(&models.Project{}), userID)
	base = filter.Apply(base)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	q := sort.Apply(base.Session(&gorm.Session{}), query.ProjectSortFields)
	q = page.Apply(q)
	if err := q.Preload("CreatedBy").Preload("UpdatedBy").Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// GetProject fetches one project by id with its creator preloaded.
func (s *ProjectService) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("CreatedBy").Preload("UpdatedBy").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// StoreProject creates a project owned by the user, attaches the
// creator as an accepted project manager and grants the global
// project_manager role when absent.
func (s *ProjectService) StoreProject(userID uint, in ProjectInput) (*models.Project, error) {
	status := in.Status
	if status == "" {
		status = models.ProjectPending
	}

	project := models.Project{
		Name:        in.Name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      status,
		CreatedByID: userID,
		UpdatedByID: userID,
	}
	if in.Image != nil {
		path, err := s.disk.Save(in.Image.Reader, "project", in.Image.Filename)
		if err != nil {
			return nil, err
		}
		project.ImagePath = path
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Status:    models.MembershipAccepted,
			Role:      models.RoleProjectManager,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Preload("Roles").First(&user, userID).Error; err != nil {
			return err
		}
		if !user.HasRole(models.RoleProjectManager) {
			var role models.Role
			if err := tx.Where("name = ?", models.RoleProjectManager).First(&role).Error; err != nil {
				return err
			}
			if err := tx.Model(&user).Association("Roles").Append(&role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies the input and transfers updated_by to the
// acting user. A nil DueDate clears the stored due date.
func (s *ProjectService) UpdateProject(project *models.Project, userID uint, in ProjectInput) error {
	project.Name = in.Name
	project.Description = in.Description
	project.DueDate = in.DueDate
	if in.Status != "" {
		project.Status = in.Status
	}
	project.UpdatedByID = userID

	if in.Image != nil {
		if project.ImagePath != "" {
			s.disk.DeleteDir(project.ImagePath)
		}
		path, err := s.disk.Save(in.Image.Reader, "project", in.Image.Filename)
		if err != nil {
			return err
		}
		project.ImagePath = path
	}

	// Select("*") so cleared nullable columns persist
	return s.db.Model(project).Select("*").Omit("created_at", "created_by").Updates(project).Error
}

// DeleteProject removes the project and everything it owns: task
// images, label links, status history, comments, project-scoped
// statuses, columns and labels, memberships and finally the row itself.
func (s *ProjectService) DeleteProject(project *models.Project) error {
	var tasks []models.Task
	if err := s.db.Where("project_id = ?", project.ID).Find(&tasks).Error; err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ImagePath != "" {
			s.disk.DeleteDir(tasks[i].ImagePath)
		}
	}
	if project.ImagePath != "" {
		s.disk.DeleteDir(project.ImagePath)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range tasks {
			if err := tx.Model(&tasks[i]).Association("Labels").Clear(); err != nil {
				return err
			}
		}
		if err := tx.Where("task_id IN (SELECT id FROM tasks WHERE project_id = ?)", project.ID).
			Delete(&models.TaskStatusChange{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("task_id IN (SELECT id FROM tasks WHERE project_id = ?)", project.ID).
			Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.KanbanColumn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.TaskStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

// HandleInvitation invites a registered user to the project by email.
// Expected failures (unknown email, duplicate invitation, inviting the
// creator) come back as a failed Result, never as an error.
func (s *ProjectService) HandleInvitation(project *models.Project, email string) Result {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Fail("No user found with this email address.")
		}
		return Fail("Failed to look up user.")
	}

	if user.ID == project.CreatedByID {
		return Fail("The project creator is already a member.")
	}

	var existing models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ?", project.ID, user.ID).First(&existing).Error
	switch {
	case err == nil:
		switch existing.Status {
		case models.MembershipPending:
			return Fail("This user already has a pending invitation.")
		case models.MembershipAccepted:
			return Fail("This user is already a member of the project.")
		default:
			// A rejected invitation may be re-sent; reuse the row so the
			// (project, user) pair stays unique.
			existing.Status = models.MembershipPending
			existing.Role = models.RoleProjectMember
			if err := s.db.Save(&existing).Error; err != nil {
				return Fail("Failed to send invitation.")
			}
			return Ok(fmt.Sprintf("Invitation sent to %s.", email))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    user.ID,
			Status:    models.MembershipPending,
			Role:      models.RoleProjectMember,
		}
		if err := s.db.Create(&member).Error; err != nil {
			return Fail("Failed to send invitation.")
		}
		return Ok(fmt.Sprintf("Invitation sent to %s.", email))
	default:
		return Fail("Failed to look up invitation.")
	}
}

// UpdateInvitationStatus transitions the user's own pending invitation
// to accepted or rejected.
func (s *ProjectService) UpdateInvitationStatus(project *models.Project, userID uint, status models.MembershipStatus) Result {
	if status != models.MembershipAccepted && status != models.MembershipRejected {
		return Fail("Invalid invitation status.")
	}

	var member models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ? AND status = ?", project.ID, userID, models.MembershipPending).
		First(&member).Error
	if err != nil {
		return Fail("No pending invitation found for this project.")
	}

	member.Status = status
	if err := s.db.Save(&member).Error; err != nil {
		return Fail("Failed to update invitation.")
	}
	if status == models.MembershipAccepted {
		return Ok("Invitation accepted.")
	}
	return Ok("Invitation rejected.")
}

// LeaveProject removes the user's accepted membership. The creator
// cannot leave; they must delete the project instead.
func (s *ProjectService) LeaveProject(project *models.Project, userID uint) Result {
	if project.CreatedByID == userID {
		return Fail("The project creator cannot leave the project. Delete the project instead.")
	}

	res := s.db.Where("project_id = ? AND user_id = ? AND status = ?", project.ID, userID, models.MembershipAccepted).
		Delete(&models.ProjectMember{})
	if res.Error != nil {
		return Fail("Failed to leave project.")
	}
	if res.RowsAffected == 0 {
		return Fail("You are not a member of this project.")
	}
	return Ok("You have left the project.")
}

// KickMembers bulk-removes accepted memberships for the given users.
// Permission checks (including the elevated manager check) happen at
// the handler via the policy.
func (s *ProjectService) KickMembers(project *models.Project, userIDs []uint) Result {
	if len(userIDs) == 0 {
		return Fail("No members selected.")
	}
	res := s.db.Where("project_id = ? AND user_id IN ? AND status = ?", project.ID, userIDs, models.MembershipAccepted).
		Delete(&models.ProjectMember{})
	if res.Error != nil {
		return Fail("Failed to remove members.")
	}
	if res.RowsAffected == 0 {
		return Fail("No matching members found.")
	}
	return Ok(fmt.Sprintf("Removed %d member(s) from the project.", res.RowsAffected))
}

// HasAcceptedManagers reports whether any of the given users hold an
// accepted project_manager membership on the project.
func (s *ProjectService) HasAcceptedManagers(project *models.Project, userIDs []uint) bool {
	var count int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id IN ? AND status = ? AND role = ?",
			project.ID, userIDs, models.MembershipAccepted, models.RoleProjectManager).
		Count(&count)
	return count > 0
}

// UpdateUserRole changes a membership's role between the two
// non-creator roles.
func (s *ProjectService) UpdateUserRole(project *models.Project, userID uint, role string) Result {
	if role != models.RoleProjectManager && role != models.RoleProjectMember {
		return Fail("Invalid role.")
	}

	var member models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ? AND status = ?", project.ID, userID, models.MembershipAccepted).
		First(&member).Error
	if err != nil {
		return Fail("This user is not an accepted member of the project.")
	}

	member.Role = role
	if err := s.db.Save(&member).Error; err != nil {
		return Fail("Failed to update role.")
	}
	return Ok("Member role updated.")
}

// GetPendingInvitations lists the user's pending invitations with the
// inviting project preloaded.
func (s *ProjectService) GetPendingInvitations(userID uint) ([]models.ProjectMember, error) {
	var invitations []models.ProjectMember
	err := s.db.Where("user_id = ? AND status = ?", userID, models.MembershipPending).
		Preload("Project").Preload("Project.CreatedBy").
		Order("created_at desc").
		Find(&invitations).Error
	return invitations, err
}

// AcceptedMembers lists accepted memberships with users preloaded.
func (s *ProjectService) AcceptedMembers(project *models.Project) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := s.db.Where("project_id = ? AND status = ?", project.ID, models.MembershipAccepted).
		Preload("User").
		Find(&members).Error
	return members, err
}

// HasPendingInvitation reports whether any user whose email starts with
// the given prefix holds a pending invitation to the project.
func (s *ProjectService) HasPendingInvitation(project *models.Project, emailPrefix string) bool {
	var count int64
	s.db.Model(&models.ProjectMember{}).
		Joins("JOIN users ON users.id = project_user.user_id").
		Where("project_user.project_id = ? AND project_user.status = ? AND users.email LIKE ?",
			project.ID, models.MembershipPending, emailPrefix+"%").
		Count(&count)
	return count > 0
}

// DeleteImage removes the project image from storage and clears the
// stored path. The file delete is best-effort.
func (s *ProjectService) DeleteImage(project *models.Project) error {
	if project.ImagePath != "" {
		s.disk.DeleteDir(project.ImagePath)
	}
	project.ImagePath = ""
	return s.db.Model(project).Update("image_path", "").Error
}
