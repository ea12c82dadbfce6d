package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/storage"
)

// NewInMemoryDB creates an in-memory SQLite DB with migrations and the
// global seed applied.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewTestDisk returns a Disk rooted in a per-test temp directory.
func NewTestDisk(t *testing.T) *storage.Disk {
	t.Helper()
	disk, err := storage.NewDisk(t.TempDir(), "/storage")
	if err != nil {
		t.Fatal(err)
	}
	return disk
}

// CreateUser inserts a user and returns it.
func CreateUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return &user
}

// CreateProject inserts a project owned by the user, with the creator
// membership the project service would normally attach.
func CreateProject(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Project {
	t.Helper()
	project := models.Project{Name: name, Status: models.ProjectPending, CreatedByID: owner.ID, UpdatedByID: owner.ID}
	if err := db.Create(&project).Error; err != nil {
		t.Fatal(err)
	}
	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    owner.ID,
		Status:    models.MembershipAccepted,
		Role:      models.RoleProjectManager,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatal(err)
	}
	return &project
}

// AddMember inserts a membership row.
func AddMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, status models.MembershipStatus, role string) *models.ProjectMember {
	t.Helper()
	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Status:    status,
		Role:      role,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatal(err)
	}
	return &member
}

// DefaultStatus returns the seeded global status for a slug.
func DefaultStatus(t *testing.T, db *gorm.DB, slug string) *models.TaskStatus {
	t.Helper()
	var status models.TaskStatus
	if err := db.Where("slug = ? AND project_id IS NULL", slug).First(&status).Error; err != nil {
		t.Fatal(err)
	}
	return &status
}

// CreateTask inserts a task in the project with the seeded pending
// status.
func CreateTask(t *testing.T, db *gorm.DB, project *models.Project, creator *models.User, name string) *models.Task {
	t.Helper()
	status := DefaultStatus(t, db, models.StatusSlugPending)
	task := models.Task{
		Name:        name,
		StatusID:    status.ID,
		ProjectID:   project.ID,
		Priority:    models.PriorityMedium,
		CreatedByID: creator.ID,
		UpdatedByID: creator.ID,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	return &task
}
