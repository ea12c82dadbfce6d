package database

import (
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stekatag/project-management-app/internal/models"
)

var DB *gorm.DB

// InitDB opens the SQLite database at path and runs migrations plus the
// global seed. glebarez/sqlite is pure Go, so no CGO is required.
func InitDB(path string) {
	var err error

	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
	if err := Seed(DB); err != nil {
		log.Fatal("Failed to seed database: ", err)
	}

	log.Println("Database connected and migrated")
}

// GetDB returns the database connection.
func GetDB() *gorm.DB {
	return DB
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Project{},
		&models.ProjectMember{},
		&models.TaskStatus{},
		&models.KanbanColumn{},
		&models.TaskLabel{},
		&models.Task{},
		&models.TaskStatusChange{},
		&models.TaskComment{},
	)
}

// Seed inserts the global roles, default task statuses and default
// labels. It is idempotent: existing rows are left untouched.
func Seed(db *gorm.DB) error {
	for _, name := range []string{models.RoleAdmin, models.RoleProjectManager, models.RoleProjectMember} {
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	// Global default statuses: visible in every project until the
	// project defines its own.
	defaults := []models.TaskStatus{
		{Name: "Pending", Slug: models.StatusSlugPending, Color: "#f59e0b", IsDefault: true},
		{Name: "In Progress", Slug: models.StatusSlugInProgress, Color: "#3b82f6", IsDefault: true},
		{Name: "Completed", Slug: models.StatusSlugCompleted, Color: "#22c55e", IsDefault: true},
	}
	for _, s := range defaults {
		var existing models.TaskStatus
		err := db.Where("slug = ? AND project_id IS NULL", s.Slug).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&s).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	labels := []models.TaskLabel{
		{Name: "Bug", Variant: "red"},
		{Name: "Feature", Variant: "green"},
		{Name: "Enhancement", Variant: "blue"},
		{Name: "Documentation", Variant: "gray"},
	}
	for _, l := range labels {
		var existing models.TaskLabel
		err := db.Where("name = ? AND project_id IS NULL", l.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&l).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	return nil
}
