package services

import (
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
)

// LabelInput carries validated fields for a task label.
type LabelInput struct {
	Name      string
	Variant   string
	ProjectID *uint
}

// LabelService implements task label CRUD and search. Labels with no
// project scope form the global catalog visible inside every project.
type LabelService struct {
	db *gorm.DB
}

// NewLabelService returns a LabelService over db.
func NewLabelService(db *gorm.DB) *LabelService {
	return &LabelService{db: db}
}

// GetLabels lists labels visible in the project scope: the global
// catalog unioned with the project's own labels. A nil projectID lists
// only the global catalog.
func (s *LabelService) GetLabels(projectID *uint) ([]models.TaskLabel, error) {
	q := s.db.Model(&models.TaskLabel{})
	if projectID != nil {
		q = q.Where("project_id IS NULL OR project_id = ?", *projectID)
	} else {
		q = q.Where("project_id IS NULL")
	}
	var labels []models.TaskLabel
	err := q.Order("name asc").Find(&labels).Error
	return labels, err
}

// GetLabel fetches one label by id.
func (s *LabelService) GetLabel(id uint) (*models.TaskLabel, error) {
	var label models.TaskLabel
	if err := s.db.First(&label, id).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// StoreLabel creates a label.
func (s *LabelService) StoreLabel(in LabelInput) (*models.TaskLabel, error) {
	label := models.TaskLabel{
		Name:      in.Name,
		Variant:   in.Variant,
		ProjectID: in.ProjectID,
	}
	if err := s.db.Create(&label).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// UpdateLabel applies the input to an existing label.
func (s *LabelService) UpdateLabel(label *models.TaskLabel, in LabelInput) error {
	label.Name = in.Name
	label.Variant = in.Variant
	return s.db.Save(label).Error
}

// DeleteLabel detaches the label from all tasks and deletes it.
func (s *LabelService) DeleteLabel(label *models.TaskLabel) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_label_pivot WHERE task_label_id = ?", label.ID).Error; err != nil {
			return err
		}
		return tx.Delete(label).Error
	})
}

// SearchLabels finds labels by name substring within the scope.
func (s *LabelService) SearchLabels(queryStr string, projectID *uint) ([]models.TaskLabel, error) {
	q := s.db.Model(&models.TaskLabel{}).Where("name LIKE ?", "%"+queryStr+"%")
	if projectID != nil {
		q = q.Where("project_id IS NULL OR project_id = ?", *projectID)
	} else {
		q = q.Where("project_id IS NULL")
	}
	var labels []models.TaskLabel
	err := q.Order("name asc").Find(&labels).Error
	return labels, err
}
