package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
)

// CommentService implements threaded comments on tasks.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService returns a CommentService over db.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// GetComments lists a task's comments oldest first with authors
// preloaded. Soft-deleted comments are excluded.
func (s *CommentService) GetComments(taskID uint) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	err := s.db.Where("task_id = ?", taskID).
		Preload("User").
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// GetComment fetches one comment by id.
func (s *CommentService) GetComment(id uint) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := s.db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// AddComment creates a comment, optionally as a reply. The parent must
// belong to the same task.
func (s *CommentService) AddComment(task *models.Task, userID uint, content string, parentID *uint) (*models.TaskComment, Result) {
	if parentID != nil {
		var parent models.TaskComment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			return nil, Fail("Parent comment not found.")
		}
		if parent.TaskID != task.ID {
			return nil, Fail("Parent comment belongs to a different task.")
		}
	}

	comment := models.TaskComment{
		TaskID:   task.ID,
		UserID:   userID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, Fail("Failed to add comment.")
	}
	return &comment, Ok("Comment added.")
}

// UpdateComment edits a comment's content. Only the author may edit;
// the comment is marked as edited.
func (s *CommentService) UpdateComment(comment *models.TaskComment, userID uint, content string) Result {
	if comment.UserID != userID {
		return Fail("Only the author can edit this comment.")
	}
	comment.Content = content
	comment.IsEdited = true
	if err := s.db.Save(comment).Error; err != nil {
		return Fail("Failed to update comment.")
	}
	return Ok("Comment updated.")
}

// DeleteComment soft-deletes a comment so replies keep a valid parent.
func (s *CommentService) DeleteComment(comment *models.TaskComment) error {
	err := s.db.Delete(comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
