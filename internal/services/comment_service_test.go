package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/testutil"
)

func newCommentTestService(t *testing.T) (*CommentService, *gorm.DB, *models.User, *models.Task) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	task := testutil.CreateTask(t, db, project, owner, "First")
	return NewCommentService(db), db, owner, task
}

func TestAddCommentAndReply(t *testing.T) {
	svc, _, owner, task := newCommentTestService(t)

	parent, result := svc.AddComment(task, owner.ID, "parent", nil)
	require.True(t, result.Success)

	reply, result := svc.AddComment(task, owner.ID, "reply", &parent.ID)
	require.True(t, result.Success)
	require.NotNil(t, reply.ParentID)
	require.Equal(t, parent.ID, *reply.ParentID)

	comments, err := svc.GetComments(task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "parent", comments[0].Content)
}

func TestAddCommentReplyAcrossTasks(t *testing.T) {
	svc, db, owner, task := newCommentTestService(t)

	var project models.Project
	require.NoError(t, db.First(&project, task.ProjectID).Error)
	otherTask := testutil.CreateTask(t, db, &project, owner, "Second")

	parent, result := svc.AddComment(task, owner.ID, "parent", nil)
	require.True(t, result.Success)

	_, result = svc.AddComment(otherTask, owner.ID, "reply", &parent.ID)
	require.False(t, result.Success)
	require.Equal(t, "Parent comment belongs to a different task.", result.Message)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	svc, db, owner, task := newCommentTestService(t)
	other := testutil.CreateUser(t, db, "Other", "other@example.com")

	comment, result := svc.AddComment(task, owner.ID, "original", nil)
	require.True(t, result.Success)

	result = svc.UpdateComment(comment, other.ID, "hijacked")
	require.False(t, result.Success)

	result = svc.UpdateComment(comment, owner.ID, "edited")
	require.True(t, result.Success)

	stored, err := svc.GetComment(comment.ID)
	require.NoError(t, err)
	require.Equal(t, "edited", stored.Content)
	require.True(t, stored.IsEdited)
}

func TestDeleteCommentIsSoft(t *testing.T) {
	svc, db, owner, task := newCommentTestService(t)

	comment, result := svc.AddComment(task, owner.ID, "bye", nil)
	require.True(t, result.Success)

	require.NoError(t, svc.DeleteComment(comment))

	comments, err := svc.GetComments(task.ID)
	require.NoError(t, err)
	require.Empty(t, comments)

	// the row survives for threaded replies
	var count int64
	db.Unscoped().Model(&models.TaskComment{}).Where("id = ?", comment.ID).Count(&count)
	require.EqualValues(t, 1, count)
}
