package services

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/query"
	"github.com/stekatag/project-management-app/internal/storage"
	"github.com/stekatag/project-management-app/internal/testutil"
)

func newTaskTestService(t *testing.T) (*TaskService, *gorm.DB, *storage.Disk) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	disk := testutil.NewTestDisk(t)
	return NewTaskService(db, disk), db, disk
}

func TestStoreTaskUsesDefaultStatus(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First"})
	require.NoError(t, err)

	pending := testutil.DefaultStatus(t, db, models.StatusSlugPending)
	require.Equal(t, pending.ID, task.StatusID)
	require.Equal(t, models.PriorityMedium, task.Priority)

	var history []models.TaskStatusChange
	require.NoError(t, db.Where("task_id = ?", task.ID).Find(&history).Error)
	require.Len(t, history, 1)
	require.Equal(t, pending.ID, history[0].TaskStatusID)
}

func TestStoreTaskPrefersProjectScopedDefault(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	custom := models.TaskStatus{Name: "Backlog", Slug: models.StatusSlugPending, ProjectID: &project.ID}
	require.NoError(t, db.Create(&custom).Error)

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First"})
	require.NoError(t, err)
	require.Equal(t, custom.ID, task.StatusID)
}

func TestStoreTaskUnknownStatus(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	missing := uint(9999)
	_, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First", StatusID: &missing})
	require.ErrorIs(t, err, ErrStatusNotFound)
}

func TestStoreTaskNormalizesDueDateToUTC(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, ny)

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First", DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	require.Equal(t, time.UTC, task.DueDate.Location())
	require.True(t, task.DueDate.Equal(due))
}

func TestStoreTaskSanitizesDescription(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{
		Name:        "First",
		Description: `<p>hello</p><script>alert("x")</script>`,
	})
	require.NoError(t, err)
	require.Contains(t, task.Description, "<p>hello</p>")
	require.NotContains(t, task.Description, "<script>")
}

func TestUpdateTaskStatusChangeSyncsKanbanColumn(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	pending := testutil.DefaultStatus(t, db, models.StatusSlugPending)
	inProgress := testutil.DefaultStatus(t, db, models.StatusSlugInProgress)

	// pre-existing board columns occupy the first two positions
	require.NoError(t, db.Create(&models.KanbanColumn{
		Name: "Pending", Order: 1, ProjectID: project.ID, TaskStatusID: pending.ID,
	}).Error)
	other := models.TaskStatus{Name: "Review", Slug: "review", ProjectID: &project.ID}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.KanbanColumn{
		Name: "Review", Order: 2, ProjectID: project.ID, TaskStatusID: other.ID,
	}).Error)

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First", StatusID: &inProgress.ID})
	require.NoError(t, err)

	var columns []models.KanbanColumn
	require.NoError(t, db.Where("project_id = ? AND task_status_id = ?", project.ID, inProgress.ID).Find(&columns).Error)
	require.Len(t, columns, 1)
	require.Equal(t, 3, columns[0].Order)
	require.Equal(t, inProgress.Name, columns[0].Name)
	require.Equal(t, inProgress.Color, columns[0].Color)
	require.NotNil(t, task.KanbanColumnID)
	require.Equal(t, columns[0].ID, *task.KanbanColumnID)

	// moving back and forth reuses the existing columns
	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First", StatusID: &pending.ID})
	require.NoError(t, err)
	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First", StatusID: &inProgress.ID})
	require.NoError(t, err)

	var count int64
	db.Model(&models.KanbanColumn{}).Where("project_id = ?", project.ID).Count(&count)
	require.EqualValues(t, 3, count)

	var history []models.TaskStatusChange
	require.NoError(t, db.Where("task_id = ?", task.ID).Order("id asc").Find(&history).Error)
	require.Len(t, history, 4) // initial + three transitions
}

func TestTaskLabelSync(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	var seeded []models.TaskLabel
	require.NoError(t, db.Where("project_id IS NULL").Order("id asc").Limit(3).Find(&seeded).Error)
	require.GreaterOrEqual(t, len(seeded), 3)
	a, b, c := seeded[0], seeded[1], seeded[2]

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First", LabelIDs: []uint{a.ID, b.ID}})
	require.NoError(t, err)

	labelIDs := func(taskID uint) []uint {
		full, err := svc.GetTask(taskID)
		require.NoError(t, err)
		ids := make([]uint, 0, len(full.Labels))
		for _, l := range full.Labels {
			ids = append(ids, l.ID)
		}
		return ids
	}

	require.ElementsMatch(t, []uint{a.ID, b.ID}, labelIDs(task.ID))

	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First", LabelIDs: []uint{b.ID, c.ID}})
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{b.ID, c.ID}, labelIDs(task.ID))

	// omitting the label list clears the set
	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First"})
	require.NoError(t, err)
	require.Empty(t, labelIDs(task.ID))
}

func TestUpdateTaskClearsDueDate(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	due := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First", DueDate: &due})
	require.NoError(t, err)

	_, err = svc.UpdateTask(task, owner.ID, TaskInput{Name: "First"})
	require.NoError(t, err)

	var stored models.Task
	require.NoError(t, db.First(&stored, task.ID).Error)
	require.Nil(t, stored.DueDate)
}

func TestDeleteTaskRemovesImageDirectory(t *testing.T) {
	svc, db, disk := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	task, err := svc.StoreTask(owner.ID, project.ID, TaskInput{
		Name:  "First",
		Image: &ImageUpload{Reader: strings.NewReader("img-bytes"), Filename: "img.jpg"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.ImagePath)
	require.True(t, strings.HasPrefix(task.ImagePath, "task/"))
	require.True(t, disk.Exists(task.ImagePath))

	uploadDir := filepath.Join(disk.Root, filepath.FromSlash(path.Dir(task.ImagePath)))
	require.NoError(t, svc.DeleteTask(task))

	_, statErr := os.Stat(uploadDir)
	require.True(t, os.IsNotExist(statErr))

	var count int64
	db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	require.Zero(t, count)
}

func TestGetActiveTasks(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	completed := testutil.DefaultStatus(t, db, models.StatusSlugCompleted)

	_, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "Open", AssignedUserID: &owner.ID})
	require.NoError(t, err)
	_, err = svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "Done", AssignedUserID: &owner.ID, StatusID: &completed.ID})
	require.NoError(t, err)
	_, err = svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "Unassigned"})
	require.NoError(t, err)

	tasks, total, err := svc.GetActiveTasks(owner.ID, query.TaskFilter{}, query.Sort{}, query.Pagination{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	require.Equal(t, "Open", tasks[0].Name)
}

func TestGetTasksVisibility(t *testing.T) {
	svc, db, _ := newTaskTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, db, "Member", "member@example.com")
	stranger := testutil.CreateUser(t, db, "Stranger", "stranger@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	testutil.AddMember(t, db, project, member, models.MembershipAccepted, models.RoleProjectMember)

	_, err := svc.StoreTask(owner.ID, project.ID, TaskInput{Name: "First"})
	require.NoError(t, err)

	_, total, err := svc.GetTasks(member.ID, query.TaskFilter{}, query.Sort{}, query.Pagination{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = svc.GetTasks(stranger.ID, query.TaskFilter{}, query.Sort{}, query.Pagination{})
	require.NoError(t, err)
	require.Zero(t, total)
}
