package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/testutil"
)

func newFilterDB(t *testing.T) (*gorm.DB, *models.Project) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	return db, project
}

func createTaskDue(t *testing.T, db *gorm.DB, project *models.Project, name string, due time.Time) {
	t.Helper()
	var owner models.User
	require.NoError(t, db.First(&owner, project.CreatedByID).Error)
	task := testutil.CreateTask(t, db, project, &owner, name)
	utc := due.UTC()
	require.NoError(t, db.Model(task).Update("due_date", &utc).Error)
}

func TestParseDate(t *testing.T) {
	loc := time.UTC

	got, ok := ParseDate("2026-03-10", loc)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), got)

	got, ok = ParseDate("2026-03-10T14:30:00Z", loc)
	require.True(t, ok)
	require.Equal(t, 14, got.Hour())

	_, ok = ParseDate("not-a-date", loc)
	require.False(t, ok)
}

func TestParseDateRangeBoundaries(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	r := ParseDateRange("2026-03-10", "2026-03-11", ny)
	require.NotNil(t, r)
	require.True(t, r.Start.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, ny)))
	require.Equal(t, time.UTC, r.Start.Location())
	require.Equal(t, 23, r.End.In(ny).Hour())
	require.Equal(t, 11, r.End.In(ny).Day())

	require.Nil(t, ParseDateRange("garbage", "2026-03-11", ny))
	require.Nil(t, ParseDateRange("2026-03-10", "", ny))
}

func TestTaskFilterDueRangeInclusion(t *testing.T) {
	db, project := newFilterDB(t)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	createTaskDue(t, db, project, "start-edge", time.Date(2026, 3, 10, 0, 0, 0, 0, ny))
	createTaskDue(t, db, project, "end-edge", time.Date(2026, 3, 11, 23, 59, 59, 0, ny))
	createTaskDue(t, db, project, "before", time.Date(2026, 3, 9, 23, 59, 0, 0, ny))
	createTaskDue(t, db, project, "after", time.Date(2026, 3, 12, 0, 0, 0, 0, ny))

	filter := TaskFilter{DueRange: ParseDateRange("2026-03-10", "2026-03-11", ny)}

	var names []string
	require.NoError(t, filter.Apply(db.Model(&models.Task{})).Pluck("name", &names).Error)
	require.ElementsMatch(t, []string{"start-edge", "end-edge"}, names)
}

func TestTaskFilterIdempotent(t *testing.T) {
	db, project := newFilterDB(t)
	var owner models.User
	require.NoError(t, db.First(&owner, project.CreatedByID).Error)
	testutil.CreateTask(t, db, project, &owner, "Fix login bug")
	testutil.CreateTask(t, db, project, &owner, "Write docs")

	filter := TaskFilter{Name: "bug", Priorities: []string{string(models.PriorityMedium)}}

	var once, twice int64
	require.NoError(t, filter.Apply(db.Model(&models.Task{})).Count(&once).Error)
	require.NoError(t, filter.Apply(filter.Apply(db.Model(&models.Task{}))).Count(&twice).Error)
	require.EqualValues(t, 1, once)
	require.Equal(t, once, twice)
}

func TestTaskFilterByLabel(t *testing.T) {
	db, project := newFilterDB(t)
	var owner models.User
	require.NoError(t, db.First(&owner, project.CreatedByID).Error)
	tagged := testutil.CreateTask(t, db, project, &owner, "Tagged")
	testutil.CreateTask(t, db, project, &owner, "Plain")

	var label models.TaskLabel
	require.NoError(t, db.Where("project_id IS NULL").First(&label).Error)
	require.NoError(t, db.Model(tagged).Association("Labels").Append(&label))

	filter := TaskFilter{LabelIDs: []uint{label.ID}}

	var names []string
	require.NoError(t, filter.Apply(db.Model(&models.Task{})).Pluck("name", &names).Error)
	require.Equal(t, []string{"Tagged"}, names)
}

func TestProjectFilterByStatus(t *testing.T) {
	db, project := newFilterDB(t)
	require.NoError(t, db.Model(project).Update("status", models.ProjectCompleted).Error)

	var owner models.User
	require.NoError(t, db.First(&owner, project.CreatedByID).Error)
	testutil.CreateProject(t, db, &owner, "Beta")

	filter := ProjectFilter{Statuses: []string{string(models.ProjectCompleted)}}

	var names []string
	require.NoError(t, filter.Apply(db.Model(&models.Project{})).Pluck("name", &names).Error)
	require.Equal(t, []string{"Alpha"}, names)
}
