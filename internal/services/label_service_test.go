package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/testutil"
)

func newLabelTestService(t *testing.T) (*LabelService, *gorm.DB) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return NewLabelService(db), db
}

func TestGetLabelsScopes(t *testing.T) {
	svc, db := newLabelTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	global, err := svc.GetLabels(nil)
	require.NoError(t, err)
	globalCount := len(global)
	require.NotZero(t, globalCount)

	scoped, err := svc.StoreLabel(LabelInput{Name: "Urgent", Variant: "red", ProjectID: &project.ID})
	require.NoError(t, err)

	// the project scope unions the global catalog with its own labels
	inProject, err := svc.GetLabels(&project.ID)
	require.NoError(t, err)
	require.Len(t, inProject, globalCount+1)

	// the global scope never picks up project labels
	global, err = svc.GetLabels(nil)
	require.NoError(t, err)
	require.Len(t, global, globalCount)

	otherProjectID := project.ID + 100
	elsewhere, err := svc.GetLabels(&otherProjectID)
	require.NoError(t, err)
	for _, l := range elsewhere {
		require.NotEqual(t, scoped.ID, l.ID)
	}
}

func TestDeleteLabelDetachesFromTasks(t *testing.T) {
	svc, db := newLabelTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	task := testutil.CreateTask(t, db, project, owner, "First")

	label, err := svc.StoreLabel(LabelInput{Name: "Urgent", Variant: "red", ProjectID: &project.ID})
	require.NoError(t, err)
	require.NoError(t, db.Model(task).Association("Labels").Append(label))

	require.NoError(t, svc.DeleteLabel(label))

	var pivotCount int64
	db.Table("task_label_pivot").Where("task_label_id = ?", label.ID).Count(&pivotCount)
	require.Zero(t, pivotCount)

	_, err = svc.GetLabel(label.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSearchLabels(t *testing.T) {
	svc, db := newLabelTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	_, err := svc.StoreLabel(LabelInput{Name: "Backend", Variant: "blue", ProjectID: &project.ID})
	require.NoError(t, err)

	found, err := svc.SearchLabels("Back", &project.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Backend", found[0].Name)

	// project labels stay invisible to the global scope
	found, err = svc.SearchLabels("Back", nil)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestUpdateLabel(t *testing.T) {
	svc, _ := newLabelTestService(t)

	label, err := svc.StoreLabel(LabelInput{Name: "Urgent", Variant: "red"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLabel(label, LabelInput{Name: "Critical", Variant: "orange"}))

	stored, err := svc.GetLabel(label.ID)
	require.NoError(t, err)
	require.Equal(t, "Critical", stored.Name)
	require.Equal(t, "orange", stored.Variant)
}
