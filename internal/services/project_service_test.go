package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
	"github.com/stekatag/project-management-app/internal/query"
	"github.com/stekatag/project-management-app/internal/testutil"
)

func newProjectTestService(t *testing.T) (*ProjectService, *gorm.DB) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return NewProjectService(db, testutil.NewTestDisk(t)), db
}

func TestStoreProjectCreatesCreatorMembership(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	project, err := svc.StoreProject(owner.ID, ProjectInput{Name: "Alpha"})
	require.NoError(t, err)
	require.NotZero(t, project.ID)
	require.Equal(t, models.ProjectPending, project.Status)

	var members []models.ProjectMember
	require.NoError(t, db.Where("project_id = ?", project.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.Equal(t, owner.ID, members[0].UserID)
	require.Equal(t, models.MembershipAccepted, members[0].Status)
	require.Equal(t, models.RoleProjectManager, members[0].Role)
}

func TestStoreProjectGrantsManagerRole(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	_, err := svc.StoreProject(owner.ID, ProjectInput{Name: "Alpha"})
	require.NoError(t, err)
	_, err = svc.StoreProject(owner.ID, ProjectInput{Name: "Beta"})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Preload("Roles").First(&user, owner.ID).Error)
	require.True(t, user.HasRole(models.RoleProjectManager))

	roleCount := 0
	for _, r := range user.Roles {
		if r.Name == models.RoleProjectManager {
			roleCount++
		}
	}
	require.Equal(t, 1, roleCount)
}

func TestHandleInvitationUnknownEmail(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	result := svc.HandleInvitation(project, "nobody@example.com")
	require.False(t, result.Success)
	require.Equal(t, "No user found with this email address.", result.Message)
}

func TestHandleInvitationDuplicatePending(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	invitee := testutil.CreateUser(t, db, "Invitee", "invitee@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	first := svc.HandleInvitation(project, invitee.Email)
	require.True(t, first.Success)

	second := svc.HandleInvitation(project, invitee.Email)
	require.False(t, second.Success)
	require.Equal(t, "This user already has a pending invitation.", second.Message)

	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ? AND status = ?", project.ID, invitee.ID, models.MembershipPending).
		Count(&count)
	require.EqualValues(t, 1, count)
}

func TestHandleInvitationCreator(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	result := svc.HandleInvitation(project, owner.Email)
	require.False(t, result.Success)
}

func TestHandleInvitationReusesRejectedRow(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	invitee := testutil.CreateUser(t, db, "Invitee", "invitee@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	testutil.AddMember(t, db, project, invitee, models.MembershipRejected, models.RoleProjectMember)

	result := svc.HandleInvitation(project, invitee.Email)
	require.True(t, result.Success)

	var rows []models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, invitee.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.MembershipPending, rows[0].Status)
}

func TestUpdateInvitationStatusAccept(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	invitee := testutil.CreateUser(t, db, "Invitee", "invitee@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	testutil.AddMember(t, db, project, invitee, models.MembershipPending, models.RoleProjectMember)

	result := svc.UpdateInvitationStatus(project, invitee.ID, models.MembershipAccepted)
	require.True(t, result.Success)

	// accepting makes the project visible to the invitee
	projects, total, err := svc.GetProjects(invitee.ID, query.ProjectFilter{}, query.Sort{}, query.Pagination{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, projects, 1)
	require.Equal(t, project.ID, projects[0].ID)
}

func TestUpdateInvitationStatusWithoutPending(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	stranger := testutil.CreateUser(t, db, "Stranger", "stranger@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	result := svc.UpdateInvitationStatus(project, stranger.ID, models.MembershipAccepted)
	require.False(t, result.Success)
	require.Equal(t, "No pending invitation found for this project.", result.Message)
}

func TestLeaveProjectCreator(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	result := svc.LeaveProject(project, owner.ID)
	require.False(t, result.Success)
	require.Equal(t, "The project creator cannot leave the project. Delete the project instead.", result.Message)

	var count int64
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestLeaveProjectMember(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, db, "Member", "member@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	testutil.AddMember(t, db, project, member, models.MembershipAccepted, models.RoleProjectMember)

	result := svc.LeaveProject(project, member.ID)
	require.True(t, result.Success)

	again := svc.LeaveProject(project, member.ID)
	require.False(t, again.Success)
	require.Equal(t, "You are not a member of this project.", again.Message)
}

func TestKickMembers(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	a := testutil.CreateUser(t, db, "A", "a@example.com")
	b := testutil.CreateUser(t, db, "B", "b@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	testutil.AddMember(t, db, project, a, models.MembershipAccepted, models.RoleProjectMember)
	testutil.AddMember(t, db, project, b, models.MembershipAccepted, models.RoleProjectManager)

	require.True(t, svc.HasAcceptedManagers(project, []uint{a.ID, b.ID}))
	require.False(t, svc.HasAcceptedManagers(project, []uint{a.ID}))

	result := svc.KickMembers(project, []uint{a.ID, b.ID})
	require.True(t, result.Success)

	var count int64
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count)
	require.EqualValues(t, 1, count) // only the creator remains
}

func TestDeleteProjectCascades(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")
	task := testutil.CreateTask(t, db, project, owner, "Task")

	require.NoError(t, db.Create(&models.TaskStatusChange{TaskID: task.ID, TaskStatusID: task.StatusID}).Error)
	require.NoError(t, db.Create(&models.TaskComment{TaskID: task.ID, UserID: owner.ID, Content: "hi"}).Error)

	require.NoError(t, svc.DeleteProject(project))

	var n int64
	db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&n)
	require.Zero(t, n)
	db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&n)
	require.Zero(t, n)
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&n)
	require.Zero(t, n)
	db.Model(&models.TaskStatusChange{}).Where("task_id = ?", task.ID).Count(&n)
	require.Zero(t, n)
	db.Unscoped().Model(&models.TaskComment{}).Where("task_id = ?", task.ID).Count(&n)
	require.Zero(t, n)
}

func TestGetProjectsVisibility(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	other := testutil.CreateUser(t, db, "Other", "other@example.com")
	testutil.CreateProject(t, db, owner, "Alpha")

	_, total, err := svc.GetProjects(other.ID, query.ProjectFilter{}, query.Sort{}, query.Pagination{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestUpdateProjectClearsDueDate(t *testing.T) {
	svc, db := newProjectTestService(t)
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")
	project := testutil.CreateProject(t, db, owner, "Alpha")

	due := project.CreatedAt.AddDate(0, 1, 0)
	require.NoError(t, svc.UpdateProject(project, owner.ID, ProjectInput{Name: "Alpha", DueDate: &due}))

	var stored models.Project
	require.NoError(t, db.First(&stored, project.ID).Error)
	require.NotNil(t, stored.DueDate)

	require.NoError(t, svc.UpdateProject(&stored, owner.ID, ProjectInput{Name: "Alpha"}))
	require.NoError(t, db.First(&stored, project.ID).Error)
	require.Nil(t, stored.DueDate)
}
