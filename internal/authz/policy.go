// Package authz centralizes every authorization rule behind one policy
// port: each check takes an actor and a resource and returns an
// allow/deny decision with a reason. Handlers map a deny to 403 and
// perform no mutation.
package authz

import (
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Policy evaluates authorization checks against membership state.
// Checks never return errors: a lookup failure denies with a reason.
type Policy struct {
	db *gorm.DB
}

// NewPolicy returns a Policy reading membership state from db.
func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{db: db}
}

// acceptedMembership returns the accepted membership row for the pair,
// or nil when none exists.
func (p *Policy) acceptedMembership(projectID, userID uint) *models.ProjectMember {
	var m models.ProjectMember
	err := p.db.
		Where("project_id = ? AND user_id = ? AND status = ?", projectID, userID, models.MembershipAccepted).
		First(&m).Error
	if err != nil {
		return nil
	}
	return &m
}

func (p *Policy) isManager(project *models.Project, userID uint) bool {
	if project.CreatedByID == userID {
		return true
	}
	m := p.acceptedMembership(project.ID, userID)
	return m != nil && m.Role == models.RoleProjectManager
}

// CanViewProject allows the creator and any accepted member.
func (p *Policy) CanViewProject(project *models.Project, userID uint) Decision {
	if project.CreatedByID == userID {
		return allow()
	}
	if p.acceptedMembership(project.ID, userID) != nil {
		return allow()
	}
	return deny("you are not a member of this project")
}

// CanEditProject allows accepted project managers and the creator.
func (p *Policy) CanEditProject(project *models.Project, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	return deny("only project managers can edit this project")
}

// CanManage gates project update, deletion and membership management.
// Same rule as CanEditProject; kept as its own check because callers
// gate different actions on it.
func (p *Policy) CanManage(project *models.Project, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	return deny("only project managers can manage this project")
}

// CanInviteUsers allows accepted project managers only; ordinary
// members cannot invite.
func (p *Policy) CanInviteUsers(project *models.Project, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	return deny("only project managers can invite users")
}

// CanManageTask allows managers to act on any task and members only on
// tasks assigned to themselves.
func (p *Policy) CanManageTask(project *models.Project, task *models.Task, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	if m := p.acceptedMembership(project.ID, userID); m != nil {
		if task != nil && task.AssignedUserID != nil && *task.AssignedUserID == userID {
			return allow()
		}
		return deny("members can only manage tasks assigned to themselves")
	}
	return deny("you are not a member of this project")
}

// CanManageBoard allows accepted project managers and the creator.
func (p *Policy) CanManageBoard(project *models.Project, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	return deny("only project managers can manage the board")
}

// CanKickProjectMember allows any manager to remove ordinary members.
func (p *Policy) CanKickProjectMember(project *models.Project, userID uint) Decision {
	if p.isManager(project, userID) {
		return allow()
	}
	return deny("only project managers can remove members")
}

// CanKickProjectManager requires the elevated check: only the original
// creator may remove other managers.
func (p *Policy) CanKickProjectManager(project *models.Project, userID uint) Decision {
	if project.CreatedByID == userID {
		return allow()
	}
	return deny("only the project creator can remove project managers")
}

// IsProjectMember reports whether the user holds an accepted membership
// with the ordinary member role. Used to hide the invite tab and to
// restrict assignable-user lists to self.
func (p *Policy) IsProjectMember(project *models.Project, userID uint) bool {
	m := p.acceptedMembership(project.ID, userID)
	return m != nil && m.Role == models.RoleProjectMember
}
