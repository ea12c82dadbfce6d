package realtime

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/models"
)

// Event types broadcast after mutations.
const (
	EventTaskCreated    = "task_created"
	EventTaskUpdated    = "task_updated"
	EventTaskDeleted    = "task_deleted"
	EventProjectUpdated = "project_updated"
	EventProjectDeleted = "project_deleted"
	EventMemberInvited  = "member_invited"
	EventMemberLeft     = "member_left"
	EventMemberKicked   = "member_kicked"
)

// Event is the JSON payload pushed to connected clients.
type Event struct {
	Type      string `json:"type"`
	ProjectID uint   `json:"project_id"`
	TaskID    uint   `json:"task_id,omitempty"`
	ActorID   uint   `json:"actor_id"`
}

// NotifyProject broadcasts the event to the project creator and every
// accepted member. Delivery is best-effort.
func (h *Hub) NotifyProject(db *gorm.DB, projectID uint, evt Event) {
	evt.ProjectID = projectID

	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	var ids []uint
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND status = ?", projectID, models.MembershipAccepted).
		Pluck("user_id", &ids)

	var creatorIDs []uint
	db.Model(&models.Project{}).Where("id = ?", projectID).Pluck("created_by", &creatorIDs)
	if len(creatorIDs) > 0 && creatorIDs[0] != 0 {
		creatorID := creatorIDs[0]
		seen := false
		for _, id := range ids {
			if id == creatorID {
				seen = true
				break
			}
		}
		if !seen {
			ids = append(ids, creatorID)
		}
	}

	h.BroadcastToUsers(ids, payload)
}
