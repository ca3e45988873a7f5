package dispatch

import (
	"github.com/exo-addons/leadcapture/id"
	"github.com/exo-addons/leadcapture/internal/entity"
	"github.com/exo-addons/leadcapture/lead"
)

// Task is one lead waiting to be sent.
type Task struct {
	entity.Entity

	ID     id.ID        `json:"id"`
	UserID string       `json:"user_id"`
	Lead   *lead.Record `json:"lead"`
}

// NewTask stamps a new task for userID.
func NewTask(userID string, rec *lead.Record) *Task {
	return &Task{
		Entity: entity.New(),
		ID:     id.NewTaskID(),
		UserID: userID,
		Lead:   rec,
	}
}
