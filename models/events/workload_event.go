package events

import (
	"time"

	"github.com/zefiro/zefiro-job/models"
)

// WorkloadEvent holds general information about a workload event on change of state
type WorkloadEvent struct {
	// WorkloadStatus Workload status at the time of the event
	models.WorkloadStatus

	// Event Event type
	//
	// required: true
	// example: "Completed"
	Event Event `json:"event"`

	// Updated Time the event was raised
	//
	// required: true
	Updated time.Time `json:"updated"`
}

type Event string

const (
	Submitted Event = "Submitted"
	Completed Event = "Completed"
	Failed    Event = "Failed"
	Stopped   Event = "Stopped"
	Rejected  Event = "Rejected"
)

// NewWorkloadEvent Constructor
func NewWorkloadEvent(event Event, status models.WorkloadStatus) WorkloadEvent {
	return WorkloadEvent{WorkloadStatus: status, Event: event, Updated: time.Now().UTC()}
}
