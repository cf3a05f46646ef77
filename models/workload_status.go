package models

import (
	"time"

	"github.com/zefiro/zefiro-job/models/common"
)

// WorkloadStatus holds the observable state of one workload
type WorkloadStatus struct {
	// ID Name of the workload
	//
	// required: true
	// example: job-1
	ID string `json:"id"`

	// State Lifecycle state
	//
	// required: true
	// enum: Queued,Running,Stopping,Stopped,Failed,Done
	State common.LifecycleState `json:"state"`

	// Created Time the workload was submitted
	//
	// required: false
	Created *time.Time `json:"created,omitempty"`

	// Ended Time the workload reached a terminal state
	//
	// required: false
	Ended *time.Time `json:"ended,omitempty"`

	// Message Error or status message
	//
	// required: false
	Message string `json:"message,omitempty"`

	// Result Completion result, set when the workload is Done or Failed
	//
	// required: false
	Result *CompletionResult `json:"result,omitempty"`
}

// RegisteredWorkload A workload the dispatcher still holds in the cluster
type RegisteredWorkload struct {
	// ID Name of the workload
	//
	// required: true
	ID string `json:"id"`

	// Created Time the workload was registered
	//
	// required: true
	Created time.Time `json:"created"`
}
