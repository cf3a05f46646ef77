package models

import "time"

// LogEntry holds one line of container output
type LogEntry struct {
	// Timestamp Time the line was received, RFC 3339
	//
	// required: true
	// example: 2024-01-01T00:00:00Z
	Timestamp time.Time `json:"timestamp"`

	// Workload Id of the workload that produced the line
	//
	// required: true
	Workload string `json:"workload"`

	// Entry Line text with surrounding whitespace trimmed
	//
	// required: true
	Entry string `json:"entry"`
}

// CompletionResult holds the outcome of a workload that reached a terminal state
type CompletionResult struct {
	// ExitCode Exit code of the container. -1 when unknown
	//
	// required: true
	// example: 0
	ExitCode int32 `json:"exit_code"`

	// CPU Observed CPU usage, when available
	//
	// required: false
	CPU *string `json:"cpu"`

	// Memory Observed memory usage, when available
	//
	// required: false
	Memory *string `json:"memory"`

	// StartTime Container start time
	//
	// required: false
	StartTime *time.Time `json:"start_time"`

	// FinishTime Container finish time
	//
	// required: false
	FinishTime *time.Time `json:"finish_time"`

	// Log Captured container output in arrival order
	//
	// required: true
	Log []LogEntry `json:"log"`
}

// UnknownExitCode Exit code reported when the container state could not be read
const UnknownExitCode int32 = -1

// NewCompletionResult Constructor. Exit code defaults to UnknownExitCode
func NewCompletionResult() *CompletionResult {
	return &CompletionResult{ExitCode: UnknownExitCode, Log: []LogEntry{}}
}

// Duration Time between start and finish, zero when either is missing
func (r *CompletionResult) Duration() time.Duration {
	if r == nil || r.StartTime == nil || r.FinishTime == nil {
		return 0
	}
	return r.FinishTime.Sub(*r.StartTime)
}
