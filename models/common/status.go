package common

// StatusReason Machine readable reason of a failed API request
type StatusReason string

const (
	// StatusFailure Status of a failed request
	StatusFailure = "Failure"

	// StatusReasonNotFound The requested resource does not exist
	StatusReasonNotFound StatusReason = "NotFound"
	// StatusReasonInvalid The request data is invalid
	StatusReasonInvalid StatusReason = "Invalid"
	// StatusReasonConflict The request conflicts with the current state
	StatusReasonConflict StatusReason = "Conflict"
	// StatusReasonUnknown The server failed for an unknown reason
	StatusReasonUnknown StatusReason = "Unknown"
)

// Status is a return value for calls that don't return other objects or when a request returns an error
type Status struct {
	// Status of the operation.
	// One of: "Success" or "Failure".
	// example: Failure
	Status string `json:"status,omitempty"`

	// A human-readable description of the status of this operation.
	// required: false
	// example: workload job-1 not found
	Message string `json:"message,omitempty"`

	// A machine-readable description of why this operation is in the
	// "Failure" status.
	// required: false
	// example: NotFound
	Reason StatusReason `json:"reason,omitempty"`

	// Suggested HTTP return code for this status, 0 if not set.
	// required: false
	// example: 404
	Code int `json:"code,omitempty"`
}
