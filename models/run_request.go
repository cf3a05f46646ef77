package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zefiro/zefiro-job/models/common"
	"k8s.io/apimachinery/pkg/util/validation"
)

// RunRequest holds the description of one workflow step to run as a workload
type RunRequest struct {
	// ID Unique name of the workload
	//
	// required: true
	// example: job-1
	ID string `json:"id"`

	// Image Container image reference
	//
	// required: true
	// example: tool:latest
	Image string `json:"image"`

	// Args Ordered container arguments
	//
	// required: false
	// example: ["--x=1"]
	Args []string `json:"args"`

	// MinResources Requested resources
	//
	// required: true
	MinResources common.ResourceSpec `json:"min_resources"`

	// MaxResources Resource limits. Unbounded when omitted or null
	//
	// required: false
	MaxResources *common.ResourceSpec `json:"max_resources"`

	// TimeLimit Maximum run time in seconds. 0 means no deadline
	//
	// required: true
	// example: 60
	TimeLimit uint64 `json:"time_limit"`

	// Priority Scheduling priority
	//
	// required: true
	// example: low
	Priority common.PriorityLevel `json:"priority"`
}

// ValidationError A RunRequest field holds an invalid value
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseRunRequest Decodes and validates a run request message
func ParseRunRequest(data []byte) (*RunRequest, error) {
	var request RunRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, &ValidationError{Field: "payload", Err: err}
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return &request, nil
}

// Validate Checks that the request can be turned into a workload spec
func (r *RunRequest) Validate() error {
	var errs []error
	if len(r.ID) == 0 {
		errs = append(errs, &ValidationError{Field: "id", Err: errors.New("must not be empty")})
	} else if msgs := validation.IsDNS1123Label(r.ID); len(msgs) > 0 {
		errs = append(errs, &ValidationError{Field: "id", Err: errors.New(strings.Join(msgs, "; "))})
	}
	if len(strings.TrimSpace(r.Image)) == 0 {
		errs = append(errs, &ValidationError{Field: "image", Err: errors.New("must not be empty")})
	}
	if !r.Priority.IsValid() {
		errs = append(errs, &ValidationError{Field: "priority", Err: fmt.Errorf("unknown priority level %d", int(r.Priority))})
	}
	if err := r.MinResources.Validate(); err != nil {
		errs = append(errs, &ValidationError{Field: "min_resources", Err: err})
	}
	if r.MaxResources != nil {
		if err := r.MaxResources.Validate(); err != nil {
			errs = append(errs, &ValidationError{Field: "max_resources", Err: err})
		} else if below := r.MaxResources.BelowRequest(r.MinResources); len(below) > 0 {
			errs = append(errs, &ValidationError{Field: "max_resources", Err: fmt.Errorf("below min_resources for %s", strings.Join(below, ", "))})
		}
	}
	return errors.Join(errs...)
}
