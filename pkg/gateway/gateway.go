//go:generate mockgen -source=./gateway.go -destination=./mock/gateway_mock.go -package=mock

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
)

var (
	// ErrStatusUnavailable The cluster has not published a status for the workload yet. Retry later
	ErrStatusUnavailable = errors.New("workload status unavailable")
	// ErrWorkloadNotFound The workload no longer exists in the cluster
	ErrWorkloadNotFound = errors.New("workload not found")
)

// Phase Observed execution phase of a workload
type Phase string

const (
	PhasePending   Phase = "Pending"
	PhaseRunning   Phase = "Running"
	PhaseSucceeded Phase = "Succeeded"
	PhaseFailed    Phase = "Failed"
)

// IsTerminal The workload will not change phase again
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// WorkloadHandle Reference to a submitted workload
type WorkloadHandle struct {
	ID        string
	Namespace string
	Created   time.Time
}

// ContainerTermination Terminated state of the workload container
type ContainerTermination struct {
	ExitCode   int32
	Reason     string
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// WorkloadStatus Observed status of a workload
type WorkloadStatus struct {
	Phase       Phase
	Message     string
	StartedAt   *time.Time
	Termination *ContainerTermination
}

// SubmissionError The cluster rejected or could not receive a workload
type SubmissionError struct {
	ID  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit workload %s: %v", e.ID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ClusterGateway Operations the dispatcher needs from the cluster
type ClusterGateway interface {
	// Submit Creates the workload. Errors are of type *SubmissionError
	Submit(ctx context.Context, job *batchv1.Job) (*WorkloadHandle, error)
	// Delete Removes the workload and its pods. Deleting an absent workload succeeds
	Delete(ctx context.Context, id string) error
	// GetStatus Reads the current status. Returns ErrStatusUnavailable when nothing is published yet
	GetStatus(ctx context.Context, id string) (*WorkloadStatus, error)
	// StreamLogs Opens a follow-mode log stream of the workload container
	StreamLogs(ctx context.Context, id string) (io.ReadCloser, error)
}

// StatusWatcher Optional gateway extension pushing a signal when the status of a workload may have changed
type StatusWatcher interface {
	// WatchStatus The channel is closed when ctx is done or the watch ends
	WatchStatus(ctx context.Context, id string) (<-chan struct{}, error)
}
