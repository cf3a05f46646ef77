package watcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/models/common"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	"github.com/zefiro/zefiro-job/pkg/metrics"
	"k8s.io/apimachinery/pkg/util/wait"
)

var (
	// ErrWatchTimeout The workload did not reach a terminal phase within the watch timeout
	ErrWatchTimeout = errors.New("workload watch timed out")
	// ErrWorkloadStopped The workload was cancelled before it finished
	ErrWorkloadStopped = errors.New("workload stopped")
)

const retentionTimeout = 30 * time.Second

// Registry Membership of in-flight workloads
type Registry interface {
	Remove(ctx context.Context, id string) error
}

// LogCollector Captured log of the workload
type LogCollector interface {
	Entries() []models.LogEntry
	Done() <-chan struct{}
}

// Options LifecycleWatcher settings
type Options struct {
	PollInterval       time.Duration
	MaxPollInterval    time.Duration
	Timeout            time.Duration
	LogDrainTimeout    time.Duration
	DeleteOnCompletion bool
}

// LifecycleWatcher Drives one submitted workload to a terminal state and assembles its CompletionResult
type LifecycleWatcher struct {
	id        string
	gateway   gateway.ClusterGateway
	registry  Registry
	logs      LogCollector
	opts      Options
	mu        sync.Mutex
	state     common.LifecycleState
	finishing bool
	created   time.Time
	ended     *time.Time
	message   string
	result    *models.CompletionResult
	once      sync.Once
	finished  chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	logger    zerolog.Logger
}

// NewLifecycleWatcher Constructor. The watcher starts in state Queued. logs may be nil
func NewLifecycleWatcher(handle gateway.WorkloadHandle, gw gateway.ClusterGateway, registry Registry, logs LogCollector, opts Options) *LifecycleWatcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxPollInterval < opts.PollInterval {
		opts.MaxPollInterval = opts.PollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 24 * time.Hour
	}
	if opts.LogDrainTimeout <= 0 {
		opts.LogDrainTimeout = 5 * time.Second
	}
	created := handle.Created
	if created.IsZero() {
		created = time.Now()
	}
	return &LifecycleWatcher{
		id:       handle.ID,
		gateway:  gw,
		registry: registry,
		logs:     logs,
		opts:     opts,
		state:    common.Queued,
		created:  created,
		finished: make(chan struct{}),
		stop:     make(chan struct{}),
		logger:   log.Logger.With().Str("pkg", "lifecycle-watcher").Str("workload", handle.ID).Logger(),
	}
}

// ID Workload id
func (w *LifecycleWatcher) ID() string {
	return w.id
}

// State Current lifecycle state
func (w *LifecycleWatcher) State() common.LifecycleState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Result The CompletionResult, nil until the workload is Done or Failed
func (w *LifecycleWatcher) Result() *models.CompletionResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Status Snapshot of the workload state
func (w *LifecycleWatcher) Status() models.WorkloadStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	created := w.created
	return models.WorkloadStatus{
		ID:      w.id,
		State:   w.state,
		Created: &created,
		Ended:   w.ended,
		Message: w.message,
		Result:  w.result,
	}
}

// Watch Polls the workload until it is terminal, the watch times out or it is cancelled.
// Returns ErrWatchTimeout or ErrWorkloadStopped in the latter cases
func (w *LifecycleWatcher) Watch(ctx context.Context) (*models.CompletionResult, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, w.opts.Timeout, ErrWatchTimeout)
	defer cancel()

	changed := w.watchStatus(ctx)
	backoff := w.newBackoff()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return nil, ErrWorkloadStopped
		case <-ctx.Done():
			err := context.Cause(ctx)
			if errors.Is(err, ErrWatchTimeout) {
				w.logger.Warn().Dur("timeout", w.opts.Timeout).Msg("workload did not finish in time")
			}
			return nil, err
		case _, ok := <-changed:
			if !ok {
				changed = nil
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(0)
		case <-timer.C:
			status, err := w.gateway.GetStatus(ctx, w.id)
			switch {
			case errors.Is(err, gateway.ErrWorkloadNotFound):
				w.logger.Warn().Msg("workload disappeared from the cluster")
				return w.finish(ctx, common.Failed, &gateway.WorkloadStatus{Phase: gateway.PhaseFailed, Message: err.Error()})
			case err != nil:
				delay := backoff.Step()
				if !errors.Is(err, gateway.ErrStatusUnavailable) {
					w.logger.Warn().Err(err).Dur("retry", delay).Msg("failed to get workload status")
				}
				timer.Reset(delay)
				continue
			}
			backoff = w.newBackoff()
			if status.Phase.IsTerminal() {
				state := common.Failed
				if status.Phase == gateway.PhaseSucceeded {
					state = common.Done
				}
				return w.finish(ctx, state, status)
			}
			if status.Phase == gateway.PhaseRunning {
				w.transition(common.Running, status.Message)
			}
			timer.Reset(w.opts.PollInterval)
		}
	}
}

// Cancel Stops a Queued or Running workload by deleting it. No-op once the workload is terminal.
// A workload that is already finishing is waited for and keeps its result.
// When deletion fails the state stays Stopping and the error is returned
func (w *LifecycleWatcher) Cancel(ctx context.Context) error {
	w.mu.Lock()
	if w.state.IsTerminal() {
		w.mu.Unlock()
		return nil
	}
	if w.finishing {
		w.mu.Unlock()
		select {
		case <-w.finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	w.state = common.Stopping
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.stop) })

	w.logger.Info().Msg("stopping workload")
	if err := w.gateway.Delete(ctx, w.id); err != nil {
		w.logger.Error().Err(err).Msg("failed to delete stopped workload")
		return fmt.Errorf("failed to stop workload %s: %w", w.id, err)
	}

	w.mu.Lock()
	w.state = common.Stopped
	w.ended = now()
	w.message = "stopped"
	w.mu.Unlock()
	metrics.WorkloadsFinished.WithLabelValues(common.Stopped.String()).Inc()
	w.unregister(ctx)
	return nil
}

// Fail Records a workload that could not be stopped as Failed. It stays registered so the cleanup sweep retries the delete
func (w *LifecycleWatcher) Fail(err error) {
	w.mu.Lock()
	if w.state.IsTerminal() || w.finishing {
		w.mu.Unlock()
		return
	}
	w.state = common.Failed
	w.ended = now()
	w.message = err.Error()
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.stop) })
	w.logger.Error().Err(err).Msg("workload marked failed")
	metrics.WorkloadsFinished.WithLabelValues(common.Failed.String()).Inc()
}

func (w *LifecycleWatcher) watchStatus(ctx context.Context) <-chan struct{} {
	statusWatcher, ok := w.gateway.(gateway.StatusWatcher)
	if !ok {
		return nil
	}
	changed, err := statusWatcher.WatchStatus(ctx, w.id)
	if err != nil {
		w.logger.Debug().Err(err).Msg("status watch unavailable, polling only")
		return nil
	}
	return changed
}

func (w *LifecycleWatcher) newBackoff() wait.Backoff {
	return wait.Backoff{
		Duration: w.opts.PollInterval,
		Factor:   2,
		Jitter:   0.1,
		Steps:    math.MaxInt32,
		Cap:      w.opts.MaxPollInterval,
	}
}

func (w *LifecycleWatcher) transition(state common.LifecycleState, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.IsTerminal() || w.state == common.Stopping || w.finishing {
		return
	}
	if w.state != state {
		w.logger.Debug().Str("from", w.state.String()).Str("to", state.String()).Msg("workload state changed")
	}
	w.state = state
	w.message = message
}

// finish assembles the result once, applies the retention policy and unregisters the workload
func (w *LifecycleWatcher) finish(ctx context.Context, state common.LifecycleState, status *gateway.WorkloadStatus) (*models.CompletionResult, error) {
	w.mu.Lock()
	if w.state == common.Stopping || w.state == common.Stopped {
		w.mu.Unlock()
		return nil, ErrWorkloadStopped
	}
	w.finishing = true
	w.mu.Unlock()

	w.once.Do(func() {
		result := buildResult(status)
		if w.logs != nil {
			select {
			case <-w.logs.Done():
			case <-time.After(w.opts.LogDrainTimeout):
				w.logger.Warn().Msg("log stream still open, result has the log captured so far")
			}
			result.Log = w.logs.Entries()
		}

		w.mu.Lock()
		w.result = result
		w.state = state
		w.ended = now()
		w.message = status.Message
		w.mu.Unlock()

		w.logger.Info().Str("state", state.String()).Int32("exitCode", result.ExitCode).Msg("workload finished")
		metrics.WorkloadsFinished.WithLabelValues(state.String()).Inc()
		if d := result.Duration(); d > 0 {
			metrics.WorkloadDuration.Observe(d.Seconds())
		}
		w.applyRetention(ctx)
		close(w.finished)
	})
	return w.Result(), nil
}

func (w *LifecycleWatcher) applyRetention(ctx context.Context) {
	if w.opts.DeleteOnCompletion {
		deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retentionTimeout)
		if err := w.gateway.Delete(deleteCtx, w.id); err != nil {
			w.logger.Error().Err(err).Msg("failed to delete finished workload")
		}
		cancel()
	} else {
		w.logger.Debug().Msg("keeping finished workload")
	}
	w.unregister(ctx)
}

func (w *LifecycleWatcher) unregister(ctx context.Context) {
	removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retentionTimeout)
	defer cancel()
	if err := w.registry.Remove(removeCtx, w.id); err != nil {
		w.logger.Error().Err(err).Msg("failed to unregister workload")
	}
}

func buildResult(status *gateway.WorkloadStatus) *models.CompletionResult {
	result := models.NewCompletionResult()
	if status == nil {
		return result
	}
	result.StartTime = status.StartedAt
	if termination := status.Termination; termination != nil {
		result.ExitCode = termination.ExitCode
		if termination.StartedAt != nil {
			result.StartTime = termination.StartedAt
		}
		result.FinishTime = termination.FinishedAt
	}
	return result
}

func now() *time.Time {
	t := time.Now()
	return &t
}
