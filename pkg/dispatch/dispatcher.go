package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/internal/actions"
	"github.com/zefiro/zefiro-job/internal/history"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/models/common"
	"github.com/zefiro/zefiro-job/models/events"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	"github.com/zefiro/zefiro-job/pkg/logs"
	"github.com/zefiro/zefiro-job/pkg/metrics"
	"github.com/zefiro/zefiro-job/pkg/notifications"
	"github.com/zefiro/zefiro-job/pkg/registry"
	"github.com/zefiro/zefiro-job/pkg/transport"
	"github.com/zefiro/zefiro-job/pkg/watcher"
	"k8s.io/apimachinery/pkg/util/wait"
)

var (
	// ErrDuplicateWorkload A workload with the same id is queued or in flight
	ErrDuplicateWorkload = errors.New("workload already active")
	// ErrShuttingDown The dispatcher no longer accepts requests
	ErrShuttingDown = errors.New("dispatcher is shutting down")
)

const (
	notifyTimeout = 15 * time.Second
	stopAttempts  = 3
)

// Registry Membership of in-flight workloads
type Registry interface {
	Add(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	Contains(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]registry.WorkloadRecord, error)
	Len(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) error
}

// Options Dispatcher settings
type Options struct {
	Workload      actions.WorkloadConfig
	SubmitWorkers int
	QueueSize     int
	HistoryLimit  int
	Watch         watcher.Options
	Logs          logs.Options
	// WatchTimeout Watch bound for a workload with the given time limit in seconds
	WatchTimeout func(timeLimit uint64) time.Duration
}

// NewOptions Dispatcher settings from the service configuration
func NewOptions(cfg *models.Config) Options {
	return Options{
		Workload:      actions.NewWorkloadConfig(cfg),
		SubmitWorkers: cfg.SubmitWorkers,
		QueueSize:     cfg.QueueSize,
		HistoryLimit:  cfg.HistoryLimit,
		Watch: watcher.Options{
			PollInterval:       cfg.PollInterval,
			MaxPollInterval:    cfg.MaxPollInterval,
			DeleteOnCompletion: cfg.DeleteWorkloads(),
		},
		Logs: logs.Options{
			MaxEntries:      cfg.LogBufferLines,
			InitialInterval: cfg.PollInterval,
			MaxInterval:     cfg.MaxPollInterval,
		},
		WatchTimeout: cfg.WatchTimeoutFor,
	}
}

// Dispatcher Turns run requests into workloads and follows them to completion
type Dispatcher struct {
	gateway    gateway.ClusterGateway
	registry   Registry
	notifier   notifications.Notifier
	opts       Options
	queue      chan *workload
	stopping   chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	workloads  map[string]*workload
	history    history.History
	workers    sync.WaitGroup
	monitors   sync.WaitGroup
	notifying  sync.WaitGroup
	baseCtx    context.Context
	cancelBase context.CancelFunc
	logger     zerolog.Logger
}

type workload struct {
	request   models.RunRequest
	received  time.Time
	cancelled bool
	watcher   *watcher.LifecycleWatcher
}

// New Constructor. Starts the submit workers
func New(gw gateway.ClusterGateway, reg Registry, notifier notifications.Notifier, opts Options) *Dispatcher {
	opts.SubmitWorkers = max(opts.SubmitWorkers, 1)
	opts.QueueSize = max(opts.QueueSize, 1)
	if opts.WatchTimeout == nil {
		opts.WatchTimeout = func(uint64) time.Duration { return 24 * time.Hour }
	}
	if notifier == nil {
		notifier = notifications.NewMulti()
	}
	baseCtx, cancelBase := context.WithCancel(context.Background())
	d := &Dispatcher{
		gateway:    gw,
		registry:   reg,
		notifier:   notifier,
		opts:       opts,
		queue:      make(chan *workload, opts.QueueSize),
		stopping:   make(chan struct{}),
		workloads:  make(map[string]*workload),
		history:    history.NewHistory(opts.HistoryLimit),
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
		logger:     log.Logger.With().Str("pkg", "dispatch").Logger(),
	}
	for i := 0; i < opts.SubmitWorkers; i++ {
		d.workers.Add(1)
		go d.submitWorker()
	}
	d.logger.Info().Int("workers", opts.SubmitWorkers).Int("queueSize", opts.QueueSize).Msg(notifier.String())
	return d
}

// Run Consumes messages one at a time until ctx is done or messages is closed
func (d *Dispatcher) Run(ctx context.Context, messages <-chan transport.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			d.handle(ctx, msg)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg transport.Message) {
	request, err := models.ParseRunRequest(msg.Data())
	if err != nil {
		d.logger.Warn().Err(err).Msg("rejected run request")
		metrics.RequestsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		d.reply(msg.Error("400", err.Error()))
		return
	}
	logger := d.logger.With().Str("workload", request.ID).Logger()
	if err := d.enqueue(ctx, request); err != nil {
		logger.Warn().Err(err).Msg("rejected run request")
		metrics.RequestsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		code := "503"
		if errors.Is(err, ErrDuplicateWorkload) {
			code = "409"
		}
		d.reply(msg.Error(code, err.Error()))
		d.notifyAsync(events.Rejected, models.WorkloadStatus{ID: request.ID, State: common.Failed, Message: err.Error()})
		return
	}
	logger.Info().Str("image", request.Image).Str("priority", request.Priority.String()).Msg("accepted run request")
	metrics.RequestsTotal.WithLabelValues(metrics.ResultAccepted).Inc()
	d.reply(transport.RespondJSON(msg, transport.Accepted{ID: request.ID, Status: "accepted"}))
}

func (d *Dispatcher) enqueue(ctx context.Context, request *models.RunRequest) error {
	select {
	case <-d.stopping:
		return ErrShuttingDown
	default:
	}
	if active, err := d.registry.Contains(ctx, request.ID); err != nil {
		return fmt.Errorf("failed to check workload %s: %w", request.ID, err)
	} else if active {
		return fmt.Errorf("%w: %s", ErrDuplicateWorkload, request.ID)
	}
	wl := &workload{request: *request, received: time.Now()}
	d.mu.Lock()
	if _, ok := d.workloads[request.ID]; ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateWorkload, request.ID)
	}
	d.workloads[request.ID] = wl
	d.mu.Unlock()

	var err error
	select {
	case d.queue <- wl:
		return nil
	case <-d.stopping:
		err = ErrShuttingDown
	case <-ctx.Done():
		err = ctx.Err()
	}
	d.mu.Lock()
	delete(d.workloads, request.ID)
	d.mu.Unlock()
	return err
}

func (d *Dispatcher) submitWorker() {
	defer d.workers.Done()
	for {
		select {
		case <-d.stopping:
			return
		case wl := <-d.queue:
			d.submit(wl)
		}
	}
}

func (d *Dispatcher) submit(wl *workload) {
	id := wl.request.ID
	logger := d.logger.With().Str("workload", id).Logger()
	d.mu.Lock()
	cancelled := wl.cancelled
	d.mu.Unlock()
	if cancelled {
		logger.Info().Msg("workload stopped before submission")
		d.finishQueued(wl, common.Stopped, "stopped before submission", events.Stopped)
		return
	}

	job := actions.BuildWorkloadSpec(wl.request, d.opts.Workload)
	handle, err := d.gateway.Submit(d.baseCtx, job)
	if err != nil {
		logger.Error().Err(err).Msg("failed to submit workload")
		metrics.SubmissionFailures.Inc()
		d.finishQueued(wl, common.Failed, err.Error(), events.Failed)
		return
	}
	metrics.WorkloadsSubmitted.Inc()
	if err := d.registry.Add(d.baseCtx, id); err != nil {
		logger.Error().Err(err).Msg("failed to register workload")
	}

	follower := logs.NewFollower(id, d.gateway, d.opts.Logs)
	watchOpts := d.opts.Watch
	watchOpts.Timeout = d.opts.WatchTimeout(wl.request.TimeLimit)
	w := watcher.NewLifecycleWatcher(*handle, d.gateway, d.registry, follower, watchOpts)
	d.mu.Lock()
	wl.watcher = w
	cancelled = wl.cancelled
	d.mu.Unlock()
	logger.Info().Dur("watchTimeout", watchOpts.Timeout).Msg("workload submitted")
	d.notify(events.Submitted, w.Status())
	if cancelled {
		if err := w.Cancel(d.baseCtx); err != nil {
			logger.Error().Err(err).Msg("failed to stop workload cancelled during submission")
		}
	}

	monitorCtx, stopFollowing := context.WithCancel(d.baseCtx)
	d.monitors.Add(2)
	go func() {
		defer d.monitors.Done()
		_ = follower.Follow(monitorCtx)
	}()
	go func() {
		defer d.monitors.Done()
		defer stopFollowing()
		d.monitor(monitorCtx, w)
	}()
}

func (d *Dispatcher) monitor(ctx context.Context, w *watcher.LifecycleWatcher) {
	_, err := w.Watch(ctx)
	switch {
	case errors.Is(err, watcher.ErrWatchTimeout):
		d.stopTimedOut(ctx, w)
	case ctx.Err() != nil:
		return
	}
	if w.State().IsTerminal() {
		d.finish(w)
	}
}

// stopTimedOut deletes a workload that outlived its watch. When every attempt fails it is recorded as Failed
func (d *Dispatcher) stopTimedOut(ctx context.Context, w *watcher.LifecycleWatcher) {
	backoff := wait.Backoff{
		Duration: d.opts.Watch.PollInterval,
		Factor:   2,
		Jitter:   0.1,
		Steps:    stopAttempts,
		Cap:      d.opts.Watch.MaxPollInterval,
	}
	var err error
	for attempt := 1; ; attempt++ {
		cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		err = w.Cancel(cancelCtx)
		cancel()
		if err == nil {
			return
		}
		d.logger.Warn().Err(err).Str("workload", w.ID()).Int("attempt", attempt).Msg("failed to stop timed out workload")
		if attempt == stopAttempts {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(backoff.Step()):
			continue
		}
		break
	}
	w.Fail(fmt.Errorf("timed out and could not be stopped: %w", err))
}

// finish moves a terminal workload from the live set to the history. Only the first call for a workload has effect
func (d *Dispatcher) finish(w *watcher.LifecycleWatcher) {
	d.mu.Lock()
	wl, ok := d.workloads[w.ID()]
	if !ok || wl.watcher != w {
		d.mu.Unlock()
		return
	}
	delete(d.workloads, w.ID())
	d.mu.Unlock()

	status := w.Status()
	d.history.Add(status)
	switch status.State {
	case common.Done:
		d.notify(events.Completed, status)
	case common.Stopped:
		d.notify(events.Stopped, status)
	default:
		d.notify(events.Failed, status)
	}
}

func (d *Dispatcher) finishQueued(wl *workload, state common.LifecycleState, message string, event events.Event) {
	d.mu.Lock()
	delete(d.workloads, wl.request.ID)
	d.mu.Unlock()
	ended := time.Now()
	status := models.WorkloadStatus{ID: wl.request.ID, State: state, Created: &wl.received, Ended: &ended, Message: message}
	d.history.Add(status)
	d.notify(event, status)
}

// Cancel Stops a queued or in-flight workload. Returns gateway.ErrWorkloadNotFound for unknown ids
func (d *Dispatcher) Cancel(ctx context.Context, id string) error {
	d.mu.Lock()
	wl, ok := d.workloads[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", gateway.ErrWorkloadNotFound, id)
	}
	w := wl.watcher
	if w == nil {
		wl.cancelled = true
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	if err := w.Cancel(ctx); err != nil {
		return err
	}
	if w.State().IsTerminal() {
		d.finish(w)
	}
	return nil
}

// Workload Status of a live or recently finished workload
func (d *Dispatcher) Workload(id string) (models.WorkloadStatus, bool) {
	d.mu.Lock()
	if wl, ok := d.workloads[id]; ok {
		defer d.mu.Unlock()
		return wl.status(), true
	}
	d.mu.Unlock()
	return d.history.Get(id)
}

// Workloads Statuses of live and recently finished workloads ordered by creation time
func (d *Dispatcher) Workloads() []models.WorkloadStatus {
	statuses := d.history.List()
	d.mu.Lock()
	for _, wl := range d.workloads {
		statuses = append(statuses, wl.status())
	}
	d.mu.Unlock()
	slices.SortStableFunc(statuses, func(a, b models.WorkloadStatus) int {
		return createdTime(a).Compare(createdTime(b))
	})
	return statuses
}

// Registered Workloads currently tracked in the registry, in registration order
func (d *Dispatcher) Registered(ctx context.Context) ([]registry.WorkloadRecord, error) {
	return d.registry.List(ctx)
}

// Cleanup Deletes every registered workload from the cluster
func (d *Dispatcher) Cleanup(ctx context.Context) error {
	return d.registry.Cleanup(ctx)
}

// Shutdown Stops accepting requests, waits for the submit workers, stops monitoring and deletes the registered workloads
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stopping) })
	if err := waitGroup(ctx, &d.workers); err != nil {
		return fmt.Errorf("submit workers did not stop: %w", err)
	}
drain:
	for {
		select {
		case wl := <-d.queue:
			d.finishQueued(wl, common.Failed, ErrShuttingDown.Error(), events.Failed)
		default:
			break drain
		}
	}
	d.cancelBase()
	if err := waitGroup(ctx, &d.monitors); err != nil {
		d.logger.Warn().Err(err).Msg("monitors did not stop in time")
	}
	if n, err := d.registry.Len(ctx); err == nil {
		d.logger.Info().Int("registered", n).Msg("cleaning up workloads")
	}
	err := d.registry.Cleanup(ctx)
	if waitErr := waitGroup(ctx, &d.notifying); waitErr != nil {
		d.logger.Warn().Err(waitErr).Msg("notifications did not finish in time")
	}
	return err
}

func (d *Dispatcher) notify(event events.Event, status models.WorkloadStatus) {
	if !d.notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := d.notifier.Notify(ctx, events.NewWorkloadEvent(event, status)); err != nil {
		d.logger.Warn().Err(err).Str("workload", status.ID).Str("event", string(event)).Msg("failed to notify")
	}
}

// notifyAsync sends the notification without holding up message consumption
func (d *Dispatcher) notifyAsync(event events.Event, status models.WorkloadStatus) {
	d.notifying.Add(1)
	go func() {
		defer d.notifying.Done()
		d.notify(event, status)
	}()
}

func (d *Dispatcher) reply(err error) {
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to reply")
	}
}

// status must be called with d.mu held
func (wl *workload) status() models.WorkloadStatus {
	if wl.watcher != nil {
		return wl.watcher.Status()
	}
	received := wl.received
	return models.WorkloadStatus{ID: wl.request.ID, State: common.Queued, Created: &received}
}

func createdTime(status models.WorkloadStatus) time.Time {
	if status.Created == nil {
		return time.Time{}
	}
	return *status.Created
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
