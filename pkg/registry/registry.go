package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/pkg/metrics"
)

var (
	// ErrRegistryInvariant An operation panicked inside the registry. Membership is unchanged
	ErrRegistryInvariant = errors.New("registry invariant violated")
	// ErrRegistryClosed The registry no longer accepts operations
	ErrRegistryClosed = errors.New("registry closed")
)

// Deleter Removes a workload from the cluster
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// WorkloadRecord An in-flight workload
type WorkloadRecord struct {
	ID      string
	Created time.Time
}

// Registry Set of in-flight workloads. Membership is owned by a single goroutine and every operation runs there
type Registry struct {
	deleter   Deleter
	commands  chan command
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

type command struct {
	fn     func(records *[]WorkloadRecord) error
	result chan error
}

// New Starts the registry goroutine. Call Close to stop it
func New(deleter Deleter) *Registry {
	r := &Registry{
		deleter:  deleter,
		commands: make(chan command),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   log.Logger.With().Str("pkg", "registry").Logger(),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	defer close(r.stopped)
	var records []WorkloadRecord
	for {
		select {
		case <-r.stop:
			return
		case cmd := <-r.commands:
			cmd.result <- execute(&records, cmd.fn)
		}
	}
}

// execute runs fn on the records, restoring them when fn panics
func execute(records *[]WorkloadRecord, fn func(records *[]WorkloadRecord) error) (err error) {
	snapshot := slices.Clone(*records)
	defer func() {
		if p := recover(); p != nil {
			*records = snapshot
			err = fmt.Errorf("%w: %v", ErrRegistryInvariant, p)
		}
	}()
	return fn(records)
}

// do runs fn in the registry goroutine and waits for its result
func (r *Registry) do(ctx context.Context, fn func(records *[]WorkloadRecord) error) error {
	cmd := command{fn: fn, result: make(chan error, 1)}
	select {
	case <-r.stopped:
		return ErrRegistryClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.commands <- cmd:
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Add Registers a workload. Adding a registered id is logged and ignored
func (r *Registry) Add(ctx context.Context, id string) error {
	return r.do(ctx, func(records *[]WorkloadRecord) error {
		if slices.ContainsFunc(*records, withID(id)) {
			r.logger.Warn().Str("workload", id).Msg("workload already registered")
			return nil
		}
		*records = append(*records, WorkloadRecord{ID: id, Created: time.Now()})
		metrics.WorkloadsActive.Set(float64(len(*records)))
		return nil
	})
}

// Remove Unregisters a workload. Removing an unknown id is logged and ignored
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.do(ctx, func(records *[]WorkloadRecord) error {
		idx := slices.IndexFunc(*records, withID(id))
		if idx < 0 {
			r.logger.Debug().Str("workload", id).Msg("workload not registered")
			return nil
		}
		*records = slices.Delete(*records, idx, idx+1)
		metrics.WorkloadsActive.Set(float64(len(*records)))
		return nil
	})
}

// Contains The workload is registered
func (r *Registry) Contains(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.do(ctx, func(records *[]WorkloadRecord) error {
		found = slices.ContainsFunc(*records, withID(id))
		return nil
	})
	return found, err
}

// List Copies of the registered workloads in registration order
func (r *Registry) List(ctx context.Context) ([]WorkloadRecord, error) {
	var list []WorkloadRecord
	err := r.do(ctx, func(records *[]WorkloadRecord) error {
		list = slices.Clone(*records)
		return nil
	})
	return list, err
}

// Len Number of registered workloads
func (r *Registry) Len(ctx context.Context) (int, error) {
	var n int
	err := r.do(ctx, func(records *[]WorkloadRecord) error {
		n = len(*records)
		return nil
	})
	return n, err
}

// Cleanup Attempts to delete every registered workload, then clears the registry.
// A failed or panicking delete is logged and does not stop the sweep. The failures are returned joined
func (r *Registry) Cleanup(ctx context.Context) error {
	var errs []error
	err := r.do(ctx, func(records *[]WorkloadRecord) error {
		r.logger.Info().Int("count", len(*records)).Msg("cleaning up registered workloads")
		for _, record := range *records {
			if err := r.deleteWorkload(ctx, record.ID); err != nil {
				r.logger.Error().Err(err).Str("workload", record.ID).Msg("failed to clean up workload")
				metrics.CleanupFailures.Inc()
				errs = append(errs, err)
			}
		}
		*records = nil
		metrics.WorkloadsActive.Set(0)
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (r *Registry) deleteWorkload(ctx context.Context, id string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: delete of %s panicked: %v", ErrRegistryInvariant, id, p)
		}
	}()
	if err := r.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workload %s: %w", id, err)
	}
	return nil
}

// Close Stops the registry goroutine. Later calls return ErrRegistryClosed
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
	<-r.stopped
}

func withID(id string) func(WorkloadRecord) bool {
	return func(record WorkloadRecord) bool {
		return record.ID == id
	}
}
