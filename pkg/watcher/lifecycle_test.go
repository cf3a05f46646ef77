package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/models/common"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	"github.com/zefiro/zefiro-job/pkg/gateway/mock"
)

type fakeRegistry struct {
	mu      sync.Mutex
	removed []string
}

func (r *fakeRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

func (r *fakeRegistry) Removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

type fakeLogs struct {
	entries []models.LogEntry
	done    chan struct{}
}

func (l *fakeLogs) Entries() []models.LogEntry { return l.entries }
func (l *fakeLogs) Done() <-chan struct{}     { return l.done }

type watchingGateway struct {
	*mock.MockClusterGateway
	*mock.MockStatusWatcher
}

var testHandle = gateway.WorkloadHandle{ID: "job-1", Namespace: "zefiro", Created: time.Now()}

func testOptions(deleteOnCompletion bool) Options {
	return Options{
		PollInterval:       time.Millisecond,
		MaxPollInterval:    4 * time.Millisecond,
		Timeout:            5 * time.Second,
		LogDrainTimeout:    50 * time.Millisecond,
		DeleteOnCompletion: deleteOnCompletion,
	}
}

func phase(p gateway.Phase) *gateway.WorkloadStatus {
	return &gateway.WorkloadStatus{Phase: p}
}

func Test_Watch_Succeeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	started, finished := time.Now().Add(-time.Minute), time.Now()
	var w *LifecycleWatcher
	var statesSeen []common.LifecycleState
	recordState := func(status *gateway.WorkloadStatus, err error) func(context.Context, string) (*gateway.WorkloadStatus, error) {
		return func(context.Context, string) (*gateway.WorkloadStatus, error) {
			statesSeen = append(statesSeen, w.State())
			return status, err
		}
	}
	gomock.InOrder(
		gw.EXPECT().GetStatus(gomock.Any(), "job-1").DoAndReturn(recordState(nil, gateway.ErrStatusUnavailable)).Times(2),
		gw.EXPECT().GetStatus(gomock.Any(), "job-1").DoAndReturn(recordState(phase(gateway.PhaseRunning), nil)).Times(2),
		gw.EXPECT().GetStatus(gomock.Any(), "job-1").DoAndReturn(recordState(&gateway.WorkloadStatus{
			Phase:       gateway.PhaseSucceeded,
			Termination: &gateway.ContainerTermination{ExitCode: 0, StartedAt: &started, FinishedAt: &finished},
		}, nil)).Times(1),
		gw.EXPECT().Delete(gomock.Any(), "job-1").Return(nil).Times(1),
	)
	registry := &fakeRegistry{}
	logs := &fakeLogs{entries: []models.LogEntry{{Workload: "job-1", Entry: "hello"}}, done: make(chan struct{})}
	close(logs.done)

	w = NewLifecycleWatcher(testHandle, gw, registry, logs, testOptions(true))
	assert.Equal(t, common.Queued, w.State())
	result, err := w.Watch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []common.LifecycleState{common.Queued, common.Queued, common.Queued, common.Running, common.Running}, statesSeen)
	assert.Equal(t, common.Done, w.State())
	assert.Equal(t, int32(0), result.ExitCode)
	assert.Equal(t, &started, result.StartTime)
	assert.Equal(t, &finished, result.FinishTime)
	assert.Equal(t, logs.entries, result.Log)
	assert.Same(t, result, w.Result())
	assert.Equal(t, []string{"job-1"}, registry.Removed())
}

func Test_Watch_FailedKeepsWorkload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(&gateway.WorkloadStatus{
		Phase:       gateway.PhaseFailed,
		Message:     "Error",
		Termination: &gateway.ContainerTermination{ExitCode: 3},
	}, nil).Times(1)
	gw.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(false))
	result, err := w.Watch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, common.Failed, w.State())
	assert.Equal(t, int32(3), result.ExitCode)
	assert.Empty(t, result.Log)
	assert.Equal(t, []string{"job-1"}, registry.Removed())
	assert.Equal(t, "Error", w.Status().Message)
}

func Test_Watch_DeleteFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhaseSucceeded), nil)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(errors.New("forbidden"))
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(true))
	result, err := w.Watch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.UnknownExitCode, result.ExitCode)
	assert.Equal(t, []string{"job-1"}, registry.Removed())
}

func Test_Watch_WorkloadNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(nil, gateway.ErrWorkloadNotFound)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(nil)
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(true))
	result, err := w.Watch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, common.Failed, w.State())
	assert.Equal(t, int32(-1), result.ExitCode)
}

func Test_Watch_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(nil, gateway.ErrStatusUnavailable).AnyTimes()
	registry := &fakeRegistry{}
	opts := testOptions(true)
	opts.Timeout = 30 * time.Millisecond

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, opts)
	result, err := w.Watch(context.Background())

	assert.ErrorIs(t, err, ErrWatchTimeout)
	assert.Nil(t, result)
	assert.Equal(t, common.Queued, w.State())
	assert.Empty(t, registry.Removed())
}

func Test_Watch_ParentContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhasePending), nil).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	w := NewLifecycleWatcher(testHandle, gw, &fakeRegistry{}, nil, testOptions(true))
	_, err := w.Watch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrWatchTimeout)
}

func Test_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhaseRunning), nil).AnyTimes()
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(nil).Times(1)
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(true))
	watchErr := make(chan error, 1)
	go func() {
		_, err := w.Watch(context.Background())
		watchErr <- err
	}()
	require.Eventually(t, func() bool { return w.State() == common.Running }, 2*time.Second, time.Millisecond)

	require.NoError(t, w.Cancel(context.Background()))
	assert.Equal(t, common.Stopped, w.State())
	assert.Nil(t, w.Result())
	assert.Equal(t, []string{"job-1"}, registry.Removed())
	assert.ErrorIs(t, <-watchErr, ErrWorkloadStopped)

	assert.NoError(t, w.Cancel(context.Background()), "cancel of a stopped workload is a no-op")
}

func Test_Cancel_DeleteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(errors.New("forbidden"))
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(true))
	assert.Error(t, w.Cancel(context.Background()))
	assert.Equal(t, common.Stopping, w.State())
	assert.Empty(t, registry.Removed())

	_, err := w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWorkloadStopped)
}

func Test_Cancel_TerminalIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhaseSucceeded), nil)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(nil).Times(1)

	w := NewLifecycleWatcher(testHandle, gw, &fakeRegistry{}, nil, testOptions(true))
	_, err := w.Watch(context.Background())
	require.NoError(t, err)
	assert.NoError(t, w.Cancel(context.Background()))
	assert.Equal(t, common.Done, w.State())
}

func Test_Watch_StatusChangeTriggersPoll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := watchingGateway{mock.NewMockClusterGateway(ctrl), mock.NewMockStatusWatcher(ctrl)}
	changed := make(chan struct{}, 1)
	gw.MockStatusWatcher.EXPECT().WatchStatus(gomock.Any(), "job-1").Return((<-chan struct{})(changed), nil)
	gomock.InOrder(
		gw.MockClusterGateway.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhasePending), nil).Times(1),
		gw.MockClusterGateway.EXPECT().GetStatus(gomock.Any(), "job-1").Return(phase(gateway.PhaseSucceeded), nil).Times(1),
	)
	opts := testOptions(false)
	opts.PollInterval = time.Hour
	opts.MaxPollInterval = time.Hour

	w := NewLifecycleWatcher(testHandle, gw, &fakeRegistry{}, nil, opts)
	done := make(chan error, 1)
	go func() {
		_, err := w.Watch(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	changed <- struct{}{}

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Equal(t, common.Done, w.State())
	case <-time.After(2 * time.Second):
		t.Fatal("status change did not trigger a poll")
	}
}

func Test_Cancel_WhileFinishingKeepsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	polled := make(chan struct{})
	gw.EXPECT().GetStatus(gomock.Any(), "job-1").DoAndReturn(func(context.Context, string) (*gateway.WorkloadStatus, error) {
		close(polled)
		return &gateway.WorkloadStatus{Phase: gateway.PhaseSucceeded, Termination: &gateway.ContainerTermination{ExitCode: 0}}, nil
	}).Times(1)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(nil).Times(1)
	registry := &fakeRegistry{}
	logs := &fakeLogs{done: make(chan struct{})}
	opts := testOptions(true)
	opts.LogDrainTimeout = 300 * time.Millisecond

	w := NewLifecycleWatcher(testHandle, gw, registry, logs, opts)
	watchErr := make(chan error, 1)
	go func() {
		_, err := w.Watch(context.Background())
		watchErr <- err
	}()
	<-polled
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, w.Cancel(context.Background()))
	assert.Equal(t, common.Done, w.State())
	require.NotNil(t, w.Result())
	assert.Equal(t, int32(0), w.Result().ExitCode)
	assert.NoError(t, <-watchErr)
	assert.Equal(t, []string{"job-1"}, registry.Removed())
}

func Test_Fail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gw := mock.NewMockClusterGateway(ctrl)
	gw.EXPECT().Delete(gomock.Any(), "job-1").Return(errors.New("forbidden"))
	registry := &fakeRegistry{}

	w := NewLifecycleWatcher(testHandle, gw, registry, nil, testOptions(true))
	require.Error(t, w.Cancel(context.Background()))
	w.Fail(errors.New("could not stop"))

	status := w.Status()
	assert.Equal(t, common.Failed, status.State)
	assert.Equal(t, "could not stop", status.Message)
	assert.NotNil(t, status.Ended)
	assert.Empty(t, registry.Removed(), "an undeleted workload stays registered")
	assert.NoError(t, w.Cancel(context.Background()), "cancel of a failed workload is a no-op")
}
