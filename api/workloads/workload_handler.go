package workloads

//go:generate mockgen -destination=./mock/handler_mock.go -package=mock github.com/zefiro/zefiro-job/api/workloads WorkloadHandler

import (
	"context"

	"github.com/rs/zerolog/log"
	apierrors "github.com/zefiro/zefiro-job/api/errors"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/pkg/registry"
)

// Dispatcher The dispatcher operations served by the admin API
type Dispatcher interface {
	Workload(id string) (models.WorkloadStatus, bool)
	Workloads() []models.WorkloadStatus
	Cancel(ctx context.Context, id string) error
	Registered(ctx context.Context) ([]registry.WorkloadRecord, error)
	Cleanup(ctx context.Context) error
}

type WorkloadHandler interface {
	// GetWorkloads Get status of live and recently finished workloads
	GetWorkloads(ctx context.Context) ([]models.WorkloadStatus, error)
	// GetWorkload Get status of a workload
	GetWorkload(ctx context.Context, id string) (*models.WorkloadStatus, error)
	// StopWorkload Stop a queued or running workload
	StopWorkload(ctx context.Context, id string) (*models.WorkloadStatus, error)
	// GetRegistered Get the workloads held in the cluster
	GetRegistered(ctx context.Context) ([]models.RegisteredWorkload, error)
	// Cleanup Delete every registered workload from the cluster
	Cleanup(ctx context.Context) error
}

type workloadHandler struct {
	dispatcher Dispatcher
}

// New Constructor for workload handler
func New(dispatcher Dispatcher) WorkloadHandler {
	return &workloadHandler{dispatcher: dispatcher}
}

func (h *workloadHandler) GetWorkloads(ctx context.Context) ([]models.WorkloadStatus, error) {
	statuses := h.dispatcher.Workloads()
	log.Ctx(ctx).Debug().Msgf("Found %d workloads", len(statuses))
	return statuses, nil
}

func (h *workloadHandler) GetWorkload(_ context.Context, id string) (*models.WorkloadStatus, error) {
	status, ok := h.dispatcher.Workload(id)
	if !ok {
		return nil, apierrors.NewNotFound("workload", id)
	}
	return &status, nil
}

func (h *workloadHandler) StopWorkload(ctx context.Context, id string) (*models.WorkloadStatus, error) {
	if err := h.dispatcher.Cancel(ctx, id); err != nil {
		return nil, err
	}
	return h.GetWorkload(ctx, id)
}

func (h *workloadHandler) GetRegistered(ctx context.Context) ([]models.RegisteredWorkload, error) {
	records, err := h.dispatcher.Registered(ctx)
	if err != nil {
		return nil, err
	}
	registered := make([]models.RegisteredWorkload, 0, len(records))
	for _, record := range records {
		registered = append(registered, models.RegisteredWorkload{ID: record.ID, Created: record.Created})
	}
	return registered, nil
}

func (h *workloadHandler) Cleanup(ctx context.Context) error {
	log.Ctx(ctx).Info().Msg("Cleanup of registered workloads requested")
	return h.dispatcher.Cleanup(ctx)
}
