package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	batchv1 "k8s.io/api/batch/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Gateway ClusterGateway backed by the Kubernetes API
type Gateway struct {
	kubeClient kubernetes.Interface
	namespace  string
	logger     zerolog.Logger
}

var (
	_ gateway.ClusterGateway = &Gateway{}
	_ gateway.StatusWatcher  = &Gateway{}
)

// NewGateway Constructor
func NewGateway(kubeUtil models.KubeUtil) *Gateway {
	return &Gateway{
		kubeClient: kubeUtil.KubeClient(),
		namespace:  kubeUtil.CurrentNamespace(),
		logger:     log.Logger.With().Str("pkg", "kube").Str("namespace", kubeUtil.CurrentNamespace()).Logger(),
	}
}

// Submit Creates the Job in the gateway namespace
func (g *Gateway) Submit(ctx context.Context, job *batchv1.Job) (*gateway.WorkloadHandle, error) {
	created, err := g.kubeClient.BatchV1().Jobs(g.namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return nil, &gateway.SubmissionError{ID: job.GetName(), Err: err}
	}
	g.logger.Debug().Str("workload", created.GetName()).Msg("job created")
	creationTime := created.GetCreationTimestamp().Time
	if creationTime.IsZero() {
		creationTime = time.Now()
	}
	return &gateway.WorkloadHandle{ID: created.GetName(), Namespace: g.namespace, Created: creationTime}, nil
}

// Delete Deletes the Job with background propagation so its pods go with it
func (g *Gateway) Delete(ctx context.Context, id string) error {
	fg := metav1.DeletePropagationBackground
	err := g.kubeClient.BatchV1().Jobs(g.namespace).Delete(ctx, id, metav1.DeleteOptions{PropagationPolicy: &fg})
	if err != nil && !k8sErrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	if err != nil {
		g.logger.Debug().Str("workload", id).Msg("job already deleted")
	}
	return nil
}
