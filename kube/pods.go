package kube

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/zefiro/zefiro-job/defaults"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// GetStatus Status of the newest pod of the Job, or of the Job itself when it has no pods
func (g *Gateway) GetStatus(ctx context.Context, id string) (*gateway.WorkloadStatus, error) {
	pod, err := g.getNewestPod(ctx, id)
	if err != nil {
		return nil, err
	}
	if pod == nil {
		return g.getJobStatus(ctx, id)
	}
	phase, ok := podPhases[pod.Status.Phase]
	if !ok {
		return nil, gateway.ErrStatusUnavailable
	}
	status := gateway.WorkloadStatus{
		Phase:   phase,
		Message: pod.Status.Message,
	}
	if pod.Status.StartTime != nil {
		status.StartedAt = &pod.Status.StartTime.Time
	}
	if containerStatus := getContainerStatus(pod, id); containerStatus != nil && containerStatus.State.Terminated != nil {
		status.Termination = buildTermination(containerStatus.State.Terminated)
	}
	return &status, nil
}

// StreamLogs Follows the log of the workload container. Returns ErrStatusUnavailable until the container has started
func (g *Gateway) StreamLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	pod, err := g.getNewestPod(ctx, id)
	if err != nil {
		return nil, err
	}
	if pod == nil || !containerStarted(getContainerStatus(pod, id)) {
		return nil, gateway.ErrStatusUnavailable
	}
	container := id
	if _, found := slice.FindFirst(pod.Spec.Containers, func(c corev1.Container) bool { return c.Name == id }); !found && len(pod.Spec.Containers) > 0 {
		container = pod.Spec.Containers[0].Name
	}
	stream, err := g.kubeClient.CoreV1().Pods(g.namespace).
		GetLogs(pod.GetName(), &corev1.PodLogOptions{Container: container, Follow: true}).
		Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stream logs of pod %s: %w", pod.GetName(), err)
	}
	return stream, nil
}

var podPhases = map[corev1.PodPhase]gateway.Phase{
	corev1.PodPending:   gateway.PhasePending,
	corev1.PodRunning:   gateway.PhaseRunning,
	corev1.PodSucceeded: gateway.PhaseSucceeded,
	corev1.PodFailed:    gateway.PhaseFailed,
}

func (g *Gateway) getNewestPod(ctx context.Context, id string) (*corev1.Pod, error) {
	podList, err := g.kubeClient.CoreV1().Pods(g.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: getLabelSelectorForWorkloadPods(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods of workload %s: %w", id, err)
	}
	var newest *corev1.Pod
	for i := range podList.Items {
		pod := &podList.Items[i]
		if newest == nil || newest.CreationTimestamp.Before(&pod.CreationTimestamp) {
			newest = pod
		}
	}
	return newest, nil
}

func (g *Gateway) getJobStatus(ctx context.Context, id string) (*gateway.WorkloadStatus, error) {
	job, err := g.kubeClient.BatchV1().Jobs(g.namespace).Get(ctx, id, metav1.GetOptions{})
	if err != nil {
		if k8sErrors.IsNotFound(err) {
			return nil, gateway.ErrWorkloadNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	for _, condition := range job.Status.Conditions {
		if condition.Status != corev1.ConditionTrue {
			continue
		}
		switch condition.Type {
		case batchv1.JobFailed:
			return &gateway.WorkloadStatus{Phase: gateway.PhaseFailed, Message: fmt.Sprintf("%s: %s", condition.Reason, condition.Message)}, nil
		case batchv1.JobComplete:
			return &gateway.WorkloadStatus{Phase: gateway.PhaseSucceeded, Message: condition.Message}, nil
		}
	}
	return nil, gateway.ErrStatusUnavailable
}

func getContainerStatus(pod *corev1.Pod, name string) *corev1.ContainerStatus {
	if len(pod.Status.ContainerStatuses) == 0 {
		return nil
	}
	for i := range pod.Status.ContainerStatuses {
		if pod.Status.ContainerStatuses[i].Name == name {
			return &pod.Status.ContainerStatuses[i]
		}
	}
	return &pod.Status.ContainerStatuses[0]
}

func containerStarted(status *corev1.ContainerStatus) bool {
	return status != nil && (status.State.Running != nil || status.State.Terminated != nil)
}

func buildTermination(terminated *corev1.ContainerStateTerminated) *gateway.ContainerTermination {
	termination := gateway.ContainerTermination{
		ExitCode: terminated.ExitCode,
		Reason:   terminated.Reason,
	}
	if !terminated.StartedAt.IsZero() {
		termination.StartedAt = timePtr(terminated.StartedAt.Time)
	}
	if !terminated.FinishedAt.IsZero() {
		termination.FinishedAt = timePtr(terminated.FinishedAt.Time)
	}
	return &termination
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func getLabelSelectorForWorkloadPods(id string) string {
	return labels.SelectorFromSet(map[string]string{
		defaults.K8sJobNameLabel: id,
	}).String()
}
