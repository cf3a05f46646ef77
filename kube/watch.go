package kube

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WatchStatus Signals on every pod event of the workload. The channel is closed when ctx is done or the watch ends
func (g *Gateway) WatchStatus(ctx context.Context, id string) (<-chan struct{}, error) {
	watcher, err := g.kubeClient.CoreV1().Pods(g.namespace).Watch(ctx, metav1.ListOptions{
		LabelSelector: getLabelSelectorForWorkloadPods(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch pods of workload %s: %w", id, err)
	}
	changed := make(chan struct{}, 1)
	go func() {
		defer close(changed)
		defer watcher.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.ResultChan():
				if !ok {
					return
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changed, nil
}
