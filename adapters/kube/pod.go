package kube

import (
	"context"
	"fmt"
	"io"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// maxPodLogBytes caps the log read by ReadPodLog.
const maxPodLogBytes = 16 << 20

// ListPods returns the pods of namespace ordered by creation time, oldest first.
func (c *Client) ListPods(ctx context.Context, namespace string) ([]corev1.Pod, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	list, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, mapError("list pods "+namespace, err)
	}
	pods := list.Items
	sort.SliceStable(pods, func(i, j int) bool {
		return pods[i].CreationTimestamp.Before(&pods[j].CreationTimestamp)
	})
	return pods, nil
}

// ReadPodLog returns the log of the pod's main container.
func (c *Client) ReadPodLog(ctx context.Context, namespace, pod string) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if namespace == "" || pod == "" {
		return nil, fmt.Errorf("namespace and pod name are required")
	}
	op := fmt.Sprintf("read log %s/%s", namespace, pod)
	stream, err := c.Clientset.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{}).Stream(ctx)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer stream.Close()
	b, err := io.ReadAll(io.LimitReader(stream, maxPodLogBytes))
	if err != nil {
		return nil, mapError(op, err)
	}
	return b, nil
}
