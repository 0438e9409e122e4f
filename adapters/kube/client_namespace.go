package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
)

// CreateNamespace creates ns. An existing namespace is reported as a Conflict.
func (c *Client) CreateNamespace(ctx context.Context, ns *corev1.Namespace) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if ns == nil || ns.Name == "" {
		return fmt.Errorf("namespace name is empty")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateNamespace", model.IsConflict, "namespace", ns.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	return mapError("create namespace "+ns.Name, err)
}

// DeleteNamespace deletes a namespace and everything in it.
// A missing namespace is reported as NotFound.
func (c *Client) DeleteNamespace(ctx context.Context, name string) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("namespace name is empty")
	}
	done := logging.Span(ctx, "KubeClient:DeleteNamespace", "namespace", name)
	defer func() { done(err) }()

	err = c.Clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	return mapError("delete namespace "+name, err)
}

// CheckConnectivity performs a simple liveness check against the API (list namespaces with limit=1).
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	if c.ready() != nil {
		return false
	}
	_, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		logging.FromContext(ctx).Warn(ctx, "KubeClient:CheckConnectivity/efail", "err", err)
		return false
	}
	return true
}
