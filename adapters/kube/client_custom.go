package kube

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
)

// CreateCustomObject creates obj as resource gvr in namespace through the dynamic client.
func (c *Client) CreateCustomObject(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (err error) {
	if c == nil || c.Dynamic == nil {
		return fmt.Errorf("kube dynamic client is not initialized")
	}
	if namespace == "" || obj == nil {
		return fmt.Errorf("namespace and object are required")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateCustomObject", model.IsConflict, "resource", gvr.Resource, "namespace", namespace, "name", obj.GetName())
	defer func() { done(err) }()

	_, err = c.Dynamic.Resource(gvr).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
	return mapError(fmt.Sprintf("create %s %s/%s", gvr.Resource, namespace, obj.GetName()), err)
}

// GetCustomObject reads resource gvr name from namespace.
func (c *Client) GetCustomObject(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {
	if c == nil || c.Dynamic == nil {
		return nil, fmt.Errorf("kube dynamic client is not initialized")
	}
	obj, err := c.Dynamic.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(fmt.Sprintf("get %s %s/%s", gvr.Resource, namespace, name), err)
	}
	return obj, nil
}
