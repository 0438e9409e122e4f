package kube

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
)

// CreateConfigMap creates cm in namespace.
func (c *Client) CreateConfigMap(ctx context.Context, namespace string, cm *corev1.ConfigMap) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || cm == nil {
		return fmt.Errorf("namespace and configmap are required")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateConfigMap", model.IsConflict, "namespace", namespace, "name", cm.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().ConfigMaps(namespace).Create(ctx, cm, metav1.CreateOptions{})
	return mapError(fmt.Sprintf("create configmap %s/%s", namespace, cm.Name), err)
}

// GetConfigMap reads a config map.
func (c *Client) GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	cm, err := c.Clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(fmt.Sprintf("get configmap %s/%s", namespace, name), err)
	}
	return cm, nil
}

// UpdateConfigMap replaces cm in namespace.
func (c *Client) UpdateConfigMap(ctx context.Context, namespace string, cm *corev1.ConfigMap) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || cm == nil {
		return fmt.Errorf("namespace and configmap are required")
	}
	done := logging.Span(ctx, "KubeClient:UpdateConfigMap", "namespace", namespace, "name", cm.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().ConfigMaps(namespace).Update(ctx, cm, metav1.UpdateOptions{})
	return mapError(fmt.Sprintf("update configmap %s/%s", namespace, cm.Name), err)
}

// CreateSecret creates secret in namespace.
func (c *Client) CreateSecret(ctx context.Context, namespace string, secret *corev1.Secret) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || secret == nil {
		return fmt.Errorf("namespace and secret are required")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateSecret", model.IsConflict, "namespace", namespace, "name", secret.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	return mapError(fmt.Sprintf("create secret %s/%s", namespace, secret.Name), err)
}

// GetSecret reads a secret.
func (c *Client) GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	s, err := c.Clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(fmt.Sprintf("get secret %s/%s", namespace, name), err)
	}
	return s, nil
}

// UpdateSecret replaces secret in namespace.
func (c *Client) UpdateSecret(ctx context.Context, namespace string, secret *corev1.Secret) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || secret == nil {
		return fmt.Errorf("namespace and secret are required")
	}
	done := logging.Span(ctx, "KubeClient:UpdateSecret", "namespace", namespace, "name", secret.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().Secrets(namespace).Update(ctx, secret, metav1.UpdateOptions{})
	return mapError(fmt.Sprintf("update secret %s/%s", namespace, secret.Name), err)
}

// CreateDeployment creates dep in namespace.
func (c *Client) CreateDeployment(ctx context.Context, namespace string, dep *appsv1.Deployment) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || dep == nil {
		return fmt.Errorf("namespace and deployment are required")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateDeployment", model.IsConflict, "namespace", namespace, "name", dep.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.AppsV1().Deployments(namespace).Create(ctx, dep, metav1.CreateOptions{})
	return mapError(fmt.Sprintf("create deployment %s/%s", namespace, dep.Name), err)
}

// GetDeployment reads a deployment.
func (c *Client) GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, mapError(fmt.Sprintf("get deployment %s/%s", namespace, name), err)
	}
	return dep, nil
}

// UpdateDeployment replaces dep in namespace.
func (c *Client) UpdateDeployment(ctx context.Context, namespace string, dep *appsv1.Deployment) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || dep == nil {
		return fmt.Errorf("namespace and deployment are required")
	}
	done := logging.Span(ctx, "KubeClient:UpdateDeployment", "namespace", namespace, "name", dep.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.AppsV1().Deployments(namespace).Update(ctx, dep, metav1.UpdateOptions{})
	return mapError(fmt.Sprintf("update deployment %s/%s", namespace, dep.Name), err)
}

// CreateService creates svc in namespace.
func (c *Client) CreateService(ctx context.Context, namespace string, svc *corev1.Service) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if namespace == "" || svc == nil {
		return fmt.Errorf("namespace and service are required")
	}
	done := logging.SpanAccepting(ctx, "KubeClient:CreateService", model.IsConflict, "namespace", namespace, "name", svc.Name)
	defer func() { done(err) }()

	_, err = c.Clientset.CoreV1().Services(namespace).Create(ctx, svc, metav1.CreateOptions{})
	return mapError(fmt.Sprintf("create service %s/%s", namespace, svc.Name), err)
}
