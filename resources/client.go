package resources

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// ClusterClient is the only contact point with the cluster. Every failure is,
// or wraps, a *model.ClusterAPIError. Implementations must be safe for
// concurrent use by independent deployments.
type ClusterClient interface {
	CreateNamespace(ctx context.Context, ns *corev1.Namespace) error
	CreateConfigMap(ctx context.Context, namespace string, cm *corev1.ConfigMap) error
	GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error)
	UpdateConfigMap(ctx context.Context, namespace string, cm *corev1.ConfigMap) error
	CreateSecret(ctx context.Context, namespace string, secret *corev1.Secret) error
	GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error)
	UpdateSecret(ctx context.Context, namespace string, secret *corev1.Secret) error
	CreateDeployment(ctx context.Context, namespace string, dep *appsv1.Deployment) error
	GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error)
	UpdateDeployment(ctx context.Context, namespace string, dep *appsv1.Deployment) error
	CreateService(ctx context.Context, namespace string, svc *corev1.Service) error
	CreateCustomObject(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) error
	GetCustomObject(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error)
	ListPods(ctx context.Context, namespace string) ([]corev1.Pod, error)
	ReadPodLog(ctx context.Context, namespace, pod string) ([]byte, error)
	DeleteNamespace(ctx context.Context, name string) error
	// PingHost reports whether host answers at the network layer.
	PingHost(ctx context.Context, host string) bool
	// CheckConnectivity reports whether the API server is reachable.
	CheckConnectivity(ctx context.Context) bool
}

// acceptConflict treats an already existing object as success. It is used for
// objects whose content never changes between deployments of a tenant.
func acceptConflict(err error) error {
	if err != nil && model.IsConflict(err) {
		return nil
	}
	return err
}
