package resources

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// BuildService returns a ClusterIP service mapping port to the container's targetPort.
func BuildService(namespace, name string, port, targetPort int) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    appLabels(name),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: appLabels(name),
			Ports: []corev1.ServicePort{{
				Name:       ServicePortName,
				Port:       int32(port),
				TargetPort: intstr.FromInt32(int32(targetPort)),
			}},
		},
	}
}

// SubmitService creates svc, accepting an existing one.
func SubmitService(ctx context.Context, c ClusterClient, svc *corev1.Service) error {
	if err := acceptConflict(c.CreateService(ctx, svc.Namespace, svc)); err != nil {
		return fmt.Errorf("create service %s/%s: %w", svc.Namespace, svc.Name, err)
	}
	return nil
}
