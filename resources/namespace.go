package resources

import (
	"context"
	"fmt"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// BuildNamespace returns the namespace isolating one tenant.
func BuildNamespace(t model.Tenant) (*corev1.Namespace, error) {
	name, err := naming.TenantNamespace(t)
	if err != nil {
		return nil, err
	}
	return &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				LabelAppK8sManagedBy: ManagedBy,
				LabelWorkspaceID:     strconv.Itoa(t.WorkspaceID),
				LabelProjectID:       strconv.Itoa(t.ProjectID),
			},
		},
	}, nil
}

// SubmitNamespace creates ns, accepting an existing one.
func SubmitNamespace(ctx context.Context, c ClusterClient, ns *corev1.Namespace) error {
	if err := acceptConflict(c.CreateNamespace(ctx, ns)); err != nil {
		return fmt.Errorf("create namespace %s: %w", ns.Name, err)
	}
	return nil
}
