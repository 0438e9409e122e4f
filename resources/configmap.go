package resources

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// BuildConfigMap returns the config map carrying the compressed deployment package.
// The package digest is stamped as the content hash annotation.
func BuildConfigMap(namespace, name string, pkg []byte) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   namespace,
			Labels:      appLabels(name),
			Annotations: map[string]string{AnnotationContentHash: naming.ShortHash(string(pkg), 16)},
		},
		BinaryData: map[string][]byte{ConfigMapPackageKey: pkg},
	}
}

// SubmitConfigMap creates cm. An existing config map holding another package
// is replaced.
func SubmitConfigMap(ctx context.Context, c ClusterClient, cm *corev1.ConfigMap) error {
	err := c.CreateConfigMap(ctx, cm.Namespace, cm)
	if err == nil {
		return nil
	}
	if !model.IsConflict(err) {
		return fmt.Errorf("create configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	cur, err := c.GetConfigMap(ctx, cm.Namespace, cm.Name)
	if err != nil {
		return fmt.Errorf("get configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	if cur.Annotations[AnnotationContentHash] == cm.Annotations[AnnotationContentHash] {
		return nil
	}
	upd := cm.DeepCopy()
	upd.ResourceVersion = cur.ResourceVersion
	if err := c.UpdateConfigMap(ctx, cm.Namespace, upd); err != nil {
		return fmt.Errorf("update configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	return nil
}
