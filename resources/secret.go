package resources

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	apiequality "k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// EnvSecretName returns `<prefix>-env`.
func EnvSecretName(prefix string) string { return prefix + "-env" }

// FileSecretName returns `<prefix>-file`.
func FileSecretName(prefix string) string { return prefix + "-file" }

// UniqueSecretRefs drops repeated references to the same secret keeping the first occurrence.
// References carrying neither a file nor environment values are ignored.
func UniqueSecretRefs(refs []model.SecretRef) []model.SecretRef {
	seen := map[string]bool{}
	out := make([]model.SecretRef, 0, len(refs))
	for _, r := range refs {
		if r.File == nil && len(r.Env) == 0 {
			continue
		}
		if k := r.Key(); k != "" {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, r)
	}
	return out
}

// BuildEnvSecret merges the environment values of all refs into `<prefix>-env`.
// It returns nil when no ref carries environment values.
func BuildEnvSecret(namespace, prefix string, refs []model.SecretRef) *corev1.Secret {
	data := map[string][]byte{}
	for _, r := range UniqueSecretRefs(refs) {
		for k, v := range r.Env {
			data[k] = []byte(v)
		}
	}
	if len(data) == 0 {
		return nil
	}
	return opaqueSecret(namespace, EnvSecretName(prefix), data)
}

// BuildFileSecret collects the file secrets of refs into `<prefix>-file`, one key per file
// named by naming.SecretKeyName. It returns nil, nil when no ref carries a file.
func BuildFileSecret(namespace, prefix string, refs []model.SecretRef) (*corev1.Secret, error) {
	data := map[string][]byte{}
	for _, r := range UniqueSecretRefs(refs) {
		if r.File == nil {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(r.File.Contents)
		if err != nil {
			return nil, fmt.Errorf("%w: file secret %s: contents are not base64: %v", model.ErrInvalidDeployment, r.File.Path, err)
		}
		data[naming.SecretKeyName(r.File.Path)] = b
	}
	if len(data) == 0 {
		return nil, nil
	}
	return opaqueSecret(namespace, FileSecretName(prefix), data), nil
}

// BuildImagePullSecret copies type and data of source into namespace.
func BuildImagePullSecret(namespace string, source *corev1.Secret) *corev1.Secret {
	return copySecret(namespace, source)
}

// copySecret re-homes source into namespace keeping name, type and data.
func copySecret(namespace string, source *corev1.Secret) *corev1.Secret {
	data := make(map[string][]byte, len(source.Data))
	for k, v := range source.Data {
		data[k] = append([]byte(nil), v...)
	}
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      source.Name,
			Namespace: namespace,
			Labels:    map[string]string{LabelAppK8sManagedBy: ManagedBy},
		},
		Type: source.Type,
		Data: data,
	}
}

func opaqueSecret(namespace, name string, data map[string][]byte) *corev1.Secret {
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{LabelAppK8sManagedBy: ManagedBy},
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
}

// SubmitSecret creates secret. An existing secret with other data is updated.
func SubmitSecret(ctx context.Context, c ClusterClient, secret *corev1.Secret) error {
	err := c.CreateSecret(ctx, secret.Namespace, secret)
	if err == nil {
		return nil
	}
	if !model.IsConflict(err) {
		return fmt.Errorf("create secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}
	cur, err := c.GetSecret(ctx, secret.Namespace, secret.Name)
	if err != nil {
		return fmt.Errorf("get secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}
	if apiequality.Semantic.DeepEqual(cur.Data, secret.Data) {
		return nil
	}
	upd := secret.DeepCopy()
	upd.ResourceVersion = cur.ResourceVersion
	if err := c.UpdateSecret(ctx, secret.Namespace, upd); err != nil {
		return fmt.Errorf("update secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}
	return nil
}

// CopySecret reads name from the source namespace and creates it in the target namespace.
func CopySecret(ctx context.Context, c ClusterClient, sourceNamespace, name, targetNamespace string) (*corev1.Secret, error) {
	src, err := c.GetSecret(ctx, sourceNamespace, name)
	if err != nil {
		return nil, fmt.Errorf("get secret %s/%s: %w", sourceNamespace, name, err)
	}
	dst := copySecret(targetNamespace, src)
	if err := SubmitSecret(ctx, c, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// envSecretKeys returns the keys of the env secret in deterministic order.
func envSecretKeys(refs []model.SecretRef) []string {
	var keys []string
	seen := map[string]bool{}
	for _, r := range UniqueSecretRefs(refs) {
		rk := make([]string, 0, len(r.Env))
		for k := range r.Env {
			rk = append(rk, k)
		}
		sort.Strings(rk)
		for _, k := range rk {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
