package project

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilvalidation "k8s.io/apimachinery/pkg/util/validation"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
	"github.com/xlab-si/lcm-engine/resources"
)

// plan holds every tenant object of one deployment, built before the first cluster call.
type plan struct {
	tenant     model.Tenant
	spec       model.DeploymentSpec
	namespace  *corev1.Namespace
	configMap  *corev1.ConfigMap
	envSecret  *corev1.Secret
	fileSecret *corev1.Secret
	deployment *appsv1.Deployment
	service    *corev1.Service
	middleware *unstructured.Unstructured
	target     resources.RouteTarget
}

func (p *plan) ns() string { return p.namespace.Name }

// objects returns the planned objects in submission order.
func (p *plan) objects() []runtime.Object {
	objs := []runtime.Object{p.namespace, p.configMap}
	if p.envSecret != nil {
		objs = append(objs, p.envSecret)
	}
	if p.fileSecret != nil {
		objs = append(objs, p.fileSecret)
	}
	return append(objs, p.deployment, p.service, p.middleware)
}

// buildPlan validates spec and builds the tenant objects. Errors wrap model.ErrNaming,
// model.ErrInvalidDeployment or model.ErrEnvConflict.
func (u *UseCase) buildPlan(tenant model.Tenant, spec model.DeploymentSpec) (*plan, error) {
	if err := u.validateSpec(spec); err != nil {
		return nil, err
	}

	ns, err := resources.BuildNamespace(tenant)
	if err != nil {
		return nil, err
	}
	p := &plan{tenant: tenant, spec: spec, namespace: ns}

	p.configMap = resources.BuildConfigMap(ns.Name, spec.Name, spec.Package)
	p.envSecret = resources.BuildEnvSecret(ns.Name, spec.Name, spec.Secrets)
	if p.fileSecret, err = resources.BuildFileSecret(ns.Name, spec.Name, spec.Secrets); err != nil {
		return nil, err
	}
	p.deployment = resources.BuildDeployment(resources.WorkloadInput{
		Namespace:       ns.Name,
		Name:            spec.Name,
		Image:           spec.Image,
		Port:            spec.Port,
		WorkDir:         spec.WorkDir,
		Env:             spec.Env,
		Secrets:         spec.Secrets,
		ImagePullSecret: spec.ImagePullSecret,
		InitImage:       u.Settings.InitImage,
		ContentHash:     resources.ComputeContentHash(spec.Package, spec.Env, spec.Secrets),
	})
	p.service = resources.BuildService(ns.Name, spec.Name, u.servicePort(), spec.Port)

	prefix := naming.TenantPathPrefix(tenant.WorkspaceID, tenant.ProjectID)
	p.middleware = resources.BuildStripPrefixMiddleware(u.Settings.TraefikGroup, ns.Name, resources.StripPrefixMiddlewareName, prefix)

	p.target = resources.RouteTarget{
		Namespace:       ns.Name,
		WorkspaceID:     tenant.WorkspaceID,
		ProjectID:       tenant.ProjectID,
		ServiceName:     spec.Name,
		ServicePort:     u.servicePort(),
		Paths:           spec.Paths,
		Priority:        spec.Priority,
		StripMiddleware: resources.StripPrefixMiddlewareName,
	}
	return p, nil
}

func (u *UseCase) validateSpec(spec model.DeploymentSpec) error {
	if err := naming.ValidateResourceName(spec.Name); err != nil {
		return fmt.Errorf("%w: deployment name %q: %v", model.ErrNaming, spec.Name, err)
	}
	if spec.Image == "" {
		return fmt.Errorf("%w: image is required", model.ErrInvalidDeployment)
	}
	if msgs := utilvalidation.IsValidPortNum(spec.Port); len(msgs) > 0 {
		return fmt.Errorf("%w: port: %s", model.ErrInvalidDeployment, strings.Join(msgs, ", "))
	}
	if !path.IsAbs(spec.WorkDir) || path.Clean(spec.WorkDir) == "/" {
		return fmt.Errorf("%w: working directory must be an absolute path below /, got %q", model.ErrInvalidDeployment, spec.WorkDir)
	}
	if spec.Priority < 0 {
		return fmt.Errorf("%w: priority must not be negative", model.ErrInvalidDeployment)
	}
	if err := validateSecrets(spec); err != nil {
		return err
	}
	return u.validatePackage(spec.Package)
}

// validateSecrets rejects ambiguous secret references and environment variables
// defined by more than one source.
func validateSecrets(spec model.DeploymentSpec) error {
	owner := map[string]string{}
	for k := range spec.Env {
		if msgs := utilvalidation.IsEnvVarName(k); len(msgs) > 0 {
			return fmt.Errorf("%w: env %q: %s", model.ErrInvalidDeployment, k, strings.Join(msgs, ", "))
		}
		owner[k] = "literal environment"
	}

	files := map[string]string{}
	for _, r := range resources.UniqueSecretRefs(spec.Secrets) {
		label := r.Key()
		if label == "" {
			label = "unnamed secret"
		}
		if r.File != nil && len(r.Env) > 0 {
			return fmt.Errorf("%w: secret %s carries both a file and environment values", model.ErrInvalidDeployment, label)
		}
		if r.File != nil {
			if !path.IsAbs(r.File.Path) || strings.HasSuffix(r.File.Path, "/") {
				return fmt.Errorf("%w: secret %s: file path must be an absolute file path, got %q", model.ErrInvalidDeployment, label, r.File.Path)
			}
			key := naming.SecretKeyName(r.File.Path)
			if prev, ok := files[key]; ok {
				return fmt.Errorf("%w: secret %s: file %s already provided by %s", model.ErrInvalidDeployment, label, r.File.Path, prev)
			}
			files[key] = label
		}
		keys := make([]string, 0, len(r.Env))
		for k := range r.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msgs := utilvalidation.IsEnvVarName(k); len(msgs) > 0 {
				return fmt.Errorf("%w: secret %s: env %q: %s", model.ErrInvalidDeployment, label, k, strings.Join(msgs, ", "))
			}
			if prev, ok := owner[k]; ok {
				return fmt.Errorf("%w: %s set by %s and secret %s", model.ErrEnvConflict, k, prev, label)
			}
			owner[k] = "secret " + label
		}
	}
	return nil
}

// validatePackage checks the deployment package is a readable zip archive that fits a config map.
func (u *UseCase) validatePackage(pkg []byte) error {
	if len(pkg) == 0 {
		return fmt.Errorf("%w: deployment package is empty", model.ErrInvalidDeployment)
	}
	limit := u.Settings.MaxPackageBytes
	if limit <= 0 {
		limit = maxPackageBytes
	}
	if len(pkg) > limit {
		return fmt.Errorf("%w: deployment package is %d bytes, limit is %d", model.ErrInvalidDeployment, len(pkg), limit)
	}
	if _, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg))); err != nil {
		return fmt.Errorf("%w: deployment package is not a zip archive: %v", model.ErrInvalidDeployment, err)
	}
	return nil
}

// maxPackageBytes is the config map size limit of the API server.
const maxPackageBytes = 1 << 20
