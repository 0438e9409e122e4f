package project

import (
	"context"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
	"github.com/xlab-si/lcm-engine/resources"
)

// DeployInput is the input for deploying the LCM service of a tenant.
type DeployInput struct {
	Tenant model.Tenant
	Spec   model.DeploymentSpec
}

// DeployOutput is the outcome of a deployment.
type DeployOutput struct {
	Namespace string
	// Phase is the last phase reached; PhaseRoutingConfigured on success.
	Phase model.DeployPhase
	// Hostname is the host routes were bound to, empty when none was known.
	Hostname string
	// Warnings lists degraded routing inheritance steps.
	Warnings []string
}

// Deploy creates the tenant namespace and everything in it, in order. Input is fully
// validated before the first cluster call. The first failing step stops the deployment
// with a *model.StepError naming the phase it was meant to reach; objects created so far
// are kept. Objects that already exist are accepted so a failed deployment can be re-run.
func (u *UseCase) Deploy(ctx context.Context, in *DeployInput) (out *DeployOutput, err error) {
	if in == nil {
		return nil, fmt.Errorf("DeployInput is required")
	}
	if u == nil || u.Cluster == nil {
		return nil, fmt.Errorf("project use case is not initialized")
	}
	p, err := u.buildPlan(in.Tenant, in.Spec)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("namespace", p.ns(), "deployment", p.spec.Name))
	done := logging.Span(ctx, "Project:Deploy", "tenant", in.Tenant.String())
	defer func() { done(err) }()

	out = &DeployOutput{Namespace: p.ns(), Phase: model.PhaseNotDeployed}
	step := func(phase model.DeployPhase, fn func() error) error {
		if err := fn(); err != nil {
			return &model.StepError{Phase: phase, Err: err}
		}
		out.Phase = phase
		logging.FromContext(ctx).Info(ctx, "Project:Deploy/phase", "phase", string(phase))
		return nil
	}

	if err := step(model.PhaseNamespaceCreated, func() error {
		return resources.SubmitNamespace(ctx, u.Cluster, p.namespace)
	}); err != nil {
		return out, err
	}
	if err := step(model.PhaseConfigProvisioned, func() error {
		return resources.SubmitConfigMap(ctx, u.Cluster, p.configMap)
	}); err != nil {
		return out, err
	}
	if p.envSecret != nil || p.fileSecret != nil {
		if err := step(model.PhaseSecretsProvisioned, func() error {
			if p.envSecret != nil {
				if err := resources.SubmitSecret(ctx, u.Cluster, p.envSecret); err != nil {
					return err
				}
			}
			if p.fileSecret != nil {
				return resources.SubmitSecret(ctx, u.Cluster, p.fileSecret)
			}
			return nil
		}); err != nil {
			return out, err
		}
	}
	if p.spec.ImagePullSecret != "" {
		if err := step(model.PhaseImagePullSecretProvisioned, func() error {
			_, err := resources.CopySecret(ctx, u.Cluster, u.Settings.ControlNamespace, p.spec.ImagePullSecret, p.ns())
			return err
		}); err != nil {
			return out, err
		}
	}
	if err := step(model.PhaseWorkloadCreated, func() error {
		return resources.SubmitDeployment(ctx, u.Cluster, p.deployment)
	}); err != nil {
		return out, err
	}
	if err := step(model.PhaseServiceCreated, func() error {
		return resources.SubmitService(ctx, u.Cluster, p.service)
	}); err != nil {
		return out, err
	}
	if err := step(model.PhaseMiddlewareCreated, func() error {
		return resources.SubmitCustomObject(ctx, u.Cluster, resources.MiddlewareGVR(u.Settings.TraefikGroup), p.middleware)
	}); err != nil {
		return out, err
	}
	if err := step(model.PhaseRoutingConfigured, func() error {
		res, err := u.resolver().Resolve(ctx, p.target)
		if err != nil {
			return err
		}
		out.Hostname = res.Hostname
		for _, w := range res.Warnings {
			out.Warnings = append(out.Warnings, w.String())
		}
		logSpec(ctx, res.Spec)
		route, err := resources.BuildIngressRoute(u.Settings.TraefikGroup, p.ns(), p.spec.Name, res.Spec)
		if err != nil {
			return err
		}
		return resources.SubmitCustomObject(ctx, u.Cluster, resources.IngressRouteGVR(u.Settings.TraefikGroup), route)
	}); err != nil {
		return out, err
	}
	return out, nil
}

func logSpec(ctx context.Context, spec resources.IngressRouteSpec) {
	b, err := yaml.Marshal(spec)
	if err != nil {
		return
	}
	logging.FromContext(ctx).Debug(ctx, "Project:Deploy/route", "spec", string(b))
}
