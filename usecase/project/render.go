package project

import (
	"fmt"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/resources"
)

// RenderInput is the input for rendering tenant objects without a cluster.
type RenderInput struct {
	Tenant model.Tenant
	Spec   model.DeploymentSpec
	// ShowSecrets keeps secret values instead of redacting them.
	ShowSecrets bool
}

// RenderOutput is a multi-document YAML manifest.
type RenderOutput struct {
	Namespace string
	Manifest  string
}

// Render validates the input like Deploy and renders the tenant objects as YAML.
// The ingress route is rendered without platform inheritance: no middlewares other
// than prefix stripping, the configured overrides only.
func (u *UseCase) Render(in *RenderInput) (*RenderOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("RenderInput is required")
	}
	p, err := u.buildPlan(in.Tenant, in.Spec)
	if err != nil {
		return nil, err
	}
	route, err := resources.BuildIngressRoute(u.Settings.TraefikGroup, p.ns(), p.spec.Name, resources.StaticRouteSpec(p.target, u.Settings.Overrides))
	if err != nil {
		return nil, err
	}
	manifest, err := resources.BuildCleanManifest(append(p.objects(), route), resources.ManifestOptions{
		RedactSecrets:   !in.ShowSecrets,
		ElideBinaryData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}
	return &RenderOutput{Namespace: p.ns(), Manifest: manifest}, nil
}
