package project

import (
	"fmt"
	"strings"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// KindName reduces a qualified project kind such as "si.xlab.lcm-service.tosca" to its
// last segment ("tosca").
func KindName(kind string) string {
	kind = strings.TrimSpace(kind)
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return strings.ToLower(kind)
}

// SpecInput carries the tenant supplied parts of a deployment.
type SpecInput struct {
	Kind    string
	Package []byte
	Secrets []model.SecretRef
	// Env is merged over the kind's literal environment.
	Env map[string]string
}

// SpecForKind assembles the deployment spec of a project kind from the configured catalog.
// The deployment name is the short kind name.
func (u *UseCase) SpecForKind(in SpecInput) (model.DeploymentSpec, error) {
	name := KindName(in.Kind)
	k, ok := u.Settings.Kinds[name]
	if !ok {
		return model.DeploymentSpec{}, fmt.Errorf("%w: unknown project kind %q", model.ErrInvalidDeployment, in.Kind)
	}
	env := make(map[string]string, len(k.Env)+len(in.Env))
	for key, v := range k.Env {
		env[key] = v
	}
	for key, v := range in.Env {
		env[key] = v
	}
	return model.DeploymentSpec{
		Name:            name,
		Image:           k.Image,
		Port:            k.Port,
		WorkDir:         k.WorkDir,
		Env:             env,
		Secrets:         in.Secrets,
		Package:         in.Package,
		ImagePullSecret: k.ImagePullSecret,
		Paths:           append([]string(nil), k.Paths...),
		Priority:        u.Settings.Priority,
	}, nil
}
