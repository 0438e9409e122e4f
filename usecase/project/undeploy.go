package project

import (
	"context"
	"fmt"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// UndeployInput identifies the tenant to tear down.
type UndeployInput struct {
	Tenant model.Tenant
}

// UndeployOutput reports what was removed.
type UndeployOutput struct {
	Namespace string
	// Deleted is false when the namespace did not exist.
	Deleted bool
}

// Undeploy deletes the tenant namespace and with it every object inside.
// A namespace that does not exist counts as success.
func (u *UseCase) Undeploy(ctx context.Context, in *UndeployInput) (out *UndeployOutput, err error) {
	if in == nil {
		return nil, fmt.Errorf("UndeployInput is required")
	}
	if u == nil || u.Cluster == nil {
		return nil, fmt.Errorf("project use case is not initialized")
	}
	ns, err := naming.TenantNamespace(in.Tenant)
	if err != nil {
		return nil, err
	}
	done := logging.Span(ctx, "Project:Undeploy", "namespace", ns)
	defer func() { done(err) }()

	out = &UndeployOutput{Namespace: ns, Deleted: true}
	if err := u.Cluster.DeleteNamespace(ctx, ns); err != nil {
		if model.IsNotFound(err) {
			out.Deleted = false
			return out, nil
		}
		return nil, fmt.Errorf("delete namespace %s: %w", ns, err)
	}
	return out, nil
}
