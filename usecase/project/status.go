package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
	"github.com/xlab-si/lcm-engine/internal/naming"
	"github.com/xlab-si/lcm-engine/resources"
)

// StatusInput identifies the tenant to inspect.
type StatusInput struct {
	Tenant model.Tenant
}

// StatusOutput reports the pod phase of the tenant's LCM service.
type StatusOutput struct {
	Namespace string `json:"namespace"`
	Pod       string `json:"pod,omitempty"`
	// Phase is the pod phase, e.g. "Running"; empty when the pod reports none.
	Phase string `json:"phase,omitempty"`
	// Finished is true once the service is running.
	Finished bool `json:"finished"`
}

// Status returns the phase of the first pod in the tenant namespace.
func (u *UseCase) Status(ctx context.Context, in *StatusInput) (*StatusOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("StatusInput is required")
	}
	ns, pod, err := u.firstPod(ctx, in.Tenant)
	if err != nil {
		return nil, err
	}
	phase := string(pod.Status.Phase)
	return &StatusOutput{
		Namespace: ns,
		Pod:       pod.Name,
		Phase:     phase,
		Finished:  strings.EqualFold(phase, string(corev1.PodRunning)),
	}, nil
}

// HealthInput identifies the tenant to probe.
type HealthInput struct {
	Tenant model.Tenant
}

// Health combines the container state with the best known connectivity. It never fails
// on cluster errors; an unreadable pod yields unknown container state and no connectivity.
// A running pod implies an answering service. For a pod in unknown phase the service
// host is probed at the network layer.
func (u *UseCase) Health(ctx context.Context, in *HealthInput) (*model.ProjectHealth, error) {
	if in == nil {
		return nil, fmt.Errorf("HealthInput is required")
	}
	h := &model.ProjectHealth{Container: model.ContainerUnknown, Connectivity: model.ConnectivityNone}
	ns, pod, err := u.firstPod(ctx, in.Tenant)
	if err != nil {
		if errors.Is(err, model.ErrNaming) {
			return nil, err
		}
		logging.FromContext(ctx).Warn(ctx, "Project:Health/pod", "tenant", in.Tenant.String(), "err", err)
		return h, nil
	}

	switch phase := strings.ToLower(string(pod.Status.Phase)); phase {
	case "":
	case "running":
		h.Container = model.ContainerRunning
		h.Connectivity = model.ConnectivityLayer5
	case "unknown":
		if u.Cluster.PingHost(ctx, naming.ServiceHostname(ns, pod.Labels[resources.LabelAppSelector])) {
			h.Connectivity = model.ConnectivityLayer3
		}
	default:
		h.Container = model.ContainerStopped
	}
	return h, nil
}

func (u *UseCase) firstPod(ctx context.Context, tenant model.Tenant) (string, *corev1.Pod, error) {
	if u == nil || u.Cluster == nil {
		return "", nil, fmt.Errorf("project use case is not initialized")
	}
	ns, err := naming.TenantNamespace(tenant)
	if err != nil {
		return "", nil, err
	}
	pods, err := u.Cluster.ListPods(ctx, ns)
	if err != nil {
		return ns, nil, fmt.Errorf("list pods %s: %w", ns, err)
	}
	if len(pods) == 0 {
		return ns, nil, fmt.Errorf("no pod in namespace %s: %w", ns, &model.ClusterAPIError{Kind: model.ClusterErrorNotFound, Op: "list pods " + ns})
	}
	return ns, &pods[0], nil
}
