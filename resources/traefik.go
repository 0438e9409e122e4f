package resources

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	DefaultTraefikGroup = "traefik.containo.us"
	TraefikVersion      = "v1alpha1"

	KindMiddleware   = "Middleware"
	KindIngressRoute = "IngressRoute"
)

// MiddlewareGVR returns the resource of Traefik middlewares in group.
func MiddlewareGVR(group string) schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: traefikGroup(group), Version: TraefikVersion, Resource: "middlewares"}
}

// IngressRouteGVR returns the resource of Traefik ingress routes in group.
func IngressRouteGVR(group string) schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: traefikGroup(group), Version: TraefikVersion, Resource: "ingressroutes"}
}

func traefikGroup(group string) string {
	if group == "" {
		return DefaultTraefikGroup
	}
	return group
}

// IngressRouteSpec is the spec of a Traefik IngressRoute.
type IngressRouteSpec struct {
	EntryPoints []string `json:"entryPoints,omitempty"`
	Routes      []Route  `json:"routes"`
	TLS         TLS      `json:"tls,omitempty"`
}

// Route is one routing rule. Middlewares are applied in order.
type Route struct {
	Kind        string          `json:"kind"`
	Match       string          `json:"match"`
	Priority    int             `json:"priority,omitempty"`
	Services    []RouteService  `json:"services,omitempty"`
	Middlewares []MiddlewareRef `json:"middlewares,omitempty"`
}

type RouteService struct {
	Name      string              `json:"name"`
	Namespace string              `json:"namespace,omitempty"`
	Port      *intstr.IntOrString `json:"port,omitempty"`
}

type MiddlewareRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// TLS is the tls block of an ingress route. It is kept as a raw JSON object so
// that fields such as options or store survive inheritance unchanged.
type TLS map[string]any

// SecretTLS returns a tls block serving the certificate of secret name.
func SecretTLS(name string) TLS {
	return TLS{"secretName": name}
}

// SecretName returns the certificate secret of the block, if any.
func (t TLS) SecretName() string {
	s, _ := t["secretName"].(string)
	return s
}

// BuildStripPrefixMiddleware returns a middleware removing prefixes before forwarding.
func BuildStripPrefixMiddleware(group, namespace, name string, prefixes ...string) *unstructured.Unstructured {
	p := make([]any, 0, len(prefixes))
	for _, s := range prefixes {
		p = append(p, s)
	}
	return BuildMiddleware(group, namespace, name, map[string]any{
		"stripPrefix": map[string]any{"prefixes": p},
	})
}

// BuildMiddleware returns a middleware object with an arbitrary spec.
// spec must only contain JSON compatible values (map[string]any, []any, string, int64, float64, bool).
func BuildMiddleware(group, namespace, name string, spec map[string]any) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]any{"spec": spec}}
	u.SetAPIVersion(traefikGroup(group) + "/" + TraefikVersion)
	u.SetKind(KindMiddleware)
	u.SetName(name)
	u.SetNamespace(namespace)
	return u
}

// BuildIngressRoute returns an ingress route object for spec.
func BuildIngressRoute(group, namespace, name string, spec IngressRouteSpec) (*unstructured.Unstructured, error) {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&spec)
	if err != nil {
		return nil, fmt.Errorf("convert ingress route spec: %w", err)
	}
	u := &unstructured.Unstructured{Object: map[string]any{"spec": m}}
	u.SetAPIVersion(traefikGroup(group) + "/" + TraefikVersion)
	u.SetKind(KindIngressRoute)
	u.SetName(name)
	u.SetNamespace(namespace)
	u.SetLabels(map[string]string{LabelAppK8sManagedBy: ManagedBy})
	return u, nil
}

// ParseIngressRouteSpec decodes the spec of an ingress route object.
func ParseIngressRouteSpec(obj *unstructured.Unstructured) (*IngressRouteSpec, error) {
	m, found, err := unstructured.NestedMap(obj.Object, "spec")
	if err != nil {
		return nil, fmt.Errorf("read spec of %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
	}
	spec := &IngressRouteSpec{}
	if !found {
		return spec, nil
	}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(m, spec); err != nil {
		return nil, fmt.Errorf("decode spec of %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
	}
	return spec, nil
}

// SubmitCustomObject creates obj as resource gvr, accepting an existing one.
func SubmitCustomObject(ctx context.Context, c ClusterClient, gvr schema.GroupVersionResource, obj *unstructured.Unstructured) error {
	if err := acceptConflict(c.CreateCustomObject(ctx, gvr, obj.GetNamespace(), obj)); err != nil {
		return fmt.Errorf("create %s %s/%s: %w", gvr.Resource, obj.GetNamespace(), obj.GetName(), err)
	}
	return nil
}
