package resources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

const (
	EntryPointWeb       = "web"
	EntryPointWebSecure = "websecure"

	RouteKindRule = "Rule"

	// PathParamPattern restricts a templated path segment so it can never span a separator.
	PathParamPattern = `[:;.+a-zA-Z0-9-]+`
)

var (
	hostMatchRe = regexp.MustCompile("Host\\s*[(]\\s*`(?P<host>[^`]+)`\\s*[)]")
	pathSepRe   = regexp.MustCompile(`/+`)
)

// RoutingOverrides take precedence over what is inherited from the platform route.
type RoutingOverrides struct {
	Hostname              string
	CertificateSecretName string
}

// RoutingResolver merges tenant routing with the platform's own ingress route.
type RoutingResolver struct {
	Client ClusterClient
	// Group is the Traefik API group, DefaultTraefikGroup when empty.
	Group string
	// ControlNamespace holds the platform route, its middlewares and their secrets.
	ControlNamespace string
	// PlatformRoute is the name of the platform ingress route.
	PlatformRoute string
	Overrides     RoutingOverrides
}

// RouteTarget describes the tenant service being exposed.
type RouteTarget struct {
	Namespace   string
	WorkspaceID int
	ProjectID   int
	ServiceName string
	ServicePort int
	// Paths are templates relative to the tenant prefix, e.g. "/items/{id}".
	Paths    []string
	Priority int
	// StripMiddleware is appended after the inherited middlewares.
	StripMiddleware string
}

// Resolution is the outcome of RoutingResolver.Resolve.
type Resolution struct {
	Spec     IngressRouteSpec
	Hostname string
	// Warnings lists inheritance problems that were degraded instead of failing.
	Warnings []model.RoutingWarning
}

func (r *Resolution) warn(ctx context.Context, msg string, err error) {
	w := model.RoutingWarning{Message: msg, Err: err}
	r.Warnings = append(r.Warnings, w)
	logging.FromContext(ctx).Warn(ctx, "Routing:Resolve/warn", "warning", w.String())
}

// Resolve computes the ingress route spec for t. Failures to read or re-home
// platform routing are recorded as warnings and never abort the resolution.
// Inherited middlewares (and their basic auth secrets) are created in t.Namespace.
func (rr *RoutingResolver) Resolve(ctx context.Context, t RouteTarget) (*Resolution, error) {
	if rr == nil || rr.Client == nil {
		return nil, fmt.Errorf("routing resolver is not initialized")
	}
	if t.Namespace == "" || t.ServiceName == "" {
		return nil, fmt.Errorf("%w: route target requires namespace and service name", model.ErrInvalidDeployment)
	}

	res := &Resolution{}
	platform := rr.platformRoute(ctx, res)

	res.Hostname = rr.Overrides.Hostname
	if res.Hostname == "" {
		if h, ok := firstRouteHost(platform); ok {
			res.Hostname = h
		} else if len(platform.Routes) > 0 {
			res.warn(ctx, "no hostname in first platform route match", nil)
		}
	}

	switch {
	case rr.Overrides.CertificateSecretName != "":
		res.Spec.EntryPoints = []string{EntryPointWebSecure}
	case len(platform.EntryPoints) > 0:
		res.Spec.EntryPoints = append([]string(nil), platform.EntryPoints...)
	default:
		res.Spec.EntryPoints = []string{EntryPointWeb}
	}

	switch {
	case rr.Overrides.CertificateSecretName != "":
		res.Spec.TLS = SecretTLS(rr.Overrides.CertificateSecretName)
	case len(platform.TLS) > 0:
		res.Spec.TLS = runtime.DeepCopyJSON(platform.TLS)
	}

	middlewares := rr.inheritMiddlewares(ctx, t.Namespace, platform, res)
	if t.StripMiddleware != "" {
		middlewares = append(middlewares, MiddlewareRef{Name: t.StripMiddleware})
	}

	res.Spec.Routes = buildRoutes(t, res.Hostname, middlewares)
	return res, nil
}

// StaticRouteSpec computes the ingress route spec for t from overrides alone,
// without reading platform routing. Only the strip middleware is attached.
func StaticRouteSpec(t RouteTarget, o RoutingOverrides) IngressRouteSpec {
	spec := IngressRouteSpec{EntryPoints: []string{EntryPointWeb}}
	if o.CertificateSecretName != "" {
		spec.EntryPoints = []string{EntryPointWebSecure}
		spec.TLS = SecretTLS(o.CertificateSecretName)
	}
	var middlewares []MiddlewareRef
	if t.StripMiddleware != "" {
		middlewares = []MiddlewareRef{{Name: t.StripMiddleware}}
	}
	spec.Routes = buildRoutes(t, o.Hostname, middlewares)
	return spec
}

func buildRoutes(t RouteTarget, host string, middlewares []MiddlewareRef) []Route {
	priority := t.Priority
	if priority == 0 {
		priority = DefaultRoutePriority
	}
	prefix := naming.TenantPathPrefix(t.WorkspaceID, t.ProjectID)
	var routes []Route
	for _, p := range t.Paths {
		route := Route{
			Kind:     RouteKindRule,
			Match:    MatchRule(host, RewritePath(prefix, p)),
			Priority: priority,
			Services: []RouteService{{
				Name: t.ServiceName,
				Port: ptr.To(intstr.FromInt32(int32(t.ServicePort))),
			}},
		}
		if len(middlewares) > 0 {
			route.Middlewares = append([]MiddlewareRef(nil), middlewares...)
		}
		routes = append(routes, route)
	}
	return routes
}

// platformRoute returns the platform ingress route spec or an empty one when unavailable.
func (rr *RoutingResolver) platformRoute(ctx context.Context, res *Resolution) *IngressRouteSpec {
	obj, err := rr.Client.GetCustomObject(ctx, IngressRouteGVR(rr.Group), rr.ControlNamespace, rr.PlatformRoute)
	if err != nil {
		res.warn(ctx, fmt.Sprintf("cannot get platform ingress route %s/%s", rr.ControlNamespace, rr.PlatformRoute), err)
		return &IngressRouteSpec{}
	}
	spec, err := ParseIngressRouteSpec(obj)
	if err != nil {
		res.warn(ctx, "cannot decode platform ingress route", err)
		return &IngressRouteSpec{}
	}
	return spec
}

// inheritMiddlewares re-creates the middlewares of the first platform route in
// namespace. Any failure drops the whole inherited chain.
func (rr *RoutingResolver) inheritMiddlewares(ctx context.Context, namespace string, platform *IngressRouteSpec, res *Resolution) []MiddlewareRef {
	if len(platform.Routes) == 0 || len(platform.Routes[0].Middlewares) == 0 {
		return nil
	}
	var refs []MiddlewareRef
	for _, ref := range platform.Routes[0].Middlewares {
		if err := rr.rehomeMiddleware(ctx, namespace, ref); err != nil {
			res.warn(ctx, "dropping inherited middlewares", err)
			return nil
		}
		refs = append(refs, MiddlewareRef{Name: ref.Name})
	}
	return refs
}

func (rr *RoutingResolver) rehomeMiddleware(ctx context.Context, namespace string, ref MiddlewareRef) error {
	source := rr.ControlNamespace
	if ref.Namespace != "" {
		source = ref.Namespace
	}
	gvr := MiddlewareGVR(rr.Group)
	mw, err := rr.Client.GetCustomObject(ctx, gvr, source, ref.Name)
	if err != nil {
		return fmt.Errorf("get middleware %s/%s: %w", source, ref.Name, err)
	}
	spec, _, err := unstructured.NestedMap(mw.Object, "spec")
	if err != nil {
		return fmt.Errorf("read middleware %s/%s: %w", source, ref.Name, err)
	}
	if spec == nil {
		return fmt.Errorf("middleware %s/%s has no spec", source, ref.Name)
	}
	if secret, found, _ := unstructured.NestedString(spec, "basicAuth", "secret"); found && secret != "" {
		if _, err := CopySecret(ctx, rr.Client, source, secret, namespace); err != nil {
			return err
		}
	}
	return SubmitCustomObject(ctx, rr.Client, gvr, BuildMiddleware(rr.Group, namespace, ref.Name, spec))
}

func firstRouteHost(spec *IngressRouteSpec) (string, bool) {
	if len(spec.Routes) == 0 {
		return "", false
	}
	return HostFromMatch(spec.Routes[0].Match)
}

// HostFromMatch extracts the first Host(`...`) value of a Traefik match expression.
func HostFromMatch(match string) (string, bool) {
	m := hostMatchRe.FindStringSubmatch(match)
	if m == nil {
		return "", false
	}
	h := strings.TrimSpace(m[hostMatchRe.SubexpIndex("host")])
	return h, h != ""
}

// RewritePath joins prefix and template, collapses repeated separators and
// turns every {name} segment into a typed capture group.
func RewritePath(prefix, template string) string {
	p := pathSepRe.ReplaceAllString(prefix+"/"+template, "/")
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if !strings.HasPrefix(part, "{") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
		if strings.Contains(name, ":") {
			continue
		}
		parts[i] = "{" + name + ":" + PathParamPattern + "}"
	}
	return strings.Join(parts, "/")
}

// MatchRule returns the Traefik match expression for host and path; the host
// clause is omitted when host is empty.
func MatchRule(host, path string) string {
	if host == "" {
		return fmt.Sprintf("Path(`%s`)", path)
	}
	return fmt.Sprintf("Host(`%s`) && Path(`%s`)", host, path)
}
