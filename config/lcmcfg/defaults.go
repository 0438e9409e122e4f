package lcmcfg

const (
	RuntimeLocal = "local"
	RuntimeK8s   = "k8s"

	KindTOSCA     = "tosca"
	KindTerraform = "terraform"

	defaultControlNamespace = "lcm-engine"
	defaultPlatformRoute    = "lcm-engine"
	defaultTraefikGroup     = "traefik.containo.us"
	defaultServicePort      = 9999
	defaultPriority         = 5
	defaultInitImage        = "public.ecr.aws/docker/library/busybox"
	defaultMaxPackageBytes  = 1 << 20
	defaultStoreURL         = "sqlite:lcm-engine.db"
)

var toscaPaths = []string{
	"/info",
	"/validate",
	"/deploy",
	"/undeploy",
	"/status",
	"/outputs",
	"/diff",
	"/update",
	"/notify",
}

var terraformPaths = []string{
	"/init",
	"/validate",
	"/plan",
	"/apply",
	"/destroy",
	"/fmt",
	"/force-unlock",
	"/get",
	"/graph",
	"/import",
	"/output",
	"/providers/schema",
	"/providers/lock",
	"/show",
	"/state/rm",
	"/state/mv",
	"/untaint",
	"/version",
	"/workspace/show",
	"/workspace/list",
	"/workspace/select",
	"/workspace/new",
	"/workspace/delete",
}

// Default returns the configuration used when no file is given.
func Default() *Root {
	return &Root{
		Version: "v1",
		Cluster: Cluster{
			Runtime:          RuntimeLocal,
			ControlNamespace: defaultControlNamespace,
		},
		Routing: Routing{
			TraefikGroup:  defaultTraefikGroup,
			PlatformRoute: defaultPlatformRoute,
			Priority:      defaultPriority,
		},
		Service: Service{
			Port:            defaultServicePort,
			InitImage:       defaultInitImage,
			MaxPackageBytes: defaultMaxPackageBytes,
		},
		Store: Store{URL: defaultStoreURL},
		Kinds: map[string]Kind{
			KindTOSCA: {
				Image:   "ghcr.io/xlab-si/xopera-api:0.5.4",
				Port:    8080,
				WorkDir: "/opera/csar",
				Env:     map[string]string{"PYTHONPATH": "/app"},
				Paths:   append([]string(nil), toscaPaths...),
			},
			KindTerraform: {
				Image:           "registry.gitlab.com/gaia-x/data-infrastructure-federation-services/orc/lcm-service/terraform-lcm-service-api:v0.2.1",
				Port:            8080,
				WorkDir:         "/terraform-api",
				ImagePullSecret: "docker-registry",
				Paths:           append([]string(nil), terraformPaths...),
			},
		},
	}
}
