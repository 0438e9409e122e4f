// Package lcmcfg defines the configuration schema of the lcm-engine (lcm-engine.yml)
// together with loading, environment overrides and validation.
package lcmcfg

// Root is the root structure of lcm-engine.yml.
type Root struct {
	Version string  `yaml:"version"`
	Cluster Cluster `yaml:"cluster"`
	Routing Routing `yaml:"routing"`
	Service Service `yaml:"service"`
	Store   Store   `yaml:"store"`
	// Kinds maps a project kind (e.g. "tosca") to the workload deployed for it.
	Kinds map[string]Kind `yaml:"kinds"`
}

// Cluster selects how the Kubernetes API is reached.
type Cluster struct {
	// Runtime is "local" (kubeconfig) or "k8s" (in-cluster service account).
	Runtime    string `yaml:"runtime"`
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
	Context    string `yaml:"context,omitempty"`
	// ControlNamespace holds the platform ingress route, middlewares and shared secrets.
	ControlNamespace string `yaml:"controlNamespace"`
}

// Routing configures the Traefik objects of every tenant.
type Routing struct {
	TraefikGroup string `yaml:"traefikGroup"`
	// PlatformRoute is the ingress route inherited by tenants.
	PlatformRoute string `yaml:"platformRoute"`
	// Hostname overrides the host inherited from the platform route.
	Hostname string `yaml:"hostname,omitempty"`
	// CertificateSecretName overrides the inherited TLS block and switches to the websecure entrypoint.
	CertificateSecretName string `yaml:"certificateSecretName,omitempty"`
	Priority              int    `yaml:"priority"`
}

// Service configures the tenant workload and service.
type Service struct {
	Port      int    `yaml:"port"`
	InitImage string `yaml:"initImage"`
	// MaxPackageBytes bounds the deployment package stored in a config map.
	MaxPackageBytes int `yaml:"maxPackageBytes"`
}

// Store configures the deployment record database.
type Store struct {
	URL string `yaml:"url"`
}

// Kind is the workload profile of a project kind.
type Kind struct {
	Image           string            `yaml:"image"`
	Port            int               `yaml:"port"`
	WorkDir         string            `yaml:"workDir"`
	Env             map[string]string `yaml:"env,omitempty"`
	ImagePullSecret string            `yaml:"imagePullSecret,omitempty"`
	Paths           []string          `yaml:"paths"`
}
