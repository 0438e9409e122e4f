package lcmcfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings.
const (
	EnvHostname              = "LCM_ENGINE_HOSTNAME"
	EnvCertificateSecretName = "LCM_ENGINE_CERTIFICATE_SECRET_NAME"
	EnvKubeconfigPath        = "LCM_ENGINE_KUBE_CONFIG_PATH"
	EnvKubeconfigContext     = "LCM_ENGINE_KUBE_CONFIG_CONTEXT"
	EnvRuntime               = "RUNTIME_ENVIRONMENT"
	EnvDBURL                 = "LCM_ENGINE_DB_URL"
	EnvControlNamespace      = "LCM_ENGINE_CONTROL_NAMESPACE"
)

// Load reads path (when not empty) over the defaults and applies environment overrides.
// It performs no validation; call Validate on the result.
func Load(path string) (*Root, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadBytes decodes data over the defaults without consulting the environment.
func LoadBytes(data []byte) (*Root, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Root) error {
	// kinds given in the file replace the built-in catalog entry by entry
	defaults := cfg.Kinds
	cfg.Kinds = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if cfg.Kinds == nil {
		cfg.Kinds = map[string]Kind{}
	}
	for name, k := range defaults {
		if _, ok := cfg.Kinds[name]; !ok {
			cfg.Kinds[name] = k
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup.
func (r *Root) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvHostname, &r.Routing.Hostname)
	set(EnvCertificateSecretName, &r.Routing.CertificateSecretName)
	set(EnvKubeconfigPath, &r.Cluster.Kubeconfig)
	set(EnvKubeconfigContext, &r.Cluster.Context)
	set(EnvDBURL, &r.Store.URL)
	set(EnvControlNamespace, &r.Cluster.ControlNamespace)
	if v, ok := lookup(EnvRuntime); ok && v != "" {
		r.Cluster.Runtime = normalizeRuntime(v)
	}
}

func normalizeRuntime(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "k8s", "kubernetes":
		return RuntimeK8s
	case "local":
		return RuntimeLocal
	default:
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// Kind returns the profile of a project kind.
func (r *Root) Kind(name string) (Kind, bool) {
	k, ok := r.Kinds[name]
	return k, ok
}
