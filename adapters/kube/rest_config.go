package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

const (
	RuntimeLocal = "local"
	RuntimeK8s   = "k8s"
)

// ConfigSource selects where the REST config is loaded from.
type ConfigSource struct {
	// Runtime is "k8s" (or "kubernetes") for in-cluster configuration, anything else loads a kubeconfig.
	Runtime string
	// Kubeconfig path; defaults to $KUBECONFIG or ~/.kube/config.
	Kubeconfig string
	// Context overrides the kubeconfig current context.
	Context string
}

// ResolveKubeconfigPath expands ~ and applies the $KUBECONFIG and ~/.kube/config defaults.
func ResolveKubeconfigPath(path string) string {
	if path == "" {
		if env := os.Getenv("KUBECONFIG"); env != "" {
			return env
		}
		if home, _ := os.UserHomeDir(); home != "" {
			return filepath.Join(home, ".kube", "config")
		}
		return ""
	}
	if path[0] == '~' {
		if home, _ := os.UserHomeDir(); home != "" {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// LoadRESTConfig builds a rest.Config from src. A local runtime whose kubeconfig
// file does not exist falls back to the in-cluster configuration.
func LoadRESTConfig(src ConfigSource) (*rest.Config, error) {
	if src.Runtime == RuntimeK8s || src.Runtime == "kubernetes" {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("in-cluster config: %w", err)
		}
		return cfg, nil
	}

	kubeconfig := ResolveKubeconfigPath(src.Kubeconfig)
	if fi, errStat := os.Stat(kubeconfig); errStat == nil && !fi.IsDir() {
		loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig}
		overrides := &clientcmd.ConfigOverrides{ClusterInfo: api.Cluster{}}
		if src.Context != "" {
			overrides.CurrentContext = src.Context
		}
		cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
		cfg, err := cc.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("build rest config from kubeconfig: %w", err)
		}
		return cfg, nil
	}

	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("could not find kubeconfig at %q and in-cluster config failed: %w", kubeconfig, err)
	}
	return cfg, nil
}
