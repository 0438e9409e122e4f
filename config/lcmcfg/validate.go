package lcmcfg

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// Validate reports every problem of the configuration at once.
func (r *Root) Validate() error {
	var errs []error
	if r.Cluster.Runtime != RuntimeLocal && r.Cluster.Runtime != RuntimeK8s {
		errs = append(errs, fmt.Errorf("cluster.runtime must be %q or %q, got %q", RuntimeLocal, RuntimeK8s, r.Cluster.Runtime))
	}
	if msgs := utilvalidation.IsDNS1123Label(r.Cluster.ControlNamespace); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("cluster.controlNamespace: %s", strings.Join(msgs, ", ")))
	}
	if r.Routing.PlatformRoute == "" {
		errs = append(errs, errors.New("routing.platformRoute must not be empty"))
	}
	if r.Routing.TraefikGroup == "" {
		errs = append(errs, errors.New("routing.traefikGroup must not be empty"))
	}
	if r.Routing.Priority < 0 {
		errs = append(errs, fmt.Errorf("routing.priority must not be negative, got %d", r.Routing.Priority))
	}
	if msgs := utilvalidation.IsValidPortNum(r.Service.Port); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("service.port: %s", strings.Join(msgs, ", ")))
	}
	if r.Service.InitImage == "" {
		errs = append(errs, errors.New("service.initImage must not be empty"))
	}
	if r.Service.MaxPackageBytes <= 0 || r.Service.MaxPackageBytes > defaultMaxPackageBytes {
		errs = append(errs, fmt.Errorf("service.maxPackageBytes must be in (0, %d], got %d", defaultMaxPackageBytes, r.Service.MaxPackageBytes))
	}
	if len(r.Kinds) == 0 {
		errs = append(errs, errors.New("kinds must not be empty"))
	}

	names := make([]string, 0, len(r.Kinds))
	for name := range r.Kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		k := r.Kinds[name]
		if msgs := utilvalidation.IsDNS1123Label(name); len(msgs) > 0 {
			errs = append(errs, fmt.Errorf("kinds.%s: name %s", name, strings.Join(msgs, ", ")))
		}
		if k.Image == "" {
			errs = append(errs, fmt.Errorf("kinds.%s.image must not be empty", name))
		}
		if msgs := utilvalidation.IsValidPortNum(k.Port); len(msgs) > 0 {
			errs = append(errs, fmt.Errorf("kinds.%s.port: %s", name, strings.Join(msgs, ", ")))
		}
		if !strings.HasPrefix(k.WorkDir, "/") {
			errs = append(errs, fmt.Errorf("kinds.%s.workDir must be absolute, got %q", name, k.WorkDir))
		}
		if len(k.Paths) == 0 {
			errs = append(errs, fmt.Errorf("kinds.%s.paths must not be empty", name))
		}
	}
	return errors.Join(errs...)
}
