package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

const dns1123LabelMaxLength = utilvalidation.DNS1123LabelMaxLength

func validateDNS1123Label(name string, maximum int, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if len(name) > maximum {
		return fmt.Errorf("%s name exceeds %d characters", labelKind, maximum)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name: %s", labelKind, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateResourceName checks a deployment name used for the Deployment,
// Service, ConfigMap and route objects.
func ValidateResourceName(name string) error {
	return validateDNS1123Label(name, dns1123LabelMaxLength, "resource")
}
