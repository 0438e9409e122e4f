package naming

// Package naming provides the deterministic names used for tenant resources:
// namespaces, secret keys, volume names and service hostnames. Keeping the
// logic here allows changes (length/algorithm) without touching call sites.

import (
	"encoding/hex"
	"fmt"
	"path"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/xlab-si/lcm-engine/domain/model"
)

const (
	// NamespacePrefix is shared by every tenant namespace.
	NamespacePrefix = "lcm-service"

	// defaultLength defines the hex length of hashes (bits ~ length * 4).
	defaultLength = 6

	// placeholder replaces empty identifiers.
	placeholder = "unnamed"

	// secretKeyPrefix starts every secret key name.
	secretKeyPrefix = "path-"
)

// ShortHash returns the hex SHA3-512 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha3.Sum512([]byte(s))
	h := hex.EncodeToString(sum[:])
	if n < 0 {
		n = 0
	}
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// NamespaceName returns the namespace owning all resources of one workspace project.
//
//	lcm-service-w<workspaceID>-p<projectID>
func NamespaceName(workspaceID, projectID int) (string, error) {
	if workspaceID < 0 || projectID < 0 {
		return "", fmt.Errorf("%w: negative id in workspace %d project %d", model.ErrNaming, workspaceID, projectID)
	}
	name := fmt.Sprintf("%s-w%d-p%d", NamespacePrefix, workspaceID, projectID)
	if err := validateDNS1123Label(name, dns1123LabelMaxLength, "namespace"); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrNaming, err)
	}
	return name, nil
}

// TenantNamespace is NamespaceName for a model.Tenant.
func TenantNamespace(t model.Tenant) (string, error) {
	return NamespaceName(t.WorkspaceID, t.ProjectID)
}

// TenantPathPrefix returns the URL path prefix every tenant route lives under.
func TenantPathPrefix(workspaceID, projectID int) string {
	return fmt.Sprintf("/workspace/%d/project/%d", workspaceID, projectID)
}

// ServiceHostname returns the cluster-internal DNS name of a service.
func ServiceHostname(namespace, service string) string {
	return fmt.Sprintf("%s.%s.svc.cluster.local", service, namespace)
}

// SanitizeIdentifier converts an arbitrary name into something accepted by the
// resource name grammar [a-z0-9]([-a-z0-9]*[a-z0-9])?.
//
// A leading invalid character is replaced by prefix, interior invalid
// characters become '-', and an invalid trailing character becomes '-'
// followed by the length of the input so the result stays non-empty and
// deterministic.
func SanitizeIdentifier(name, prefix string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		s = placeholder
	}
	r := []rune(s)

	var b strings.Builder
	if isAlnum(r[0]) {
		b.WriteRune(r[0])
	} else {
		b.WriteString(prefix)
	}
	if len(r) == 1 {
		out := b.String()
		if out == "" || !isAlnum(rune(out[len(out)-1])) {
			out += "1"
		}
		return out
	}
	for _, c := range r[1 : len(r)-1] {
		if isAlnum(c) || c == '-' {
			b.WriteRune(c)
		} else {
			b.WriteByte('-')
		}
	}
	if last := r[len(r)-1]; isAlnum(last) {
		b.WriteRune(last)
	} else {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(len(r)))
	}
	return b.String()
}

// SecretKeyName returns the data key (and volume name) used for a file secret
// mounted at fullPath, e.g. "path-config-yaml-60dff4" for /etc/app/config.yaml.
// The hash covers the full path, so files sharing a basename get distinct keys.
func SecretKeyName(fullPath string) string {
	return SecretKeyNameN(fullPath, defaultLength)
}

// SecretKeyNameN is SecretKeyName with an explicit hash length.
func SecretKeyNameN(fullPath string, hashLength int) string {
	hash := ShortHash(fullPath, hashLength)
	base := secretKeyPrefix + SanitizeIdentifier(path.Base(fullPath), "")
	if limit := dns1123LabelMaxLength - len(hash) - 1; len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	if hash == "" {
		return base
	}
	return base + "-" + hash
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
