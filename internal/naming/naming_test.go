package naming

import (
	"errors"
	"strings"
	"testing"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"

	"github.com/xlab-si/lcm-engine/domain/model"
)

func TestNamespaceName(t *testing.T) {
	got, err := NamespaceName(1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "lcm-service-w1-p2" {
		t.Fatalf("unexpected namespace: %s", got)
	}
	again, _ := NamespaceName(1, 2)
	if got != again {
		t.Fatalf("namespace not stable: %s vs %s", got, again)
	}
}

func TestNamespaceNameInjective(t *testing.T) {
	seen := map[string][2]int{}
	for w := 0; w < 30; w++ {
		for p := 0; p < 30; p++ {
			ns, err := NamespaceName(w, p)
			if err != nil {
				t.Fatalf("NamespaceName(%d,%d): %v", w, p, err)
			}
			if prev, ok := seen[ns]; ok {
				t.Fatalf("collision %s for %v and %v", ns, prev, [2]int{w, p})
			}
			seen[ns] = [2]int{w, p}
		}
	}
	// 1/12 vs 11/2 would collide without the w/p markers
	a, _ := NamespaceName(1, 12)
	b, _ := NamespaceName(11, 2)
	if a == b {
		t.Fatalf("ambiguous namespace %s", a)
	}
}

func TestNamespaceNameErrors(t *testing.T) {
	if _, err := NamespaceName(-1, 2); !errors.Is(err, model.ErrNaming) {
		t.Fatalf("expected ErrNaming, got %v", err)
	}
	if _, err := NamespaceName(1, -2); !errors.Is(err, model.ErrNaming) {
		t.Fatalf("expected ErrNaming, got %v", err)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	cases := []struct {
		in, prefix, want string
	}{
		{"My Name!", "x-", "my-name-8"},
		{"config.yaml", "path-", "config-yaml"},
		{".env", "path-", "path-env"},
		{"Valid-Name", "x-", "valid-name"},
		{"id_rsa", "path-", "id-rsa"},
		{"a", "x-", "a"},
		{"!", "x-", "x-1"},
		{"!", "", "1"},
		{"", "x-", "unnamed"},
		{"   ", "x-", "unnamed"},
		{"  Trim me  ", "x-", "trim-me"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := SanitizeIdentifier(tc.in, tc.prefix)
			if got != tc.want {
				t.Fatalf("SanitizeIdentifier(%q, %q) = %q, want %q", tc.in, tc.prefix, got, tc.want)
			}
			if errs := utilvalidation.IsDNS1123Label(got); len(errs) > 0 {
				t.Fatalf("result %q is not a DNS-1123 label: %v", got, errs)
			}
		})
	}
}

func TestSecretKeyName(t *testing.T) {
	a := SecretKeyName("/etc/app/config.yaml")
	b := SecretKeyName("/opt/other/config.yaml")
	if a == b {
		t.Fatalf("same basename in different directories must not collide: %s", a)
	}
	if a != SecretKeyName("/etc/app/config.yaml") {
		t.Fatalf("secret key name not stable")
	}
	if want := "path-config-yaml-" + ShortHash("/etc/app/config.yaml", 6); a != want {
		t.Fatalf("SecretKeyName = %q, want %q", a, want)
	}

	cases := []struct {
		path, base string
	}{
		{"/root/.ssh/id_rsa", "path-id-rsa-"},
		{"/app/.env", "path-env-"},
		{"/data/Key.PEM", "path-key-pem-"},
		{"/", "path-1-"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got := SecretKeyName(tc.path)
			if want := tc.base + ShortHash(tc.path, 6); got != want {
				t.Fatalf("SecretKeyName(%q) = %q, want %q", tc.path, got, want)
			}
			if errs := utilvalidation.IsDNS1123Label(got); len(errs) > 0 {
				t.Fatalf("key %q is not a DNS-1123 label: %v", got, errs)
			}
		})
	}
}

func TestSecretKeyNameLength(t *testing.T) {
	long := "/data/" + strings.Repeat("x", 120) + ".pem"
	got := SecretKeyName(long)
	if len(got) > 63 {
		t.Fatalf("key too long: %d", len(got))
	}
	if errs := utilvalidation.IsDNS1123Label(got); len(errs) > 0 {
		t.Fatalf("key %q is not a DNS-1123 label: %v", got, errs)
	}
	if !strings.HasPrefix(got, "path-xxx") {
		t.Fatalf("truncated key lost its prefix: %s", got)
	}
	if got := SecretKeyNameN("/a/b.txt", 10); len(got) != len("path-b-txt-")+10 {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestShortHash(t *testing.T) {
	if got := ShortHash("abc", 6); len(got) != 6 {
		t.Fatalf("expected hash length 6, got %d", len(got))
	}
	if got := ShortHash("abc", 1000); len(got) != 128 {
		t.Fatalf("expected clamped length 128, got %d", len(got))
	}
	// SHA3-512("abc")
	if got := ShortHash("abc", 8); got != "b751850b" {
		t.Fatalf("unexpected digest prefix %s", got)
	}
}

func TestServiceHostnameAndPrefix(t *testing.T) {
	if got := ServiceHostname("lcm-service-w1-p2", "tosca"); got != "tosca.lcm-service-w1-p2.svc.cluster.local" {
		t.Fatalf("unexpected hostname %s", got)
	}
	if got := TenantPathPrefix(3, 4); got != "/workspace/3/project/4" {
		t.Fatalf("unexpected prefix %s", got)
	}
}
