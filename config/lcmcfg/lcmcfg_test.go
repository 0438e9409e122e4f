package lcmcfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Service.Port != 9999 || cfg.Routing.Priority != 5 {
		t.Fatalf("unexpected defaults: port=%d priority=%d", cfg.Service.Port, cfg.Routing.Priority)
	}
	for _, name := range []string{KindTOSCA, KindTerraform} {
		if _, ok := cfg.Kind(name); !ok {
			t.Fatalf("kind %q missing from defaults", name)
		}
	}
}

func TestDefault_Independent(t *testing.T) {
	a := Default()
	a.Kinds[KindTOSCA].Env["PYTHONPATH"] = "/changed"
	b := Default()
	if got := b.Kinds[KindTOSCA].Env["PYTHONPATH"]; got != "/app" {
		t.Fatalf("defaults share state: PYTHONPATH=%q", got)
	}
}

func TestLoadBytes(t *testing.T) {
	data := []byte(`
version: v1
cluster:
  runtime: k8s
  controlNamespace: platform
routing:
  hostname: lcm.example.com
  priority: 10
kinds:
  tosca:
    image: example.com/opera:1
    port: 8000
    workDir: /work
    paths: ["/deploy"]
`)
	cfg, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Cluster.Runtime != RuntimeK8s || cfg.Cluster.ControlNamespace != "platform" {
		t.Fatalf("cluster not decoded: %+v", cfg.Cluster)
	}
	// unset fields keep their defaults
	if cfg.Routing.PlatformRoute != defaultPlatformRoute || cfg.Service.Port != defaultServicePort {
		t.Fatalf("defaults lost: %+v %+v", cfg.Routing, cfg.Service)
	}
	want := Kind{Image: "example.com/opera:1", Port: 8000, WorkDir: "/work", Paths: []string{"/deploy"}}
	if diff := cmp.Diff(want, cfg.Kinds[KindTOSCA]); diff != "" {
		t.Fatalf("tosca kind mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cfg.Kinds[KindTerraform]; !ok {
		t.Fatalf("terraform kind dropped")
	}
}

func TestLoadBytes_InvalidYAML(t *testing.T) {
	if _, err := LoadBytes([]byte("cluster: [")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcm-engine.yml")
	if err := os.WriteFile(path, []byte("routing:\n  priority: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvHostname, "env.example.com")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Routing.Priority != 3 {
		t.Fatalf("priority=%d want 3", cfg.Routing.Priority)
	}
	if cfg.Routing.Hostname != "env.example.com" {
		t.Fatalf("hostname=%q want env override", cfg.Routing.Hostname)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvHostname:              "lcm.example.com",
		EnvCertificateSecretName: "cert-b",
		EnvKubeconfigPath:        "/tmp/kubeconfig",
		EnvKubeconfigContext:     "kind-dev",
		EnvRuntime:               "Kubernetes",
		EnvDBURL:                 "sqlite::memory:",
		EnvControlNamespace:      "  ",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if cfg.Routing.Hostname != "lcm.example.com" || cfg.Routing.CertificateSecretName != "cert-b" {
		t.Fatalf("routing overrides not applied: %+v", cfg.Routing)
	}
	if cfg.Cluster.Kubeconfig != "/tmp/kubeconfig" || cfg.Cluster.Context != "kind-dev" {
		t.Fatalf("kubeconfig overrides not applied: %+v", cfg.Cluster)
	}
	if cfg.Cluster.Runtime != RuntimeK8s {
		t.Fatalf("runtime=%q want %q", cfg.Cluster.Runtime, RuntimeK8s)
	}
	if cfg.Store.URL != "sqlite::memory:" {
		t.Fatalf("store url=%q", cfg.Store.URL)
	}
	// blank values do not override
	if cfg.Cluster.ControlNamespace != defaultControlNamespace {
		t.Fatalf("control namespace=%q", cfg.Cluster.ControlNamespace)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Root)
		wantErr string
	}{
		{"bad runtime", func(r *Root) { r.Cluster.Runtime = "cloud" }, "cluster.runtime"},
		{"bad control namespace", func(r *Root) { r.Cluster.ControlNamespace = "Bad_NS" }, "cluster.controlNamespace"},
		{"empty platform route", func(r *Root) { r.Routing.PlatformRoute = "" }, "routing.platformRoute"},
		{"negative priority", func(r *Root) { r.Routing.Priority = -1 }, "routing.priority"},
		{"bad service port", func(r *Root) { r.Service.Port = 70000 }, "service.port"},
		{"package limit too large", func(r *Root) { r.Service.MaxPackageBytes = 2 << 20 }, "service.maxPackageBytes"},
		{"no kinds", func(r *Root) { r.Kinds = nil }, "kinds must not be empty"},
		{"kind without image", func(r *Root) {
			k := r.Kinds[KindTOSCA]
			k.Image = ""
			r.Kinds[KindTOSCA] = k
		}, "kinds.tosca.image"},
		{"relative workdir", func(r *Root) {
			k := r.Kinds[KindTerraform]
			k.WorkDir = "tf"
			r.Kinds[KindTerraform] = k
		}, "kinds.terraform.workDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
