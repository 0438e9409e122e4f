package model

import (
	"strconv"
	"time"
)

// Tenant identifies one workspace+project pair and therefore one isolated namespace.
type Tenant struct {
	WorkspaceID int
	ProjectID   int
}

func (t Tenant) String() string {
	return "w" + strconv.Itoa(t.WorkspaceID) + "/p" + strconv.Itoa(t.ProjectID)
}

// FileSecret is a secret materialized as a file at Path inside the container.
type FileSecret struct {
	Path string
	// Contents is base64 encoded.
	Contents string
}

// SecretRef is a workspace secret attached to a deployment.
// Exactly one of File or Env is expected to be set.
type SecretRef struct {
	ID   int
	Name string
	File *FileSecret
	Env  map[string]string
}

// Key returns the value used to de-duplicate repeated references to the same secret.
func (s SecretRef) Key() string {
	if s.ID != 0 {
		return "id:" + strconv.Itoa(s.ID)
	}
	if s.Name != "" {
		return "name:" + s.Name
	}
	if s.File != nil {
		return "file:" + s.File.Path
	}
	return ""
}

// DeploymentSpec describes the workload run inside a tenant namespace.
type DeploymentSpec struct {
	// Name is used for the Deployment, ConfigMap, Service, IngressRoute and as secret name prefix.
	Name    string
	Image   string
	Port    int
	WorkDir string
	Env     map[string]string
	Secrets []SecretRef
	// Package is the compressed deployment package (zip).
	Package []byte
	// ImagePullSecret names a secret in the control namespace to copy into the tenant namespace.
	ImagePullSecret string
	// Paths are the route path templates exposed through the ingress route.
	Paths    []string
	Priority int
}

// DeployPhase is a step of the deployment state machine.
type DeployPhase string

const (
	PhaseNotDeployed                DeployPhase = "NotDeployed"
	PhaseNamespaceCreated           DeployPhase = "NamespaceCreated"
	PhaseConfigProvisioned          DeployPhase = "ConfigProvisioned"
	PhaseSecretsProvisioned         DeployPhase = "SecretsProvisioned"
	PhaseImagePullSecretProvisioned DeployPhase = "ImagePullSecretProvisioned"
	PhaseWorkloadCreated            DeployPhase = "WorkloadCreated"
	PhaseServiceCreated             DeployPhase = "ServiceCreated"
	PhaseMiddlewareCreated          DeployPhase = "MiddlewareCreated"
	PhaseRoutingConfigured          DeployPhase = "RoutingConfigured"
)

// ContainerHealth reports the state of the tenant's container.
type ContainerHealth string

const (
	ContainerRunning ContainerHealth = "running"
	ContainerStopped ContainerHealth = "stopped"
	ContainerUnknown ContainerHealth = "unknown"
)

// ConnectivityHealth reports the highest network layer the service was reached at.
type ConnectivityHealth string

const (
	ConnectivityNone   ConnectivityHealth = "none"
	ConnectivityLayer3 ConnectivityHealth = "layer3"
	ConnectivityLayer5 ConnectivityHealth = "layer5"
)

// ProjectHealth combines container and connectivity state.
type ProjectHealth struct {
	Container    ContainerHealth    `json:"container"`
	Connectivity ConnectivityHealth `json:"connectivity"`
}

// ProjectRecord is the persisted trace of a deployment kept by the CLI.
type ProjectRecord struct {
	WorkspaceID int
	ProjectID   int
	Name        string
	Kind        string
	Namespace   string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
