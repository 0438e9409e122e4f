// Package project provisions, inspects and tears down the per-tenant LCM service.
package project

import (
	"github.com/xlab-si/lcm-engine/config/lcmcfg"
	"github.com/xlab-si/lcm-engine/resources"
)

// Settings are the platform wide values every deployment is built with.
type Settings struct {
	ControlNamespace string
	PlatformRoute    string
	TraefikGroup     string
	Overrides        resources.RoutingOverrides
	// ServicePort is the port exposed by the tenant service and targeted by routes.
	ServicePort     int
	InitImage       string
	Priority        int
	MaxPackageBytes int
	Kinds           map[string]lcmcfg.Kind
}

// SettingsFromConfig extracts Settings from a loaded configuration.
func SettingsFromConfig(cfg *lcmcfg.Root) Settings {
	return Settings{
		ControlNamespace: cfg.Cluster.ControlNamespace,
		PlatformRoute:    cfg.Routing.PlatformRoute,
		TraefikGroup:     cfg.Routing.TraefikGroup,
		Overrides: resources.RoutingOverrides{
			Hostname:              cfg.Routing.Hostname,
			CertificateSecretName: cfg.Routing.CertificateSecretName,
		},
		ServicePort:     cfg.Service.Port,
		InitImage:       cfg.Service.InitImage,
		Priority:        cfg.Routing.Priority,
		MaxPackageBytes: cfg.Service.MaxPackageBytes,
		Kinds:           cfg.Kinds,
	}
}

// UseCase wires the cluster client needed for project use cases.
// A single UseCase may serve concurrent calls for different tenants.
type UseCase struct {
	Cluster  resources.ClusterClient
	Settings Settings
}

// New returns a UseCase over cluster configured by cfg.
func New(cluster resources.ClusterClient, cfg *lcmcfg.Root) *UseCase {
	return &UseCase{Cluster: cluster, Settings: SettingsFromConfig(cfg)}
}

func (u *UseCase) resolver() *resources.RoutingResolver {
	return &resources.RoutingResolver{
		Client:           u.Cluster,
		Group:            u.Settings.TraefikGroup,
		ControlNamespace: u.Settings.ControlNamespace,
		PlatformRoute:    u.Settings.PlatformRoute,
		Overrides:        u.Settings.Overrides,
	}
}

func (u *UseCase) servicePort() int {
	if u.Settings.ServicePort == 0 {
		return resources.DefaultServicePort
	}
	return u.Settings.ServicePort
}
