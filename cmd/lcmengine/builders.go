package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xlab-si/lcm-engine/adapters/kube"
	"github.com/xlab-si/lcm-engine/adapters/store/inmem"
	"github.com/xlab-si/lcm-engine/adapters/store/rdb"
	"github.com/xlab-si/lcm-engine/config/lcmcfg"
	"github.com/xlab-si/lcm-engine/domain"
	"github.com/xlab-si/lcm-engine/usecase/project"
)

const userAgent = "lcm-engine"

func loadedConfig() (*lcmcfg.Root, error) {
	if configRoot == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	return configRoot, nil
}

// buildKubeClient creates a kube client from the configured runtime and kubeconfig.
func buildKubeClient(_ *cobra.Command) (*kube.Client, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	rc, err := kube.LoadRESTConfig(kube.ConfigSource{
		Runtime:    cfg.Cluster.Runtime,
		Kubeconfig: cfg.Cluster.Kubeconfig,
		Context:    cfg.Cluster.Context,
	})
	if err != nil {
		return nil, err
	}
	return kube.NewClientFromRESTConfig(rc, &kube.Options{UserAgent: userAgent, PingPort: cfg.Service.Port})
}

// buildProjectUseCase creates the project use case over a live cluster.
func buildProjectUseCase(cmd *cobra.Command) (*project.UseCase, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	kc, err := buildKubeClient(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create kube client: %w", err)
	}
	return project.New(kc, cfg), nil
}

// buildOfflineProjectUseCase creates a project use case for operations that never reach the cluster.
func buildOfflineProjectUseCase(_ *cobra.Command) (*project.UseCase, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	return &project.UseCase{Settings: project.SettingsFromConfig(cfg)}, nil
}

// buildProjectRepository opens the deployment record store named by the store URL.
func buildProjectRepository(_ *cobra.Command) (domain.ProjectRepository, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(cfg.Store.URL, "memory:") {
		return inmem.NewProjectRepository(), nil
	}
	db, err := rdb.OpenFromURL(cfg.Store.URL)
	if err != nil {
		return nil, err
	}
	if err := rdb.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", cfg.Store.URL, err)
	}
	return rdb.NewProjectRepository(db), nil
}
