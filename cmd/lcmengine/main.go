package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xlab-si/lcm-engine/config/lcmcfg"
	"github.com/xlab-si/lcm-engine/internal/logging"
)

const (
	envConfigPath = "LCM_ENGINE_CONFIG"
	envLogFormat  = "LCM_ENGINE_LOG_FORMAT"
	envLogLevel   = "LCM_ENGINE_LOG_LEVEL"
)

// configRoot is the configuration loaded in PersistentPreRunE.
var configRoot *lcmcfg.Root

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lcm-engine",
		Short:   "LCM engine CLI",
		Long:    "Provisions and inspects per-project LCM services on Kubernetes",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", os.Getenv(envConfigPath), "Path to lcm-engine.yml (env "+envConfigPath+")")
	cmd.PersistentFlags().String("db-url", "", "Database URL overriding the configuration (sqlite:/path/to.db | memory:)")
	cmd.PersistentFlags().String("log-format", "human", "Log format (human|text|json) (env "+envLogFormat+")")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error) (env "+envLogLevel+")")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		format, _ := c.Flags().GetString("log-format")
		if env := os.Getenv(envLogFormat); env != "" {
			format = env
		}
		levelName, _ := c.Flags().GetString("log-level")
		if env := os.Getenv(envLogLevel); env != "" {
			levelName = env
		}
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		l, err := logging.New(format, level)
		if err != nil {
			return err
		}
		ctx := logging.WithLogger(c.Context(), l.With("runId", uuid.NewString()))
		c.SetContext(ctx)

		path, _ := c.Flags().GetString("config")
		cfg, err := lcmcfg.Load(path)
		if err != nil {
			return err
		}
		if dbURL, _ := c.Flags().GetString("db-url"); dbURL != "" {
			cfg.Store.URL = dbURL
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		configRoot = cfg
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdPing())
	cmd.AddCommand(newCmdConfig())
	cmd.AddCommand(newCmdProject())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
}
