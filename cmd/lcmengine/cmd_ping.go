package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newCmdPing checks connectivity to the Kubernetes API server.
func newCmdPing() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Ping Kubernetes API server",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "ping", "")
			defer func() { cleanup(err) }()

			kc, err := buildKubeClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if !kc.CheckConnectivity(ctx) {
				return fmt.Errorf("kubernetes API server is not reachable")
			}
			ver, err := kc.ServerVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok version=%s host=%s\n", ver, kc.RESTConfig.Host)
			return nil
		},
	}
}
