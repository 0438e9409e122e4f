package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/logging"
	"github.com/xlab-si/lcm-engine/usecase/project"
)

// tenantFlags binds --workspace and --project.
type tenantFlags struct {
	workspaceID int
	projectID   int
}

func (f *tenantFlags) bind(fs *pflag.FlagSet) {
	fs.IntVarP(&f.workspaceID, "workspace", "w", -1, "Workspace ID")
	fs.IntVarP(&f.projectID, "project", "p", -1, "Project ID")
	_ = cobra.MarkFlagRequired(fs, "workspace")
	_ = cobra.MarkFlagRequired(fs, "project")
}

func (f *tenantFlags) tenant() model.Tenant {
	return model.Tenant{WorkspaceID: f.workspaceID, ProjectID: f.projectID}
}

// specFlags binds the flags describing the deployed workload.
type specFlags struct {
	kind        string
	name        string
	packagePath string
	secretsPath string
	env         map[string]string
}

func (f *specFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.kind, "kind", "k", "", "Project kind (tosca|terraform or si.xlab.lcm-service.<kind>)")
	fs.StringVar(&f.name, "name", "", "Project display name recorded in the store")
	fs.StringVarP(&f.packagePath, "package", "f", "", "Path to the zip deployment package")
	fs.StringVar(&f.secretsPath, "secrets", "", "Path to a YAML file listing workspace secrets")
	fs.StringToStringVarP(&f.env, "env", "e", nil, "Extra environment variables (KEY=VALUE)")
	_ = cobra.MarkFlagRequired(fs, "kind")
	_ = cobra.MarkFlagRequired(fs, "package")
}

func (f *specFlags) specInput() (project.SpecInput, error) {
	pkg, err := os.ReadFile(f.packagePath)
	if err != nil {
		return project.SpecInput{}, fmt.Errorf("failed to read package: %w", err)
	}
	var secrets []model.SecretRef
	if f.secretsPath != "" {
		if secrets, err = readSecretsFile(f.secretsPath); err != nil {
			return project.SpecInput{}, err
		}
	}
	return project.SpecInput{Kind: f.kind, Package: pkg, Secrets: secrets, Env: f.env}, nil
}

// secretsFile is the YAML document accepted by --secrets.
type secretsFile struct {
	Secrets []struct {
		ID   int    `yaml:"id"`
		Name string `yaml:"name"`
		File *struct {
			Path string `yaml:"path"`
			// Contents is base64 encoded.
			Contents string `yaml:"contents"`
		} `yaml:"file"`
		Env map[string]string `yaml:"env"`
	} `yaml:"secrets"`
}

func readSecretsFile(path string) ([]model.SecretRef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	return parseSecrets(b)
}

func parseSecrets(b []byte) ([]model.SecretRef, error) {
	var doc secretsFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secrets: %w", err)
	}
	refs := make([]model.SecretRef, 0, len(doc.Secrets))
	for _, s := range doc.Secrets {
		ref := model.SecretRef{ID: s.ID, Name: s.Name, Env: s.Env}
		if s.File != nil {
			ref.File = &model.FileSecret{Path: s.File.Path, Contents: s.File.Contents}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCmdProject() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "project",
		Short:              "Manage project LCM services",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE:               func(cmd *cobra.Command, args []string) error { return fmt.Errorf("invalid command") },
	}
	cmd.AddCommand(newCmdProjectDeploy())
	cmd.AddCommand(newCmdProjectUndeploy())
	cmd.AddCommand(newCmdProjectStatus())
	cmd.AddCommand(newCmdProjectHealth())
	cmd.AddCommand(newCmdProjectDebug())
	cmd.AddCommand(newCmdProjectRender())
	cmd.AddCommand(newCmdProjectList())
	return cmd
}

func newCmdProjectDeploy() *cobra.Command {
	var tf tenantFlags
	var sf specFlags
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the LCM service of a project",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "project.deploy", tf.tenant().String())
			defer func() { cleanup(err) }()

			uc, err := buildProjectUseCase(cmd)
			if err != nil {
				return err
			}
			in, err := sf.specInput()
			if err != nil {
				return err
			}
			spec, err := uc.SpecForKind(in)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			out, err := uc.Deploy(ctx, &project.DeployInput{Tenant: tf.tenant(), Spec: spec})
			if out != nil {
				recordDeployment(ctx, cmd, tf.tenant(), sf.name, spec.Name, out, err == nil)
			}
			if err != nil {
				return err
			}
			for _, w := range out.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "WARN %s\n", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deployed namespace=%s phase=%s host=%s\n", out.Namespace, out.Phase, out.Hostname)
			return nil
		},
	}
	tf.bind(cmd.Flags())
	sf.bind(cmd.Flags())
	return cmd
}

// recordDeployment stores the outcome of a deployment; store failures are logged only.
func recordDeployment(ctx context.Context, cmd *cobra.Command, t model.Tenant, name, kind string, out *project.DeployOutput, available bool) {
	logger := logging.FromContext(ctx)
	repo, err := buildProjectRepository(cmd)
	if err != nil {
		logger.Warn(ctx, "project record store unavailable", "err", err)
		return
	}
	if name == "" {
		name = kind
	}
	rec := &model.ProjectRecord{
		WorkspaceID: t.WorkspaceID,
		ProjectID:   t.ProjectID,
		Name:        name,
		Kind:        kind,
		Namespace:   out.Namespace,
		Available:   available,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		logger.Warn(ctx, "failed to record project", "err", err)
	}
}

func newCmdProjectUndeploy() *cobra.Command {
	var tf tenantFlags
	cmd := &cobra.Command{
		Use:   "undeploy",
		Short: "Delete the LCM service namespace of a project",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "project.undeploy", tf.tenant().String())
			defer func() { cleanup(err) }()

			uc, err := buildProjectUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			out, err := uc.Undeploy(ctx, &project.UndeployInput{Tenant: tf.tenant()})
			if err != nil {
				return err
			}
			if repo, rerr := buildProjectRepository(cmd); rerr == nil {
				if derr := repo.Delete(ctx, tf.workspaceID, tf.projectID); derr != nil && !errors.Is(derr, model.ErrProjectNotFound) {
					logging.FromContext(ctx).Warn(ctx, "failed to delete project record", "err", derr)
				}
			}
			if out.Deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted namespace=%s\n", out.Namespace)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "namespace %s not found\n", out.Namespace)
			}
			return nil
		},
	}
	tf.bind(cmd.Flags())
	return cmd
}

func newCmdProjectStatus() *cobra.Command {
	var tf tenantFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pod phase of a project's LCM service",
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := buildProjectUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := uc.Status(ctx, &project.StatusInput{Tenant: tf.tenant()})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	tf.bind(cmd.Flags())
	return cmd
}

func newCmdProjectHealth() *cobra.Command {
	var tf tenantFlags
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show container and connectivity health of a project's LCM service",
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := buildProjectUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := uc.Health(ctx, &project.HealthInput{Tenant: tf.tenant()})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	tf.bind(cmd.Flags())
	return cmd
}

func newCmdProjectDebug() *cobra.Command {
	var tf tenantFlags
	var output string
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Download a zip archive with the LCM service log",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			quietKlog()
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "project.debug", tf.tenant().String())
			defer func() { cleanup(err) }()

			uc, err := buildProjectUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			out, err := uc.DebugPackage(ctx, &project.DebugPackageInput{Tenant: tf.tenant()})
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("%s-debug.zip", out.Namespace)
			}
			if err := os.WriteFile(output, out.Archive, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (pod %s)\n", output, out.Pod)
			return nil
		},
	}
	tf.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <namespace>-debug.zip)")
	return cmd
}

func newCmdProjectRender() *cobra.Command {
	var tf tenantFlags
	var sf specFlags
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the Kubernetes objects of a project without contacting the cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := buildOfflineProjectUseCase(cmd)
			if err != nil {
				return err
			}
			in, err := sf.specInput()
			if err != nil {
				return err
			}
			spec, err := uc.SpecForKind(in)
			if err != nil {
				return err
			}
			out, err := uc.Render(&project.RenderInput{Tenant: tf.tenant(), Spec: spec, ShowSecrets: showSecrets})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out.Manifest)
			return err
		},
	}
	tf.bind(cmd.Flags())
	sf.bind(cmd.Flags())
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values instead of redacting them")
	return cmd
}

func newCmdProjectList() *cobra.Command {
	var workspaceID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded project deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := buildProjectRepository(cmd)
			if err != nil {
				return err
			}
			recs, err := repo.List(cmd.Context(), workspaceID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORKSPACE\tPROJECT\tNAME\tKIND\tNAMESPACE\tAVAILABLE\tUPDATED")
			for _, r := range recs {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%t\t%s\n", r.WorkspaceID, r.ProjectID, r.Name, r.Kind, r.Namespace, r.Available, r.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&workspaceID, "workspace", "w", -1, "Workspace ID (all workspaces when omitted)")
	return cmd
}
