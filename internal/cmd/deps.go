package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/scone-ci/internal/deps"
	"github.com/harrison/scone-ci/internal/executor"
	"github.com/harrison/scone-ci/internal/workspace"
)

// NewDepsCommand creates the 'scone-ci deps' command
func NewDepsCommand() *cobra.Command {
	var (
		rebuild bool
		dryRun  bool
		root    string
		cores   int
	)

	targets := make([]string, 0, len(deps.Targets()))
	for _, t := range deps.Targets() {
		targets = append(targets, string(t))
	}

	cmd := &cobra.Command{
		Use:   "deps <target>",
		Short: "Build SCONE's third-party dependencies",
		Long: `Install system packages or build SCONE and its dependencies with CMake.

Targets:
  deps      apt packages and the fpm gem (uses sudo)
  osg       OpenSceneGraph
  simbody   Simbody
  opensim   OpenSim 3 (SCONE fork)
  scone     SCONE itself (always rebuilt)
  all       osg, simbody, opensim, then scone

Components whose install directory exists are skipped unless --rebuild is given.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: targets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := deps.ParseTarget(args[0])
			if err != nil {
				return err
			}

			dir, err := depsRoot(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			builder := deps.NewBuilder(deps.NewLayout(dir),
				executor.NewProcessRunner(out, cmd.ErrOrStderr()),
				deps.WithOutput(out),
				deps.WithCores(cores),
				deps.WithDryRun(dryRun),
			)
			return builder.Build(cmd.Context(), target, rebuild)
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild components that are already installed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the commands without running them")
	cmd.Flags().StringVar(&root, "root", "", "Repository root (default: the workspace variable, $"+workspace.DefaultEnvVar+" unless workspace_env renames it, or the current directory)")
	cmd.Flags().IntVar(&cores, "cores", deps.DefaultCores(), "Parallel build jobs")

	return cmd
}

// depsRoot picks the repository root: the flag, then the workspace variable,
// then the current directory.
func depsRoot(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		return filepath.Abs(flag)
	}
	cfg, _, err := bootstrapConfig(getenv)
	if err != nil {
		return "", err
	}
	if ws, err := workspace.Resolve(getenv, cfg.WorkspaceEnv); err == nil {
		return ws, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return wd, nil
}
