package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for scone-ci.
// Invoked without a subcommand it runs the release pipeline.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scone-ci",
		Short: "Build, rearrange and package SCONE in a CI workspace",
		Long: `scone-ci runs the SCONE release pipeline inside the CI workspace.

The workspace root is read from $GITHUB_WORKSPACE (configurable via
workspace_env in .scone-ci/config.yaml). Three tools found in the workspace
run in a fixed order, each announced on stdout before it starts:

  [run] building SCONE         unix_2d_build-scone
  [run] rearranging binaries   linux_3_create-install-dirtree
  [run] packaging deb          linux_4_package

The first tool that exits non-zero stops the run; the remaining tools are
not invoked and scone-ci exits with the failing tool's exit code.

Environment:
  SCONE_CI_CONFIG         config file (default <workspace>/.scone-ci/config.yaml)
  SCONE_CI_LOG_LEVEL      trace, debug, info, warn or error
  SCONE_CI_DRY_RUN        print the steps without running them
  SCONE_CI_STEP_TIMEOUT   per-step timeout, e.g. 45m (default: none)`,
		Version:       Version,
		Args:          cobra.NoArgs,
		RunE:          runPipeline,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewDepsCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}
