package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kubesync/internal/run"
)

var (
	dryRun  bool
	force   bool
	servers []string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and merge kubeconfigs from the configured hosts",
		Long: `Runs one sync pass over the fleet: hosts with a still-valid client
certificate are skipped, the rest are fetched over SSH, normalized, and
merged into the shared kubeconfig. Per-host failures are reported but do
not abort the run or fail the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would happen without writing any file")
	cmd.Flags().BoolVar(&force, "force", false, "fetch every host even when its certificate is still valid")
	cmd.Flags().StringSliceVar(&servers, "servers", nil, "restrict the run to these host names (comma separated or repeated)")
}

func runSync(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, err := run.New(cfg)
	if err != nil {
		return err
	}
	summary, err := orch.Run(run.Options{DryRun: dryRun, Force: force, Hosts: servers})
	if err != nil {
		return err
	}
	// Quiet on the all-skipped path so scheduled runs produce no output.
	if summary.Notable() {
		fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	}
	return nil
}
