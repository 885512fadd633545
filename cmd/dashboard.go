package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kubesync/internal/run"
	"kubesync/internal/tui"
	"kubesync/pkg/logging"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive fleet overview",
		Long: `Opens a terminal dashboard showing every configured host with its
certificate expiry and last run outcome. From the dashboard a host can be
force-fetched and failure details copied to the clipboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			orch, err := run.New(cfg)
			if err != nil {
				return err
			}

			// Route log output into the TUI instead of stderr.
			level := logging.LevelInfo
			if verbose {
				level = logging.LevelDebug
			}
			logCh := logging.InitForTUI(level)
			defer logging.CloseTUIChannel()

			p := tui.NewProgram(cfg, orch, logCh)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}
}
