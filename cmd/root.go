package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"kubesync/internal/config"
	"kubesync/pkg/logging"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command. Called without a subcommand it runs a
// sync pass, so a cron line is just "kubesync".
var rootCmd = &cobra.Command{
	Use:   "kubesync",
	Short: "Collect k3s kubeconfigs from a fleet of hosts into ~/.kube/config",
	Long: `kubesync connects to each configured host over SSH, fetches its k3s
kubeconfig, rewrites it to be reachable from this machine, and merges the
result into the shared ~/.kube/config. Hosts whose client certificate is
still valid are skipped, so repeated runs are cheap and cron-friendly.`,
	// SilenceUsage prevents printing usage on errors we handle ourselves
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is called by main.main(). It only needs to happen once.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kubesync version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/kubesync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only, for scheduled runs")

	addRunFlags(rootCmd)
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCredentialCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initLogging() {
	level := logging.LevelInfo
	switch {
	case verbose:
		level = logging.LevelDebug
	case quiet:
		level = logging.LevelQuiet
	}
	logging.InitForCLI(level, os.Stderr)
}

// loadConfig resolves the configured or default config path and loads it.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}
