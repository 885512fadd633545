package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kubesync/internal/kubectx"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context [name]",
		Short: "Show or switch the active kubeconfig context",
		Long: `Without arguments, prints the contexts in the shared kubeconfig and
marks the active one. With a name, switches the active context to it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := kubectx.Switch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", args[0])
				return nil
			}
			entries, err := kubectx.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				mark := " "
				if e.Active {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-32s cluster=%s user=%s\n", mark, e.Name, e.Cluster, e.User)
			}
			return nil
		},
	}
	return cmd
}
