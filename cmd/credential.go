package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kubesync/internal/credentials"
)

var (
	credServer   string
	credDefault  bool
	credFile     bool
	credPassword string
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage sudo passwords in the system keyring",
		Long: `Stores per-host sudo passwords used to read the root-owned k3s
kubeconfig. Hosts without a dedicated entry fall back to the shared
` + credentials.DefaultAccount + ` entry. Secrets live in the OS keyring; when no
keyring is available, --file stores them obfuscated in a 0600 file under
~/.config/kubesync instead.`,
	}
	cmd.AddCommand(newCredentialSetCmd())
	cmd.AddCommand(newCredentialDeleteCmd())
	cmd.AddCommand(newCredentialListCmd())
	return cmd
}

// credentialAccount maps the --server/--default flags to a store account.
// Exactly one of the two must be given.
func credentialAccount() (string, error) {
	switch {
	case credServer != "" && credDefault:
		return "", fmt.Errorf("--server and --default are mutually exclusive")
	case credServer != "":
		return credServer, nil
	case credDefault:
		return credentials.DefaultAccount, nil
	}
	return "", fmt.Errorf("one of --server or --default is required")
}

func addAccountFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&credServer, "server", "", "host name the credential belongs to")
	cmd.Flags().BoolVar(&credDefault, "default", false, "operate on the shared fallback credential")
}

// readPassword returns the --password value when given, otherwise reads the
// secret from the terminal without echo, or from a piped stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if credPassword != "" {
		return credPassword, nil
	}
	stdin := int(os.Stdin.Fd())
	if term.IsTerminal(stdin) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		raw, err := term.ReadPassword(stdin)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// setBackend picks where 'credential set' writes. Reads always consult the
// keyring first and the file store second, so both targets are found later.
func setBackend() (credentials.Backend, error) {
	if credFile {
		path, err := credentials.DefaultFileStorePath()
		if err != nil {
			return nil, err
		}
		return credentials.FileStore{Path: path}, nil
	}
	return credentials.SystemKeyring{}, nil
}

func newCredentialSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a sudo password for a host or the shared fallback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := credentialAccount()
			if err != nil {
				return err
			}
			secret, err := readPassword(cmd)
			if err != nil {
				return err
			}
			if secret == "" {
				return fmt.Errorf("refusing to store an empty password")
			}
			backend, err := setBackend()
			if err != nil {
				return err
			}
			if err := backend.Set(credentials.Service, account, secret); err != nil {
				return fmt.Errorf("storing credential for %q: %w", account, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential stored for %q\n", account)
			return nil
		},
	}
	addAccountFlags(cmd)
	cmd.Flags().StringVar(&credPassword, "password", "", "password to store; prompted for when omitted")
	cmd.Flags().BoolVar(&credFile, "file", false, "store in the obfuscated file instead of the OS keyring")
	return cmd
}

func newCredentialDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a stored sudo password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := credentialAccount()
			if err != nil {
				return err
			}
			// Clears both the keyring and the file store.
			if err := credentials.DefaultStack().Delete(credentials.Service, account); err != nil {
				return fmt.Errorf("deleting credential for %q: %w", account, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential deleted for %q\n", account)
			return nil
		},
	}
	addAccountFlags(cmd)
	return cmd
}

func newCredentialListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which hosts have a stored credential",
		Long: `Lists presence only. Secret values are never printed by any
kubesync command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			presences := credentials.Check(cfg.HostNames(), credentials.DefaultStack())
			for _, p := range presences {
				mark := "-"
				if p.Present {
					mark = "stored"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", p.Account, mark)
			}
			return nil
		},
	}
}
