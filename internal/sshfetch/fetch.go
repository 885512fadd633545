// Package sshfetch retrieves a single remote file over SSH. Authentication
// follows a fixed priority: configured private key, then stored password,
// then the local SSH agent. Password authentication implies the remote user
// is not root, so the remote read runs under sudo with the password supplied
// on stdin - it never appears in the remote process listing or argv.
package sshfetch

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"kubesync/pkg/logging"
)

const (
	sshPort        = "22"
	connectTimeout = 10 * time.Second
)

// Options describes one fetch. Password empty means no stored credential;
// the key/agent paths are tried instead.
type Options struct {
	HostName      string // for log messages and error identity
	Address       string
	User          string
	RemotePath    string
	IdentityFile  string
	Password      string
	StrictHostKey bool
}

// FetchError carries the host identity alongside the cause, so the
// orchestrator can record a per-host failure without re-deriving context.
type FetchError struct {
	Host  string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Host, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func failf(host, format string, args ...interface{}) error {
	return &FetchError{Host: host, Cause: fmt.Errorf(format, args...)}
}

// Fetch connects to the host and returns the raw bytes of the remote file.
// The selected auth method is never silently swapped for another: if the
// chosen one fails, the fetch fails.
func Fetch(opts Options) ([]byte, error) {
	auth, elevate, err := selectAuth(opts)
	if err != nil {
		return nil, &FetchError{Host: opts.HostName, Cause: err}
	}

	hostKeyCallback, err := hostKeyPolicy(opts.StrictHostKey)
	if err != nil {
		return nil, failf(opts.HostName, "host key policy: %w", err)
	}

	logging.Info("sshfetch", "[%s] connecting to %s", opts.HostName, opts.Address)
	client, err := ssh.Dial("tcp", net.JoinHostPort(opts.Address, sshPort), &ssh.ClientConfig{
		User:            opts.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback,
		Timeout:         connectTimeout,
	})
	if err != nil {
		return nil, failf(opts.HostName, "connecting to %s: %w", opts.Address, err)
	}
	defer client.Close()
	logging.Debug("sshfetch", "[%s] authentication successful", opts.HostName)

	return runRemoteRead(client, opts, elevate)
}

// selectAuth picks the authentication method by priority. elevate reports
// whether the remote command must run under sudo (password auth only).
func selectAuth(opts Options) (auth ssh.AuthMethod, elevate bool, err error) {
	if opts.IdentityFile != "" {
		keyBytes, err := os.ReadFile(opts.IdentityFile)
		if err != nil {
			return nil, false, fmt.Errorf("reading identity file %s: %w", opts.IdentityFile, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, false, fmt.Errorf("parsing identity file %s: %w", opts.IdentityFile, err)
		}
		logging.Debug("sshfetch", "[%s] authenticating with private key %s", opts.HostName, opts.IdentityFile)
		return ssh.PublicKeys(signer), false, nil
	}

	if opts.Password != "" {
		logging.Debug("sshfetch", "[%s] authenticating with password", opts.HostName)
		return ssh.Password(opts.Password), true, nil
	}

	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, false, fmt.Errorf("no password or identity file configured for %q and no SSH agent available; store a credential with 'kubesync credential set'", opts.HostName)
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, false, fmt.Errorf("connecting to SSH agent: %w", err)
	}
	logging.Debug("sshfetch", "[%s] authenticating with SSH agent", opts.HostName)
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), false, nil
}

func hostKeyPolicy(strict bool) (ssh.HostKeyCallback, error) {
	if !strict {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
}

// remoteCommand builds the read command. With elevation the password is fed
// to sudo on stdin (-S); it is never part of the command line.
func remoteCommand(remotePath string, elevate bool) string {
	if elevate {
		return "sudo -S cat " + remotePath
	}
	return "cat " + remotePath
}

func runRemoteRead(client *ssh.Client, opts Options, elevate bool) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, failf(opts.HostName, "opening session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cmd := remoteCommand(opts.RemotePath, elevate)

	if elevate {
		stdin, err := session.StdinPipe()
		if err != nil {
			return nil, failf(opts.HostName, "opening stdin pipe: %w", err)
		}
		if err := session.Start(cmd); err != nil {
			return nil, failf(opts.HostName, "starting remote command: %w", err)
		}
		if _, err := stdin.Write([]byte(opts.Password + "\n")); err != nil {
			return nil, failf(opts.HostName, "writing sudo password: %w", err)
		}
		stdin.Close()
	} else {
		if err := session.Start(cmd); err != nil {
			return nil, failf(opts.HostName, "starting remote command: %w", err)
		}
	}

	// sudo's password prompt lands on stderr; that alone is not a failure.
	// Only a non-zero exit after the command completes is.
	if err := session.Wait(); err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return nil, failf(opts.HostName, "remote command failed with exit code %d: %s",
				exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return nil, failf(opts.HostName, "remote command: %w", err)
	}

	logging.Debug("sshfetch", "[%s] read %d bytes from stdout", opts.HostName, stdout.Len())
	return stdout.Bytes(), nil
}
