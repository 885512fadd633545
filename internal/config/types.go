package config

import "fmt"

// Config is the top-level configuration for kubesync, loaded from
// ~/.config/kubesync/config.yaml. Global defaults apply to every host that
// does not override them.
type Config struct {
	// DefaultUser is the SSH username used when a host does not set one.
	DefaultUser string `yaml:"defaultUser,omitempty"`
	// DefaultRemotePath is the directory on the remote host that holds the
	// kubeconfig, e.g. "/etc/rancher/k3s".
	DefaultRemotePath string `yaml:"defaultRemotePath,omitempty"`
	// DefaultRemoteFile is the kubeconfig file name within DefaultRemotePath,
	// e.g. "k3s.yaml".
	DefaultRemoteFile string `yaml:"defaultRemoteFile,omitempty"`
	// DefaultIdentityFile is an SSH private key path used when a host does
	// not set one. Optional; without it password or agent auth is used.
	DefaultIdentityFile string `yaml:"defaultIdentityFile,omitempty"`
	// StrictHostKey enables known_hosts verification for SSH connections.
	StrictHostKey bool `yaml:"strictHostKey,omitempty"`
	// LocalOutputDir is the directory where fetched per-host kubeconfigs are
	// cached, one file per host named after the host.
	LocalOutputDir string `yaml:"localOutputDir"`
	// Hosts is the fleet to process.
	Hosts []Host `yaml:"hosts"`
}

// Host describes a single remote host whose kubeconfig is fetched and merged.
type Host struct {
	// Name uniquely identifies the host. It names the local cache file, the
	// credential account, and (absent ContextName) the merged kubeconfig
	// entries.
	Name string `yaml:"name"`
	// Address is the SSH host to connect to (port 22).
	Address string `yaml:"address"`
	// TargetClusterIP is the address the cluster entry's server URL is
	// rewritten to, so the merged kubeconfig points at the reachable
	// endpoint rather than the address baked into the fetched file.
	TargetClusterIP string `yaml:"targetClusterIP"`
	// User overrides DefaultUser for this host.
	User string `yaml:"user,omitempty"`
	// RemotePath overrides DefaultRemotePath for this host.
	RemotePath string `yaml:"remotePath,omitempty"`
	// RemoteFile overrides DefaultRemoteFile for this host.
	RemoteFile string `yaml:"remoteFile,omitempty"`
	// ContextName overrides the name used for the merged
	// cluster/context/user entries. Defaults to Name.
	ContextName string `yaml:"contextName,omitempty"`
	// IdentityFile overrides DefaultIdentityFile for this host.
	IdentityFile string `yaml:"identityFile,omitempty"`
}

// SSHUser returns the SSH username for the host, falling back to the
// config-wide default.
func (h *Host) SSHUser(cfg *Config) (string, error) {
	if h.User != "" {
		return h.User, nil
	}
	if cfg.DefaultUser != "" {
		return cfg.DefaultUser, nil
	}
	return "", fmt.Errorf("[%s] user not specified in config", h.Name)
}

// FullRemotePath returns the absolute remote path of the kubeconfig file,
// combining the path and file name with per-host overrides applied.
func (h *Host) FullRemotePath(cfg *Config) (string, error) {
	dir := h.RemotePath
	if dir == "" {
		dir = cfg.DefaultRemotePath
	}
	if dir == "" {
		return "", fmt.Errorf("[%s] remotePath not specified in config", h.Name)
	}
	file := h.RemoteFile
	if file == "" {
		file = cfg.DefaultRemoteFile
	}
	if file == "" {
		return "", fmt.Errorf("[%s] remoteFile not specified in config", h.Name)
	}
	return dir + "/" + file, nil
}

// SSHIdentityFile returns the private key path for the host, falling back to
// the config-wide default. Empty means no key is configured.
func (h *Host) SSHIdentityFile(cfg *Config) string {
	if h.IdentityFile != "" {
		return h.IdentityFile
	}
	return cfg.DefaultIdentityFile
}

// MergedContextName returns the name under which this host's
// cluster/context/user entries appear in the shared kubeconfig.
func (h *Host) MergedContextName() string {
	if h.ContextName != "" {
		return h.ContextName
	}
	return h.Name
}

// HostByName returns the host with the given name, or nil.
func (c *Config) HostByName(name string) *Host {
	for i := range c.Hosts {
		if c.Hosts[i].Name == name {
			return &c.Hosts[i]
		}
	}
	return nil
}

// HostNames returns the names of all configured hosts, in config order.
func (c *Config) HostNames() []string {
	names := make([]string, 0, len(c.Hosts))
	for i := range c.Hosts {
		names = append(names, c.Hosts[i].Name)
	}
	return names
}
