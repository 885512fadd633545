// Package kubeconfig models the per-host kubeconfig documents fetched from
// the fleet and the shared ~/.kube/config they merge into. Per-host
// documents are fully typed (they follow the fixed k3s shape); shared
// document entries keep their bodies as raw YAML nodes so a merge never
// rewrites or loses fields of entries it does not own.
package kubeconfig

import "gopkg.in/yaml.v3"

// Metadata keys embedded in a per-host document's preferences section.
// These never appear in the shared document.
const (
	MetaSourceHash  = "source-file-sha256"
	MetaLastUpdated = "script-last-updated"
	MetaCertExpiry  = "certificate-expires-at"
)

// Document is a fetched per-host kubeconfig, typed to the shape k3s emits:
// exactly one cluster, context, and user, authenticated by client
// certificate.
type Document struct {
	APIVersion     string `yaml:"apiVersion"`
	Kind           string `yaml:"kind"`
	CurrentContext string `yaml:"current-context"`
	Clusters       []NamedCluster `yaml:"clusters"`
	Contexts       []NamedContext `yaml:"contexts"`
	Users          []NamedUser    `yaml:"users"`
	// Preferences carries kubesync's host-local metadata (source hash,
	// fetch timestamp, certificate expiry).
	Preferences map[string]string `yaml:"preferences,omitempty"`
}

// NamedCluster is a named cluster entry.
type NamedCluster struct {
	Name    string  `yaml:"name"`
	Cluster Cluster `yaml:"cluster"`
}

// Cluster holds the connection details for a cluster.
type Cluster struct {
	Server                   string `yaml:"server"`
	CertificateAuthorityData string `yaml:"certificate-authority-data"`
}

// NamedContext is a named context entry.
type NamedContext struct {
	Name    string  `yaml:"name"`
	Context Context `yaml:"context"`
}

// Context links a cluster and a user.
type Context struct {
	Cluster string `yaml:"cluster"`
	User    string `yaml:"user"`
}

// NamedUser is a named user entry.
type NamedUser struct {
	Name string `yaml:"name"`
	User User   `yaml:"user"`
}

// User holds client-certificate credentials.
type User struct {
	ClientCertificateData string `yaml:"client-certificate-data"`
	ClientKeyData         string `yaml:"client-key-data"`
}

// SharedConfig is the merged kubeconfig consumed by kubectl and friends.
// Entry bodies stay as yaml.Node so entries belonging to other tools round
// trip untouched; kubesync only ever replaces whole entries by name.
type SharedConfig struct {
	APIVersion     string `yaml:"apiVersion"`
	Kind           string `yaml:"kind"`
	CurrentContext string `yaml:"current-context"`
	// Preferences of the shared document are opaque to the merge and are
	// never written to.
	Preferences *yaml.Node          `yaml:"preferences,omitempty"`
	Clusters    []SharedClusterEntry `yaml:"clusters"`
	Contexts    []SharedContextEntry `yaml:"contexts"`
	Users       []SharedUserEntry    `yaml:"users"`
}

// SharedClusterEntry is a cluster entry with an opaque body.
type SharedClusterEntry struct {
	Name    string    `yaml:"name"`
	Cluster yaml.Node `yaml:"cluster"`
}

// SharedContextEntry is a context entry with an opaque body.
type SharedContextEntry struct {
	Name    string    `yaml:"name"`
	Context yaml.Node `yaml:"context"`
}

// SharedUserEntry is a user entry with an opaque body.
type SharedUserEntry struct {
	Name string    `yaml:"name"`
	User yaml.Node `yaml:"user"`
}
