package kubeconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/tools/clientcmd"

	"kubesync/pkg/logging"
)

// SharedConfigPath returns the path of the shared kubeconfig, the standard
// per-user location kubectl reads. Failing to resolve it is the one fatal
// setup error: no merge target means no host-level work can proceed.
func SharedConfigPath() (string, error) {
	if _, err := os.UserHomeDir(); err != nil {
		return "", fmt.Errorf("cannot resolve home directory for shared kubeconfig: %w", err)
	}
	return clientcmd.RecommendedHomeFile, nil
}

// LoadShared reads the shared kubeconfig at path, or returns a freshly
// initialized empty document when the file does not exist yet.
func LoadShared(path string) (*SharedConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SharedConfig{APIVersion: "v1", Kind: "Config"}, nil
		}
		return nil, fmt.Errorf("reading shared kubeconfig %s: %w", path, err)
	}
	var shared SharedConfig
	if err := yaml.Unmarshal(content, &shared); err != nil {
		return nil, fmt.Errorf("parsing shared kubeconfig %s: %w", path, err)
	}
	return &shared, nil
}

// MergeIntoShared upserts the normalized document's cluster, context, and
// user entries into the shared kubeconfig at sharedPath. Entries are
// replaced by name; everything else in the shared document - other entries,
// current-context, its own preferences - is left untouched. The per-host
// preferences metadata is never copied across. In dry-run mode the merge is
// evaluated and reported but nothing is written.
//
// Callers running concurrently must serialize calls for the same sharedPath;
// the orchestrator holds its merge mutex across this read-modify-write.
func MergeIntoShared(doc *Document, sharedPath string, dryRun bool) error {
	shared, err := LoadShared(sharedPath)
	if err != nil {
		return err
	}

	for _, c := range doc.Clusters {
		node, err := encodeNode(c.Cluster)
		if err != nil {
			return fmt.Errorf("encoding cluster %q: %w", c.Name, err)
		}
		shared.Clusters = upsertCluster(shared.Clusters, SharedClusterEntry{Name: c.Name, Cluster: *node})
	}
	for _, c := range doc.Contexts {
		node, err := encodeNode(c.Context)
		if err != nil {
			return fmt.Errorf("encoding context %q: %w", c.Name, err)
		}
		shared.Contexts = upsertContext(shared.Contexts, SharedContextEntry{Name: c.Name, Context: *node})
	}
	for _, u := range doc.Users {
		node, err := encodeNode(u.User)
		if err != nil {
			return fmt.Errorf("encoding user %q: %w", u.Name, err)
		}
		shared.Users = upsertUser(shared.Users, SharedUserEntry{Name: u.Name, User: *node})
	}

	if dryRun {
		logging.Info("merge", "DRY-RUN: would merge %d cluster(s), %d context(s), %d user(s) into %s",
			len(doc.Clusters), len(doc.Contexts), len(doc.Users), sharedPath)
		return nil
	}

	out, err := yaml.Marshal(shared)
	if err != nil {
		return fmt.Errorf("serializing shared kubeconfig: %w", err)
	}
	if err := atomicWrite(sharedPath, out, 0o600); err != nil {
		return fmt.Errorf("writing shared kubeconfig: %w", err)
	}
	logging.Debug("merge", "merged %d cluster(s), %d context(s), %d user(s) into %s",
		len(doc.Clusters), len(doc.Contexts), len(doc.Users), sharedPath)
	return nil
}

func encodeNode(v interface{}) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return &node, nil
}

func upsertCluster(entries []SharedClusterEntry, entry SharedClusterEntry) []SharedClusterEntry {
	kept := entries[:0]
	for _, e := range entries {
		if e.Name != entry.Name {
			kept = append(kept, e)
		}
	}
	return append(kept, entry)
}

func upsertContext(entries []SharedContextEntry, entry SharedContextEntry) []SharedContextEntry {
	kept := entries[:0]
	for _, e := range entries {
		if e.Name != entry.Name {
			kept = append(kept, e)
		}
	}
	return append(kept, entry)
}

func upsertUser(entries []SharedUserEntry, entry SharedUserEntry) []SharedUserEntry {
	kept := entries[:0]
	for _, e := range entries {
		if e.Name != entry.Name {
			kept = append(kept, e)
		}
	}
	return append(kept, entry)
}

// WriteDocument serializes a per-host document to path atomically.
func WriteDocument(doc *Document, path string) error {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing kubeconfig: %w", err)
	}
	return atomicWrite(path, out, 0o600)
}

// atomicWrite replaces path via a temp file and rename so an interrupted
// process never leaves a half-written document behind.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
