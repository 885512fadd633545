package kubeconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func normalizedDoc(t *testing.T, name string) *Document {
	t.Helper()
	doc := k3sStyleDocument(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, doc.Normalize("10.0.0.5", name, "cafebabe", time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)))
	return doc
}

func sharedPathIn(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config")
}

func loadSharedMap(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &m))
	return m
}

func TestMergeIntoEmptyShared(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, MergeIntoShared(normalizedDoc(t, "prod-k3s"), path, false))

	shared, err := LoadShared(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", shared.APIVersion)
	assert.Equal(t, "Config", shared.Kind)
	assert.Empty(t, shared.CurrentContext)
	require.Len(t, shared.Clusters, 1)
	assert.Equal(t, "prod-k3s", shared.Clusters[0].Name)
	require.Len(t, shared.Contexts, 1)
	require.Len(t, shared.Users, 1)
}

func TestMergeUpsertsByName(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, MergeIntoShared(normalizedDoc(t, "staging"), path, false))

	// Second merge for the same name replaces, never duplicates.
	second := k3sStyleDocument(t, time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, second.Normalize("10.9.9.9", "staging", "0ddba11", time.Now()))
	require.NoError(t, MergeIntoShared(second, path, false))

	shared, err := LoadShared(path)
	require.NoError(t, err)
	require.Len(t, shared.Clusters, 1)
	assert.Equal(t, "staging", shared.Clusters[0].Name)

	var cluster Cluster
	require.NoError(t, shared.Clusters[0].Cluster.Decode(&cluster))
	assert.Equal(t, "https://10.9.9.9:6443", cluster.Server)
}

func TestMergePreservesUnrelatedEntriesAndSelection(t *testing.T) {
	path := sharedPathIn(t)
	existing := `apiVersion: v1
kind: Config
current-context: corporate
clusters:
  - name: corporate
    cluster:
      server: https://corp.example.com
      certificate-authority: /etc/ssl/corp.pem
      extra-field: keep-me
contexts:
  - name: corporate
    context:
      cluster: corporate
      user: corp-user
      namespace: team-a
users:
  - name: corp-user
    user:
      exec:
        command: corp-login
        args: ["--sso"]
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	require.NoError(t, MergeIntoShared(normalizedDoc(t, "prod-k3s"), path, false))

	m := loadSharedMap(t, path)
	assert.Equal(t, "corporate", m["current-context"])

	clusters := m["clusters"].([]interface{})
	require.Len(t, clusters, 2)
	corp := clusters[0].(map[string]interface{})
	assert.Equal(t, "corporate", corp["name"])
	// Fields kubesync's own model doesn't know about survive untouched.
	body := corp["cluster"].(map[string]interface{})
	assert.Equal(t, "keep-me", body["extra-field"])
	assert.Equal(t, "/etc/ssl/corp.pem", body["certificate-authority"])

	users := m["users"].([]interface{})
	require.Len(t, users, 2)
	corpUser := users[0].(map[string]interface{})
	assert.Contains(t, corpUser["user"].(map[string]interface{}), "exec")
}

func TestMergeNeverCopiesHostMetadata(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, MergeIntoShared(normalizedDoc(t, "prod-k3s"), path, false))

	m := loadSharedMap(t, path)
	assert.NotContains(t, m, "preferences")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), MetaSourceHash)
	assert.NotContains(t, string(raw), MetaCertExpiry)
}

func TestMergeDryRunLeavesFileUntouched(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, MergeIntoShared(normalizedDoc(t, "one"), path, false))
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	beforeInfo, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, MergeIntoShared(normalizedDoc(t, "two"), path, true))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	afterInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, beforeInfo.ModTime(), afterInfo.ModTime())
}

func TestMergeDryRunAgainstMissingFileWritesNothing(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, MergeIntoShared(normalizedDoc(t, "one"), path, true))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadSharedRejectsCorruptFile(t *testing.T) {
	path := sharedPathIn(t)
	require.NoError(t, os.WriteFile(path, []byte("clusters: [broken"), 0o600))
	_, err := LoadShared(path)
	assert.Error(t, err)
}

func TestWriteDocumentAtomic(t *testing.T) {
	doc := normalizedDoc(t, "prod-k3s")
	path := filepath.Join(t.TempDir(), "cache", "prod-k3s")

	require.NoError(t, WriteDocument(doc, path))

	parsed, err := Parse(mustRead(t, path))
	require.NoError(t, err)
	assert.Equal(t, "prod-k3s", parsed.CurrentContext)
	assert.Equal(t, "cafebabe", parsed.RecordedSourceHash())

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}
