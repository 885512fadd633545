package kubectx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKubeconfig(t *testing.T, current string) string {
	t.Helper()
	content := `apiVersion: v1
kind: Config
current-context: ` + current + `
clusters:
- name: prod-k3s
  cluster:
    server: https://10.0.0.5:6443
- name: staging-k3s
  cluster:
    server: https://10.0.0.6:6443
contexts:
- name: prod-k3s
  context:
    cluster: prod-k3s
    user: prod-k3s
- name: staging-k3s
  context:
    cluster: staging-k3s
    user: staging-k3s
users:
- name: prod-k3s
  user: {}
- name: staging-k3s
  user: {}
`
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("KUBECONFIG", path)
	return path
}

func TestCurrent(t *testing.T) {
	writeKubeconfig(t, "prod-k3s")

	name, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "prod-k3s", name)
}

func TestCurrentUnset(t *testing.T) {
	writeKubeconfig(t, `""`)

	_, err := Current()
	assert.ErrorContains(t, err, "no current context")
}

func TestListSortedWithActiveMark(t *testing.T) {
	writeKubeconfig(t, "staging-k3s")

	entries, err := List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "prod-k3s", entries[0].Name)
	assert.False(t, entries[0].Active)
	assert.Equal(t, "staging-k3s", entries[1].Name)
	assert.True(t, entries[1].Active)
	assert.Equal(t, "staging-k3s", entries[1].Cluster)
}

func TestSwitch(t *testing.T) {
	writeKubeconfig(t, "prod-k3s")

	require.NoError(t, Switch("staging-k3s"))

	name, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "staging-k3s", name)
}

func TestSwitchUnknownContext(t *testing.T) {
	path := writeKubeconfig(t, "prod-k3s")

	err := Switch("nope")
	assert.ErrorContains(t, err, `context "nope" does not exist`)

	// The file is untouched on a failed switch.
	name, readErr := Current()
	require.NoError(t, readErr)
	assert.Equal(t, "prod-k3s", name)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
