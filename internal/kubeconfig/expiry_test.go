package kubeconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCache(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prod-k3s")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func cacheWithExpiry(t *testing.T, expiry string) string {
	t.Helper()
	return writeCache(t, `
apiVersion: v1
kind: Config
current-context: prod-k3s
clusters: []
contexts: []
users: []
preferences:
  certificate-expires-at: "`+expiry+`"
`)
}

func TestCheckCertExpiry(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	t.Run("missing file is unknown", func(t *testing.T) {
		status := CheckCertExpiry(filepath.Join(t.TempDir(), "absent"), now)
		assert.Equal(t, CertUnknown, status.State)
	})

	t.Run("unparseable document is unknown", func(t *testing.T) {
		status := CheckCertExpiry(writeCache(t, "not: [valid: yaml"), now)
		assert.Equal(t, CertUnknown, status.State)
	})

	t.Run("missing expiry field is unknown", func(t *testing.T) {
		status := CheckCertExpiry(writeCache(t, `
apiVersion: v1
kind: Config
current-context: prod-k3s
preferences:
  source-file-sha256: abc123
`), now)
		assert.Equal(t, CertUnknown, status.State)
	})

	t.Run("malformed expiry timestamp is unknown", func(t *testing.T) {
		status := CheckCertExpiry(cacheWithExpiry(t, "next tuesday"), now)
		assert.Equal(t, CertUnknown, status.State)
	})

	t.Run("future expiry is valid", func(t *testing.T) {
		status := CheckCertExpiry(cacheWithExpiry(t, "2099-01-01T00:00:00Z"), now)
		assert.Equal(t, CertValid, status.State)
		assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), status.Expiry)
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		status := CheckCertExpiry(cacheWithExpiry(t, "2020-01-01T00:00:00Z"), now)
		assert.Equal(t, CertExpired, status.State)
		assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), status.Expiry)
	})

	t.Run("expiry exactly now is expired", func(t *testing.T) {
		status := CheckCertExpiry(cacheWithExpiry(t, now.Format(time.RFC3339)), now)
		assert.Equal(t, CertExpired, status.State)
	})
}
