package credentials

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileStoreHeader = `# kubesync credentials
# Stored with restricted permissions (0600) - only you can read this file.
# Same security model as ~/.kube/config and ~/.ssh/id_rsa.
`

// FileStore is a fallback Backend for machines without a secret-service
// daemon (headless servers, minimal desktops). Secrets live in a
// tab-separated file under ~/.config/kubesync with owner-only permissions.
// Writes go through it only after the operator explicitly opts in.
type FileStore struct {
	Path string
}

// DefaultFileStorePath returns ~/.config/kubesync/credentials.
func DefaultFileStorePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "kubesync", "credentials"), nil
}

// load parses the store file. A missing or unreadable file is an empty store;
// malformed lines are skipped.
func (s FileStore) load() map[string]string {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return map[string]string{}
	}
	store := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		account, b64, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			continue
		}
		store[account] = string(secret)
	}
	return store
}

// save writes the store atomically with owner-only permissions on both the
// directory and the file.
func (s FileStore) save(store map[string]string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("restricting credentials directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(fileStoreHeader)
	for account, secret := range store {
		b.WriteString(account)
		b.WriteByte('\t')
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(secret)))
		b.WriteByte('\n')
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("finalizing credentials file: %w", err)
	}
	return nil
}

func (s FileStore) Get(service, account string) Result {
	if secret, ok := s.load()[account]; ok {
		return Found(secret)
	}
	return NotFound()
}

func (s FileStore) Set(service, account, secret string) error {
	store := s.load()
	store[account] = secret
	return s.save(store)
}

func (s FileStore) Delete(service, account string) error {
	store := s.load()
	if _, ok := store[account]; !ok {
		return nil
	}
	delete(store, account)
	return s.save(store)
}
