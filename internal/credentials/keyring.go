package credentials

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// SystemKeyring is the production Backend, wrapping the platform secret
// service (Secret Service on Linux, Keychain on macOS, Credential Manager on
// Windows) via the go-keyring library.
type SystemKeyring struct{}

func (SystemKeyring) Get(service, account string) Result {
	secret, err := keyring.Get(service, account)
	switch {
	case err == nil:
		return Found(secret)
	case errors.Is(err, keyring.ErrNotFound):
		return NotFound()
	default:
		return Unavailable(err.Error())
	}
}

func (SystemKeyring) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

func (SystemKeyring) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	// Deleting an absent entry is a no-op.
	return nil
}

// ErrIndicatesUnavailable reports whether a secret-store error text points at
// the daemon being absent (as opposed to a transient or permission error).
// Used to decide whether the file-based fallback store applies.
func ErrIndicatesUnavailable(errText string) bool {
	lower := strings.ToLower(errText)
	return strings.Contains(lower, "secret service") ||
		strings.Contains(lower, "dbus") ||
		strings.Contains(lower, "org.freedesktop.secrets") ||
		strings.Contains(lower, "platform secure storage")
}
