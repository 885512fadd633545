// Package credentials resolves per-host SSH passwords from the platform
// secret store, with a shared default account as fallback. Secret values
// never appear in logs or debug output; every code path that could render a
// Result redacts the password.
package credentials

import "fmt"

const (
	// Service is the secret-store service name under which all kubesync
	// entries are stored.
	Service = "kubesync"
	// DefaultAccount is the reserved account used when a host has no
	// dedicated entry.
	DefaultAccount = "_default"
)

// Status classifies the outcome of a credential lookup.
type Status int

const (
	// StatusFound means a secret was located.
	StatusFound Status = iota
	// StatusNotFound means no entry exists; callers fall back to key or
	// agent authentication.
	StatusNotFound
	// StatusUnavailable means the secret store itself could not be reached
	// (locked keyring, no D-Bus daemon). Distinct from NotFound: the
	// operator must intervene, typically by logging in so the session
	// keyring unlocks.
	StatusUnavailable
)

// Result is the outcome of a credential lookup. The secret is deliberately
// unexported; use Secret() at the single point it is consumed.
type Result struct {
	status Status
	secret string
	reason string
}

// Found constructs a Result carrying a secret.
func Found(secret string) Result { return Result{status: StatusFound, secret: secret} }

// NotFound constructs a Result for a missing entry.
func NotFound() Result { return Result{status: StatusNotFound} }

// Unavailable constructs a Result for an unreachable secret store.
func Unavailable(reason string) Result { return Result{status: StatusUnavailable, reason: reason} }

// Status returns the lookup classification.
func (r Result) Status() Status { return r.status }

// Secret returns the resolved secret. Only meaningful when Status is
// StatusFound.
func (r Result) Secret() string { return r.secret }

// Reason returns the unavailability cause. Only meaningful when Status is
// StatusUnavailable.
func (r Result) Reason() string { return r.reason }

// String renders the result for diagnostics with the secret redacted.
func (r Result) String() string {
	switch r.status {
	case StatusFound:
		return "Found(<redacted>)"
	case StatusNotFound:
		return "NotFound"
	case StatusUnavailable:
		return fmt.Sprintf("Unavailable(%s)", r.reason)
	default:
		return "Unknown"
	}
}

// Format implements fmt.Formatter so that %v, %+v and %#v all go through the
// redacting String rather than reflection over the secret field.
func (r Result) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, r.String())
}

// Backend abstracts the secret store so tests can substitute an in-memory
// implementation. Get never returns an error; store-level failures are
// encoded as an Unavailable Result.
type Backend interface {
	Get(service, account string) Result
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// Resolve looks up the secret for a host: the host's own account first, then
// the default account. A store failure on the primary lookup short-circuits
// to Unavailable without consulting the default.
func Resolve(hostName string, backend Backend) Result {
	primary := backend.Get(Service, hostName)
	if primary.Status() != StatusNotFound {
		return primary
	}
	fallback := backend.Get(Service, DefaultAccount)
	if fallback.Status() == StatusFound {
		return fallback
	}
	return NotFound()
}

// Presence reports whether an account has a stored secret, without exposing
// the value.
type Presence struct {
	Account string
	Present bool
}

// Check returns presence flags for the given host names plus the default
// account. Secret values are never included.
func Check(hostNames []string, backend Backend) []Presence {
	accounts := append([]string{}, hostNames...)
	accounts = append(accounts, DefaultAccount)

	out := make([]Presence, 0, len(accounts))
	for _, account := range accounts {
		res := backend.Get(Service, account)
		out = append(out, Presence{
			Account: account,
			Present: res.Status() == StatusFound,
		})
	}
	return out
}
