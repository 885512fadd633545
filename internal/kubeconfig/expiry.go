package kubeconfig

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CertState classifies the validity of a cached certificate.
type CertState int

const (
	// CertUnknown covers every case where validity cannot be determined:
	// no cache file, unparseable document, missing or malformed expiry
	// field. Callers treat it like CertExpired and fetch to be safe.
	CertUnknown CertState = iota
	// CertExpired means the recorded expiry is at or before now.
	CertExpired
	// CertValid means the recorded expiry is in the future.
	CertValid
)

func (s CertState) String() string {
	switch s {
	case CertValid:
		return "valid"
	case CertExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// CertStatus is the result of the expiry gate. Expiry is set for CertValid
// and CertExpired.
type CertStatus struct {
	State  CertState
	Expiry time.Time
}

// CheckCertExpiry inspects the cached per-host kubeconfig at path and
// decides whether its client certificate is still valid at time now. It
// performs no I/O beyond the single file read, so tests can drive it fully
// through file content and the injected clock.
func CheckCertExpiry(path string, now time.Time) CertStatus {
	content, err := os.ReadFile(path)
	if err != nil {
		return CertStatus{State: CertUnknown}
	}

	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return CertStatus{State: CertUnknown}
	}

	expiryStr, ok := doc.Preferences[MetaCertExpiry]
	if !ok {
		return CertStatus{State: CertUnknown}
	}
	expiry, err := time.Parse(time.RFC3339, expiryStr)
	if err != nil {
		return CertStatus{State: CertUnknown}
	}

	if !expiry.After(now) {
		return CertStatus{State: CertExpired, Expiry: expiry}
	}
	return CertStatus{State: CertValid, Expiry: expiry}
}
