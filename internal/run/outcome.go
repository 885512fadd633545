package run

import (
	"fmt"
	"strings"
	"time"

	"kubesync/internal/state"
)

// OutcomeKind is the closed set of per-host results.
type OutcomeKind int

const (
	// OutcomeFetched: the full pipeline ran and the host's entries were
	// merged into the shared kubeconfig.
	OutcomeFetched OutcomeKind = iota
	// OutcomeSkippedCertValid: the cached certificate is still valid; no
	// network or credential work was done.
	OutcomeSkippedCertValid
	// OutcomeSkippedNoCredential: the secret store was unreachable. The
	// operator must unlock it; skipping beats failing the whole run.
	OutcomeSkippedNoCredential
	// OutcomeFailed: some pipeline stage failed for this host.
	OutcomeFailed
)

// Outcome is one host's result. Expiry is set for OutcomeSkippedCertValid,
// Err for OutcomeFailed.
type Outcome struct {
	Kind   OutcomeKind
	Expiry time.Time
	Err    error
}

// Summary aggregates outcomes across the run.
type Summary struct {
	Fetched             int
	SkippedCertValid    int
	SkippedNoCredential int
	Failed              int
}

func (s *Summary) add(o Outcome) {
	switch o.Kind {
	case OutcomeFetched:
		s.Fetched++
	case OutcomeSkippedCertValid:
		s.SkippedCertValid++
	case OutcomeSkippedNoCredential:
		s.SkippedNoCredential++
	case OutcomeFailed:
		s.Failed++
	}
}

// Notable reports whether anything happened that deserves output. When every
// host was skipped-cert-valid the run stays silent, which keeps the cron
// happy path free of mail.
func (s Summary) Notable() bool {
	return s.Fetched > 0 || s.Failed > 0 || s.SkippedNoCredential > 0
}

// String renders the one-line aggregate emitted for notable runs.
func (s Summary) String() string {
	return fmt.Sprintf("Done. fetched=%d skipped_cert_valid=%d skipped_no_cred=%d failed=%d",
		s.Fetched, s.SkippedCertValid, s.SkippedNoCredential, s.Failed)
}

// stateFor maps an outcome to its persisted run-state record. Authentication
// rejections get their own category so the dashboard can point the operator
// at a bad password rather than a generic failure.
func stateFor(o Outcome, now time.Time) state.HostState {
	hs := state.HostState{LastUpdated: &now}
	switch o.Kind {
	case OutcomeFetched:
		hs.Status = state.StatusFetched
	case OutcomeSkippedCertValid:
		hs.Status = state.StatusSkipped
	case OutcomeSkippedNoCredential:
		hs.Status = state.StatusNoCredential
	case OutcomeFailed:
		hs.Status = state.StatusFailed
		if o.Err != nil {
			hs.Error = o.Err.Error()
			if isAuthRejected(o.Err.Error()) {
				hs.Status = state.StatusAuthRejected
			}
		}
	}
	return hs
}

func isAuthRejected(errText string) bool {
	lower := strings.ToLower(errText)
	return strings.Contains(lower, "unable to authenticate") ||
		strings.Contains(lower, "authentication failed") ||
		strings.Contains(lower, "auth rejected") ||
		strings.Contains(lower, "permission denied")
}
