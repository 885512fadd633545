// Package run drives the per-host pipeline (expiry gate, credential
// resolution, remote fetch, normalize, merge) concurrently across the
// fleet, and records the aggregate outcome for external observers.
package run

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kubesync/internal/config"
	"kubesync/internal/credentials"
	"kubesync/internal/kubeconfig"
	"kubesync/internal/sshfetch"
	"kubesync/internal/state"
	"kubesync/pkg/logging"
)

// Fetcher retrieves a remote file; the SSH implementation is swapped out in
// tests.
type Fetcher func(sshfetch.Options) ([]byte, error)

// Options controls a single run.
type Options struct {
	// DryRun evaluates and reports every action without writing the cache
	// files or the shared kubeconfig.
	DryRun bool
	// Force bypasses the expiry gate so every selected host is fetched.
	Force bool
	// Hosts restricts the run to a subset of configured host names. Empty
	// means all.
	Hosts []string
}

// Orchestrator runs the pipeline. Zero-value fields are filled in by New.
type Orchestrator struct {
	Config     *config.Config
	Backend    credentials.Backend
	Fetch      Fetcher
	States     state.Store
	SharedPath string
	Now        func() time.Time

	// mergeMu serializes the shared kubeconfig's read-modify-write; all
	// other pipeline stages touch only per-host resources.
	mergeMu sync.Mutex
	// stateMu serializes incremental run-state updates.
	stateMu sync.Mutex
}

// New wires the production orchestrator: system credential stack, real SSH
// fetcher, default state file, shared kubeconfig at the standard location.
// Failing to resolve the shared path is fatal to the run.
func New(cfg *config.Config) (*Orchestrator, error) {
	sharedPath, err := kubeconfig.SharedConfigPath()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Config:     cfg,
		Backend:    credentials.DefaultStack(),
		Fetch:      sshfetch.Fetch,
		States:     state.NewStore(),
		SharedPath: sharedPath,
		Now:        time.Now,
	}, nil
}

// Run processes the selected hosts concurrently and returns the aggregate
// summary. Per-host failures are data, not errors; the returned error is
// non-nil only for setup failures that prevent any host-level work.
func (o *Orchestrator) Run(opts Options) (Summary, error) {
	if err := os.MkdirAll(o.Config.LocalOutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory %s: %w", o.Config.LocalOutputDir, err)
	}

	hosts := o.selectHosts(opts.Hosts)
	if len(hosts) == 0 {
		logging.Warn("orchestrator", "no hosts selected; check --servers or the config file")
		return Summary{}, nil
	}
	logging.Debug("orchestrator", "processing %d host(s), output dir %s", len(hosts), o.Config.LocalOutputDir)

	outcomes := make([]Outcome, len(hosts))
	var wg sync.WaitGroup
	for i, h := range hosts {
		wg.Add(1)
		go func(i int, h *config.Host) {
			defer wg.Done()
			outcome := o.processHost(h, opts)
			outcomes[i] = outcome
			// Incremental state update: an observer polling mid-run sees
			// completed hosts immediately.
			o.recordState(h.Name, outcome)
		}(i, h)
	}
	wg.Wait()

	var summary Summary
	for i, outcome := range outcomes {
		summary.add(outcome)
		o.logOutcome(hosts[i].Name, outcome)
	}
	return summary, nil
}

func (o *Orchestrator) selectHosts(names []string) []*config.Host {
	if len(names) == 0 {
		hosts := make([]*config.Host, 0, len(o.Config.Hosts))
		for i := range o.Config.Hosts {
			hosts = append(hosts, &o.Config.Hosts[i])
		}
		return hosts
	}
	var hosts []*config.Host
	for _, name := range names {
		if h := o.Config.HostByName(name); h != nil {
			hosts = append(hosts, h)
		} else {
			logging.Warn("orchestrator", "host %q not found in config, ignoring", name)
		}
	}
	return hosts
}

// processHost runs the full pipeline for one host. Every error is caught
// here and folded into the outcome; nothing propagates to the run boundary.
func (o *Orchestrator) processHost(h *config.Host, opts Options) Outcome {
	cachePath := filepath.Join(o.Config.LocalOutputDir, h.Name)

	// Gate: skip the host entirely while its cached cert is still valid.
	if !opts.Force {
		switch status := kubeconfig.CheckCertExpiry(cachePath, o.Now()); status.State {
		case kubeconfig.CertValid:
			logging.Debug("orchestrator", "[%s] cert valid until %s, skipping", h.Name, status.Expiry.Format(time.RFC3339))
			return Outcome{Kind: OutcomeSkippedCertValid, Expiry: status.Expiry}
		case kubeconfig.CertExpired:
			logging.Info("orchestrator", "[%s] cert expired, fetching", h.Name)
		case kubeconfig.CertUnknown:
			logging.Info("orchestrator", "[%s] cert status unknown, fetching to be safe", h.Name)
		}
	}

	// Credentials: NotFound is fine (key or agent auth takes over), but an
	// unreachable store means the operator has to act first.
	var password string
	switch res := credentials.Resolve(h.Name, o.Backend); res.Status() {
	case credentials.StatusFound:
		password = res.Secret()
	case credentials.StatusNotFound:
	case credentials.StatusUnavailable:
		logging.Warn("orchestrator",
			"[%s] credential store unavailable (%s); skipping - run 'kubesync credential set' or log in to unlock the keyring",
			h.Name, res.Reason())
		return Outcome{Kind: OutcomeSkippedNoCredential}
	}

	user, err := h.SSHUser(o.Config)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	remotePath, err := h.FullRemotePath(o.Config)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	raw, err := o.Fetch(sshfetch.Options{
		HostName:      h.Name,
		Address:       h.Address,
		User:          user,
		RemotePath:    remotePath,
		IdentityFile:  h.SSHIdentityFile(o.Config),
		Password:      password,
		StrictHostKey: o.Config.StrictHostKey,
	})
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	sum := sha256.Sum256(raw)
	sourceHash := hex.EncodeToString(sum[:])
	o.warnOnRotation(h.Name, cachePath, sourceHash)

	doc, err := kubeconfig.Parse(raw)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("[%s] %w", h.Name, err)}
	}
	if err := doc.Normalize(h.TargetClusterIP, h.MergedContextName(), sourceHash, o.Now()); err != nil {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("[%s] %w", h.Name, err)}
	}

	if opts.DryRun {
		logging.Info("orchestrator", "[%s] DRY-RUN: would write cache to %s", h.Name, cachePath)
	} else {
		if err := kubeconfig.WriteDocument(doc, cachePath); err != nil {
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("[%s] writing cache: %w", h.Name, err)}
		}
		logging.Debug("orchestrator", "[%s] cache written to %s", h.Name, cachePath)
	}

	o.mergeMu.Lock()
	err = kubeconfig.MergeIntoShared(doc, o.SharedPath, opts.DryRun)
	o.mergeMu.Unlock()
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("[%s] %w", h.Name, err)}
	}

	return Outcome{Kind: OutcomeFetched}
}

// warnOnRotation flags a remote kubeconfig that changed since the last run,
// which usually means the cluster rotated its certificates.
func (o *Orchestrator) warnOnRotation(name, cachePath, freshHash string) {
	content, err := os.ReadFile(cachePath)
	if err != nil {
		return
	}
	cached, err := kubeconfig.Parse(content)
	if err != nil {
		return
	}
	if old := cached.RecordedSourceHash(); old != "" && old != freshHash {
		logging.Warn("orchestrator", "[%s] remote kubeconfig changed since last run (sha256 %.8s -> %.8s)",
			name, old, freshHash)
	}
}

func (o *Orchestrator) recordState(name string, outcome Outcome) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if err := o.States.UpdateHost(name, stateFor(outcome, o.Now().UTC())); err != nil {
		logging.Warn("orchestrator", "could not write run state: %v", err)
	}
}

func (o *Orchestrator) logOutcome(name string, outcome Outcome) {
	switch outcome.Kind {
	case OutcomeFetched:
		logging.Info("orchestrator", "[%s] fetched and merged", name)
	case OutcomeSkippedCertValid:
		logging.Debug("orchestrator", "[%s] skipped, cert valid until %s", name, outcome.Expiry.Format(time.RFC3339))
	case OutcomeSkippedNoCredential:
		logging.Info("orchestrator", "[%s] skipped, credential store unavailable", name)
	case OutcomeFailed:
		logging.Error("orchestrator", outcome.Err, "[%s] failed", name)
	}
}
