package kubeconfig

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"kubesync/pkg/logging"
)

const apiServerPort = 6443

// Parse decodes raw kubeconfig bytes into a Document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing kubeconfig: %w", err)
	}
	return &doc, nil
}

// Normalize rewrites a freshly fetched document in place so it can merge
// cleanly into the shared kubeconfig:
//
//   - the cluster's server URL is pointed at the configured target IP,
//   - cluster, context, and user (and all cross-references) are renamed to
//     the host's context name, collapsing the k3s default triple into one
//     identity that cannot collide with other hosts,
//   - host-local metadata (source hash, fetch time, certificate expiry) is
//     recorded in the preferences section.
func (d *Document) Normalize(targetIP, contextName, sourceHash string, now time.Time) error {
	if len(d.Clusters) == 0 {
		return fmt.Errorf("no clusters found in the kubeconfig file")
	}
	if len(d.Contexts) == 0 {
		return fmt.Errorf("no contexts found in the kubeconfig file")
	}

	d.addMetadata(contextName, sourceHash, now)

	cluster := &d.Clusters[0]
	logging.Debug("kubeconfig", "[%s] rewriting cluster server from %q to https://%s:%d",
		contextName, cluster.Cluster.Server, targetIP, apiServerPort)
	cluster.Cluster.Server = fmt.Sprintf("https://%s:%d", targetIP, apiServerPort)
	cluster.Name = contextName

	if len(d.Users) > 0 {
		d.Users[0].Name = contextName
	}
	ctx := &d.Contexts[0]
	ctx.Name = contextName
	ctx.Context.Cluster = contextName
	ctx.Context.User = contextName
	d.CurrentContext = contextName

	return nil
}

func (d *Document) addMetadata(contextName, sourceHash string, now time.Time) {
	if d.Preferences == nil {
		d.Preferences = make(map[string]string)
	}
	d.Preferences[MetaSourceHash] = sourceHash
	d.Preferences[MetaLastUpdated] = now.UTC().Format(time.RFC3339)

	expiry, err := d.CertNotAfter()
	if err != nil {
		// An unreadable certificate only costs the expiry gate; the next
		// run will fetch again rather than skip.
		logging.Warn("kubeconfig", "[%s] could not extract certificate expiry: %v", contextName, err)
		return
	}
	d.Preferences[MetaCertExpiry] = expiry.UTC().Format(time.RFC3339)
}

// CertNotAfter parses the client certificate of the current context's user
// and returns its expiry.
func (d *Document) CertNotAfter() (time.Time, error) {
	var userName string
	for _, ctx := range d.Contexts {
		if ctx.Name == d.CurrentContext {
			userName = ctx.Context.User
			break
		}
	}
	if userName == "" {
		return time.Time{}, fmt.Errorf("context %q not found", d.CurrentContext)
	}

	var certData string
	for _, user := range d.Users {
		if user.Name == userName {
			certData = user.User.ClientCertificateData
			break
		}
	}
	if certData == "" {
		return time.Time{}, fmt.Errorf("user %q has no client certificate", userName)
	}

	pemBytes, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding client certificate: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return time.Time{}, fmt.Errorf("no PEM block in client certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing client certificate: %w", err)
	}
	return cert.NotAfter, nil
}

// RecordedSourceHash returns the source hash stored in a cached document's
// metadata, or "" when absent. Used to notice remote rotation between runs.
func (d *Document) RecordedSourceHash() string {
	return d.Preferences[MetaSourceHash]
}
