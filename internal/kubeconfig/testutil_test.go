package kubeconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// selfSignedCertB64 generates a self-signed client certificate expiring at
// notAfter and returns it base64-encoded the way kubeconfigs embed it.
func selfSignedCertB64(t *testing.T, notAfter time.Time) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "system:admin"},
		NotBefore:    notAfter.Add(-24 * time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return base64.StdEncoding.EncodeToString(pemBytes)
}

// k3sStyleDocument builds the single-entry document shape k3s emits, with a
// client certificate expiring at notAfter.
func k3sStyleDocument(t *testing.T, notAfter time.Time) *Document {
	t.Helper()
	return &Document{
		APIVersion:     "v1",
		Kind:           "Config",
		CurrentContext: "default",
		Clusters: []NamedCluster{{
			Name: "default",
			Cluster: Cluster{
				Server:                   "https://127.0.0.1:6443",
				CertificateAuthorityData: base64.StdEncoding.EncodeToString([]byte("ca-data")),
			},
		}},
		Contexts: []NamedContext{{
			Name:    "default",
			Context: Context{Cluster: "default", User: "default"},
		}},
		Users: []NamedUser{{
			Name: "default",
			User: User{
				ClientCertificateData: selfSignedCertB64(t, notAfter),
				ClientKeyData:         base64.StdEncoding.EncodeToString([]byte("key-data")),
			},
		}},
	}
}
