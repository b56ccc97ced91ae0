package moqt

import (
	"crypto/tls"
	"time"

	"github.com/zsiec/moqt/internal/certs"
)

// SelfSignedCertificate generates an ephemeral ECDSA P-256 certificate
// suitable for Listen's Config.Certificate field, capped at WebTransport's
// 14-day maximum validity. It also returns the certificate's SHA-256
// fingerprint, base64-encoded, for clients that pin via
// serverCertificateHashes instead of a trusted CA chain.
func SelfSignedCertificate(validity time.Duration) (tls.Certificate, string, error) {
	info, err := certs.Generate(validity)
	if err != nil {
		return tls.Certificate{}, "", err
	}
	return info.TLSCert, info.FingerprintBase64(), nil
}
