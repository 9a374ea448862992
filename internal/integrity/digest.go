// Package integrity provides the digest computation shared by deployment
// certificates and the audit chain.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/deployseal/deployseal/pkg/model"
)

// Digest returns the SHA-256 digest of s as a lowercase hex string.
// Pure function; both the certificate issuer and the audit chain go
// through here so one implementation carries all the tests.
func Digest(s string) model.HashValue {
	sum := sha256.Sum256([]byte(s))
	return model.HashValue(hex.EncodeToString(sum[:]))
}

// DigestBytes returns the SHA-256 digest of raw bytes as hex.
func DigestBytes(b []byte) model.HashValue {
	sum := sha256.Sum256(b)
	return model.HashValue(hex.EncodeToString(sum[:]))
}

// CertificateHash computes a certificate's integrity hash from public,
// reconstructable inputs: SHA256(commitHash|repository|timestamp).
// The timestamp is rendered as RFC 3339 UTC so verification can rebuild
// the exact input from the stored record.
func CertificateHash(commitHash, repository string, ts time.Time) model.HashValue {
	return Digest(commitHash + "|" + repository + "|" + ts.UTC().Format(time.RFC3339))
}

// BackupSummaryHash computes the integrity summary embedded in a backup
// archive: SHA256(lastCommitHash + branch + dateStamp).
func BackupSummaryHash(lastCommitHash, branch string, ts time.Time) model.HashValue {
	return Digest(lastCommitHash + branch + ts.UTC().Format("2006-01-02"))
}
