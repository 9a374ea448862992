package integrity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deployseal/deployseal/internal/integrity"
)

func TestDigest_Deterministic(t *testing.T) {
	h1 := integrity.Digest("abc123|backend|2025-12-01T10:00:00Z")
	h2 := integrity.Digest("abc123|backend|2025-12-01T10:00:00Z")
	assert.Equal(t, h1, h2, "digest must be deterministic")
	assert.Len(t, string(h1), 64)
}

func TestDigest_DifferentInputs(t *testing.T) {
	h1 := integrity.Digest("abc123|backend|2025-12-01T10:00:00Z")
	h2 := integrity.Digest("abc123|frontend|2025-12-01T10:00:00Z")
	assert.NotEqual(t, h1, h2)
}

func TestDigest_KnownValue(t *testing.T) {
	// sha256("") is a fixed constant; guards against accidental double hashing.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		string(integrity.Digest("")))
}

func TestCertificateHash_UsesUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	local := time.Date(2025, 12, 1, 11, 0, 0, 0, loc)
	utc := local.UTC()

	assert.Equal(t,
		integrity.CertificateHash("abc", "backend", local),
		integrity.CertificateHash("abc", "backend", utc),
		"certificate hash must not depend on the wall-clock zone")
}

func TestCertificateHash_MatchesDigestScheme(t *testing.T) {
	ts := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	want := integrity.Digest("abc123|backend|2025-12-01T10:00:00Z")
	assert.Equal(t, want, integrity.CertificateHash("abc123", "backend", ts))
}

func TestBackupSummaryHash(t *testing.T) {
	ts := time.Date(2025, 12, 1, 10, 30, 0, 0, time.UTC)
	want := integrity.Digest("abc123main2025-12-01")
	assert.Equal(t, want, integrity.BackupSummaryHash("abc123", "main", ts))
}
