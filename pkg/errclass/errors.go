package errclass

import "fmt"

// SealError is a stable, machine-readable error class.
type SealError struct {
	Code    string
	Message string
}

func (e *SealError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SealError) Is(target error) bool {
	t, ok := target.(*SealError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new SealError with the same Code but a specific message.
func (e *SealError) WithMessage(msg string) *SealError {
	return &SealError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new SealError with a formatted message.
func (e *SealError) WithMessagef(format string, args ...any) *SealError {
	return &SealError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	// ErrRepoNotFound: the path does not exist or is not a repository root.
	// Fatal to the single request, never retried.
	ErrRepoNotFound = &SealError{Code: "E_REPO_NOT_FOUND"}
	// ErrRepoQuery: the version-control process failed. The message carries
	// the raw diagnostic text; retry policy is the caller's decision.
	ErrRepoQuery = &SealError{Code: "E_REPO_QUERY"}
	// ErrRepoBusy: a mutating operation is already in flight on the path.
	ErrRepoBusy = &SealError{Code: "E_REPO_BUSY"}
	// ErrVersionExhausted: the two-digit CalVer increment reached 99.
	// Requires operator intervention, never auto-retried.
	ErrVersionExhausted = &SealError{Code: "E_VERSION_EXHAUSTED"}
	// ErrChainBroken: audit chain verification found a broken link.
	// Always surfaced, treated as a security incident.
	ErrChainBroken = &SealError{Code: "E_CHAIN_BROKEN"}
	// ErrSegmentCorrupt: an audit segment could not be parsed.
	ErrSegmentCorrupt = &SealError{Code: "E_SEGMENT_CORRUPT"}
	// ErrPartialWorkflow: commit succeeded but push did not. The local
	// commit is retained; the caller retries the push alone.
	ErrPartialWorkflow = &SealError{Code: "E_PARTIAL_WORKFLOW"}
	// ErrCertStoreCorrupt: the certificate log could not be read.
	ErrCertStoreCorrupt = &SealError{Code: "E_CERT_STORE_CORRUPT"}
	// ErrBackupFailed: the export archive could not be produced at all.
	ErrBackupFailed = &SealError{Code: "E_BACKUP_FAILED"}
	// ErrNameInvalid: a repository or tag name failed validation.
	ErrNameInvalid = &SealError{Code: "E_NAME_INVALID"}
)
