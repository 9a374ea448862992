package model

// HashValue is a SHA-256 digest stored as a lowercase hex string.
type HashValue string

// ChainGenesis is the fixed previous-signature value of the very first
// audit entry ever written. It never changes across releases; verification
// of historical segments depends on it.
const ChainGenesis HashValue = "0000000000000000000000000000000000000000000000000000000000000000"

// RepoClass classifies a repository working tree at certification time.
type RepoClass string

const (
	RepoClean       RepoClass = "CLEAN"
	RepoModified    RepoClass = "MODIFIED"
	RepoUnavailable RepoClass = "UNAVAILABLE"
)
