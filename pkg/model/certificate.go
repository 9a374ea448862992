package model

import (
	"fmt"
	"strings"
	"time"
)

// CertificateAction records which version-control operation the
// certificate attests to.
type CertificateAction string

const (
	ActionPush       CertificateAction = "Push"
	ActionCommitPush CertificateAction = "Commit+Push"
)

// DeploymentCertificate asserts that a specific commit of a specific
// repository was pushed by a specific operator at a specific time.
// Immutable once issued; stored append-only, evicted oldest-first.
type DeploymentCertificate struct {
	CertificateID string            `json:"certificate_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Repository    string            `json:"repository"`
	MachineID     string            `json:"machine_id"`
	OperatorName  string            `json:"operator_name"`
	CommitHash    string            `json:"commit_hash"`
	Branch        string            `json:"branch"`
	Action        CertificateAction `json:"action"`
	Description   string            `json:"description,omitempty"`
	IntegrityHash HashValue         `json:"integrity_hash"`
}

// NewCertificateID builds the unique certificate identifier
// DEPLOY-{REPO}-{yyyyMMdd-HHmmss}.
func NewCertificateID(repository string, ts time.Time) string {
	return fmt.Sprintf("DEPLOY-%s-%s",
		strings.ToUpper(repository), ts.UTC().Format("20060102-150405"))
}

// ComponentSummary is the read-only view an SBOM or vulnerability
// collaborator supplies for certificate metadata.
type ComponentSummary struct {
	ComponentName      string `json:"component_name"`
	Version            string `json:"version"`
	VulnerabilityCount int    `json:"vulnerability_count"`
}

// RepoIntegrity is one repository's entry in an on-demand integrity bundle.
// A failed repository query populates Error and leaves the rest zeroed;
// the bundle as a whole still succeeds.
type RepoIntegrity struct {
	Repository       string             `json:"repository"`
	Class            RepoClass          `json:"class"`
	SyncedWithRemote bool               `json:"synced_with_remote"`
	CommitHash       string             `json:"commit_hash,omitempty"`
	Branch           string             `json:"branch,omitempty"`
	IntegrityHash    HashValue          `json:"integrity_hash,omitempty"`
	Components       []ComponentSummary `json:"components,omitempty"`
	Error            string             `json:"error,omitempty"`
}

// IntegrityBundle is the result of an on-demand integrity certification
// across all configured repositories.
type IntegrityBundle struct {
	Timestamp    time.Time       `json:"timestamp"`
	MachineID    string          `json:"machine_id"`
	OperatorName string          `json:"operator_name"`
	Entries      []RepoIntegrity `json:"entries"`
}
