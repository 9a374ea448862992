package model

import "time"

// AuditCategory groups audit entries by subsystem.
type AuditCategory string

const (
	CategoryIntegrity      AuditCategory = "integrity"
	CategorySbom           AuditCategory = "sbom"
	CategoryVulnerability  AuditCategory = "vulnerability"
	CategoryAuthentication AuditCategory = "authentication"
	CategoryConfiguration  AuditCategory = "configuration"
	CategoryGit            AuditCategory = "git"
	CategoryCertificate    AuditCategory = "certificate"
	CategorySystem         AuditCategory = "system"
)

// AuditAction identifies the concrete operation that produced an entry.
type AuditAction string

const (
	ActionCommitAndPush    AuditAction = "commit_and_push"
	ActionPushRetry        AuditAction = "push_retry"
	ActionCertifyDeploy    AuditAction = "certificate_issue"
	ActionCertifyIntegrity AuditAction = "integrity_certify"
	ActionBackupCreate     AuditAction = "backup_create"
	ActionChainVerify      AuditAction = "chain_verify"
	ActionChainRotate      AuditAction = "chain_rotate"
	ActionReleaseTag       AuditAction = "release_tag"
	ActionDiscardChanges   AuditAction = "discard_changes"
	ActionRevertCommit     AuditAction = "revert_commit"
	ActionConfigLoad       AuditAction = "config_load"
)

// AuditResult is the outcome of the audited operation.
type AuditResult string

const (
	ResultSuccess AuditResult = "success"
	ResultWarning AuditResult = "warning"
	ResultFailure AuditResult = "failure"
	ResultError   AuditResult = "error"
)

// AuditLogEntry is one line of the hash-chained audit log (JSONL).
// Signature covers the canonical serialization of every field except
// Signature itself, concatenated with PrevSignature.
type AuditLogEntry struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	Category       AuditCategory  `json:"category"`
	Action         AuditAction    `json:"action"`
	Result         AuditResult    `json:"result"`
	UserID         string         `json:"user_id,omitempty"`
	UserName       string         `json:"user_name,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	Details        string         `json:"details,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
	AffectedItems  int            `json:"affected_items,omitempty"`
	DurationMs     int64          `json:"duration_ms,omitempty"`
	PrevSignature  HashValue      `json:"prev_signature"`
	Signature      HashValue      `json:"signature"`
}
