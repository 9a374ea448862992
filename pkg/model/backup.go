package model

import "time"

// Backup reasons recorded in the backup log.
const (
	BackupReasonManual  = "Manual Export"
	BackupReasonOffline = "Offline Backup (pending commits)"
)

// BackupLogEntry records one working-tree export. The log is append-only
// and capped at the most recent entries, oldest truncated first.
type BackupLogEntry struct {
	Timestamp           time.Time `json:"timestamp"`
	Repository          string    `json:"repository"`
	MachineID           string    `json:"machine_id"`
	OperatorName        string    `json:"operator_name"`
	FileName            string    `json:"file_name"`
	LastCommitHash      string    `json:"last_commit_hash,omitempty"`
	Branch              string    `json:"branch,omitempty"`
	WasSyncedWithRemote bool      `json:"was_synced_with_remote"`
	Reason              string    `json:"reason"`
}
