package model

import "time"

// ChangeKind identifies how a file in the working tree differs from HEAD.
type ChangeKind string

const (
	ChangeModified  ChangeKind = "modified"
	ChangeAdded     ChangeKind = "added"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeRenamed   ChangeKind = "renamed"
	ChangeCopied    ChangeKind = "copied"
	ChangeUntracked ChangeKind = "untracked"
	ChangeConflict  ChangeKind = "conflict"
)

// FileChange is a single working-tree change reported by the inspector.
type FileChange struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// CommitInfo summarizes a single commit.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Author    string    `json:"author"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RepositoryState is the inspector's view of a repository at query time.
// It is ephemeral: recomputed on every query, never persisted directly.
type RepositoryState struct {
	Name          string       `json:"name"`
	Path          string       `json:"path"`
	RemoteURL     string       `json:"remote_url,omitempty"`
	CurrentBranch string       `json:"current_branch"`
	LastCommit    *CommitInfo  `json:"last_commit,omitempty"`
	ModifiedFiles []FileChange `json:"modified_files,omitempty"`
	CommitsAhead  int          `json:"commits_ahead"`
	IsValid       bool         `json:"is_valid"`
}

// HasChanges reports whether the working tree has local modifications.
func (s *RepositoryState) HasChanges() bool {
	return len(s.ModifiedFiles) > 0
}

// SyncedWithRemote reports whether every local commit is on the remote.
func (s *RepositoryState) SyncedWithRemote() bool {
	return s.CommitsAhead == 0
}

// Classify returns the certification class of the working tree.
func (s *RepositoryState) Classify() RepoClass {
	if !s.IsValid {
		return RepoUnavailable
	}
	if s.HasChanges() {
		return RepoModified
	}
	return RepoClean
}
