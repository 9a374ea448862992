package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/fsutil"
	"github.com/deployseal/deployseal/pkg/model"
)

// Log records working-tree exports. Append-only JSON array, capped at
// the configured number of most-recent entries; older entries are
// truncated on append via an atomic rewrite.
type Log struct {
	path string
	max  int
	mu   sync.Mutex
}

// NewLog creates a backup log at path keeping at most max entries.
// Zero max means unbounded.
func NewLog(path string, max int) *Log {
	return &Log{path: path, max: max}
}

// Append records one export.
func (l *Log) Append(entry *model.BackupLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		return err
	}

	entries = append(entries, *entry)
	if l.max > 0 && len(entries) > l.max {
		entries = entries[len(entries)-l.max:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errclass.ErrBackupFailed.WithMessagef("marshal backup log: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errclass.ErrBackupFailed.WithMessagef("create state dir: %v", err)
	}
	return fsutil.AtomicWrite(l.path, data, 0644)
}

// List returns all recorded exports, newest first.
func (l *Log) List() ([]model.BackupLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		return nil, err
	}

	out := make([]model.BackupLogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (l *Log) readLocked() ([]model.BackupLogEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errclass.ErrBackupFailed.WithMessagef("read backup log: %v", err)
	}

	var entries []model.BackupLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errclass.ErrBackupFailed.WithMessagef("parse backup log: %v", err)
	}
	return entries, nil
}
