// Package backup exports working trees as zip archives with an embedded
// integrity summary, and keeps the capped export log.
package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/gitrepo"
	"github.com/deployseal/deployseal/internal/integrity"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/logging"
	"github.com/deployseal/deployseal/pkg/model"
)

// CertificateFileName is the integrity summary document placed inside
// every archive.
const CertificateFileName = "CERTIFICATE.json"

// Options filters which working-tree files are archived.
type Options struct {
	ExcludeDirs []string // directory base names skipped entirely
	ExcludeExts []string // lowercase extensions skipped
	MaxFileSize int64    // per-file ceiling in bytes; zero means unbounded
}

// Archiver exports repository working trees. Individual unreadable or
// oversized files are skipped and counted; only a failure to produce
// the archive at all is an error.
type Archiver struct {
	git       *gitrepo.Client
	log       *Log
	chain     *audit.Chain
	machineID string
	opts      Options
	logger    *logging.Logger
}

// NewArchiver creates a working-tree archiver.
func NewArchiver(git *gitrepo.Client, log *Log, chain *audit.Chain, machineID string, opts Options, logger *logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewLogger(logging.LevelInfo)
	}
	return &Archiver{
		git:       git,
		log:       log,
		chain:     chain,
		machineID: machineID,
		opts:      opts,
		logger:    logger,
	}
}

// Result describes one completed export.
type Result struct {
	ArchivePath   string `json:"archive_path"`
	FilesArchived int    `json:"files_archived"`
	FilesSkipped  int    `json:"files_skipped"`
	Reason        string `json:"reason"`
}

// certificateDoc is the integrity summary embedded in the archive.
type certificateDoc struct {
	Repository     string          `json:"repository"`
	Timestamp      time.Time       `json:"timestamp"`
	MachineID      string          `json:"machine_id"`
	OperatorName   string          `json:"operator_name"`
	Branch         string          `json:"branch,omitempty"`
	LastCommitHash string          `json:"last_commit_hash,omitempty"`
	Synced         bool            `json:"synced_with_remote"`
	FilesArchived  int             `json:"files_archived"`
	FilesSkipped   int             `json:"files_skipped"`
	Reason         string          `json:"reason"`
	IntegrityHash  model.HashValue `json:"integrity_hash"`
}

// Create archives the working tree at path into destDir and records the
// export in the backup log and on the audit chain. The reason is chosen
// from repository state: unpushed commits make it an offline backup,
// otherwise a manual export.
func (a *Archiver) Create(ctx context.Context, name, path, destDir, operator string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errclass.ErrBackupFailed.WithMessagef("working tree %s: %v", path, err)
	}

	now := time.Now().UTC()

	// Repository state is advisory: an unreachable or broken repository
	// must not block an export, that is exactly when operators need one.
	state, err := a.git.Status(ctx, name, path)
	if err != nil {
		a.logger.Warn("backup proceeding without repository state", map[string]any{
			"repository": name,
			"error":      err.Error(),
		})
		state = &model.RepositoryState{Name: name, Path: path}
	}

	reason := model.BackupReasonManual
	if state.CommitsAhead > 0 {
		reason = model.BackupReasonOffline
	}

	doc := certificateDoc{
		Repository:   name,
		Timestamp:    now,
		MachineID:    a.machineID,
		OperatorName: operator,
		Branch:       state.CurrentBranch,
		Synced:       state.SyncedWithRemote(),
		Reason:       reason,
	}
	if state.LastCommit != nil {
		doc.LastCommitHash = state.LastCommit.Hash
	}
	doc.IntegrityHash = integrity.BackupSummaryHash(doc.LastCommitHash, doc.Branch, now)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, errclass.ErrBackupFailed.WithMessagef("create destination: %v", err)
	}
	archivePath := filepath.Join(destDir,
		fmt.Sprintf("%s-backup-%s.zip", name, now.Format("20060102-150405")))

	archived, skipped, err := a.writeArchive(archivePath, path, &doc)
	if err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	entry := &model.BackupLogEntry{
		Timestamp:           now,
		Repository:          name,
		MachineID:           a.machineID,
		OperatorName:        operator,
		FileName:            filepath.Base(archivePath),
		LastCommitHash:      doc.LastCommitHash,
		Branch:              doc.Branch,
		WasSyncedWithRemote: doc.Synced,
		Reason:              reason,
	}
	if err := a.log.Append(entry); err != nil {
		a.logger.ErrorErr("backup log append failed", err, map[string]any{
			"repository": name,
		})
	}

	a.auditEntry(operator, name, archived, skipped, reason)

	return &Result{
		ArchivePath:   archivePath,
		FilesArchived: archived,
		FilesSkipped:  skipped,
		Reason:        reason,
	}, nil
}

func (a *Archiver) writeArchive(archivePath, root string, doc *certificateDoc) (archived, skipped int, err error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return 0, 0, errclass.ErrBackupFailed.WithMessagef("create archive: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			// Unreadable entries are skipped, not fatal.
			skipped++
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if a.excludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || a.excludedExt(p) {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			skipped++
			return nil
		}
		if a.opts.MaxFileSize > 0 && info.Size() > a.opts.MaxFileSize {
			skipped++
			return nil
		}

		if cerr := addFile(zw, p, rel, info); cerr != nil {
			a.logger.Warn("backup skipping unreadable file", map[string]any{
				"path":  rel,
				"error": cerr.Error(),
			})
			skipped++
			return nil
		}
		archived++
		return nil
	})
	if walkErr != nil {
		zw.Close()
		return 0, 0, errclass.ErrBackupFailed.WithMessagef("walk working tree: %v", walkErr)
	}

	doc.FilesArchived = archived
	doc.FilesSkipped = skipped
	docJSON, merr := json.MarshalIndent(doc, "", "  ")
	if merr != nil {
		zw.Close()
		return 0, 0, errclass.ErrBackupFailed.WithMessagef("marshal certificate document: %v", merr)
	}
	if cerr := addBytes(zw, CertificateFileName, docJSON, doc.Timestamp); cerr != nil {
		zw.Close()
		return 0, 0, errclass.ErrBackupFailed.WithMessagef("add certificate document: %v", cerr)
	}

	if cerr := zw.Close(); cerr != nil {
		return 0, 0, errclass.ErrBackupFailed.WithMessagef("finalize archive: %v", cerr)
	}
	return archived, skipped, nil
}

func (a *Archiver) excludedDir(name string) bool {
	for _, d := range a.opts.ExcludeDirs {
		if name == d {
			return true
		}
	}
	return false
}

func (a *Archiver) excludedExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range a.opts.ExcludeExts {
		if ext == e {
			return true
		}
	}
	return false
}

func addFile(zw *zip.Writer, srcPath, rel string, info fs.FileInfo) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func addBytes(zw *zip.Writer, name string, content []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func (a *Archiver) auditEntry(operator, repository string, archived, skipped int, reason string) {
	_, err := a.chain.Append(&model.AuditLogEntry{
		Category: model.CategorySystem,
		Action:   model.ActionBackupCreate,
		Result:   model.ResultSuccess,
		UserName: operator,
		Details:  "working tree exported",
		AdditionalData: map[string]any{
			"repository": repository,
			"skipped":    skipped,
			"reason":     reason,
		},
		AffectedItems: archived,
	})
	if err != nil {
		a.logger.ErrorErr("audit append failed", err)
	}
}
