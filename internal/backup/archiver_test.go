package backup_test

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/backup"
	"github.com/deployseal/deployseal/internal/gitrepo"
	"github.com/deployseal/deployseal/pkg/model"
)

type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	if len(args) > 2 {
		key = strings.Join(args[:2], " ")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses[key], nil
}

type fixture struct {
	archiver *backup.Archiver
	log      *backup.Log
	runner   *fakeRunner
	repoDir  string
	destDir  string
}

func newFixture(t *testing.T, maxLog int) *fixture {
	t.Helper()
	repoDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repoDir, ".git"), 0755))

	stateDir := t.TempDir()
	runner := &fakeRunner{
		responses: map[string]string{
			"rev-parse HEAD":         "abc123def\n",
			"rev-parse --abbrev-ref": "main\n",
			"log -n":                 "abc123def\x1fJane\x1fjane@x\x1ffix pump label\x1f2025-12-01T10:00:00Z\x1e",
			"status --porcelain":     "",
			"rev-list --count":       "0\n",
		},
	}

	log := backup.NewLog(filepath.Join(stateDir, "backups.json"), maxLog)
	chain := audit.NewChain(filepath.Join(stateDir, "audit"), 0, 0)
	archiver := backup.NewArchiver(gitrepo.NewClient(runner), log, chain, "plant-pc-01",
		backup.Options{
			ExcludeDirs: []string{".git", "node_modules"},
			ExcludeExts: []string{".exe", ".log"},
			MaxFileSize: 1024,
		}, nil)

	return &fixture{
		archiver: archiver,
		log:      log,
		runner:   runner,
		repoDir:  repoDir,
		destDir:  t.TempDir(),
	}
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644))
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestCreate_SkipsOversizedAndEmbedsCertificate(t *testing.T) {
	f := newFixture(t, 100)
	writeFile(t, f.repoDir, "main.go", 100)
	writeFile(t, f.repoDir, "config.yaml", 200)
	writeFile(t, f.repoDir, "docs/readme.md", 300)
	writeFile(t, f.repoDir, "assets/firmware.img", 4096) // over the 1 KiB ceiling

	res, err := f.archiver.Create(context.Background(), "backend", f.repoDir, f.destDir, "Jane")
	require.NoError(t, err)
	assert.Equal(t, 3, res.FilesArchived)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, model.BackupReasonManual, res.Reason)

	names := archiveNames(t, res.ArchivePath)
	assert.Len(t, names, 4)
	assert.Contains(t, names, "main.go")
	assert.Contains(t, names, "config.yaml")
	assert.Contains(t, names, "docs/readme.md")
	assert.Contains(t, names, backup.CertificateFileName)
	assert.NotContains(t, names, "assets/firmware.img")
}

func TestCreate_ExcludedDirsAndExts(t *testing.T) {
	f := newFixture(t, 100)
	writeFile(t, f.repoDir, "main.go", 10)
	writeFile(t, f.repoDir, "node_modules/pkg/index.js", 10)
	writeFile(t, f.repoDir, "debug.log", 10)
	writeFile(t, f.repoDir, "tool.exe", 10)

	res, err := f.archiver.Create(context.Background(), "backend", f.repoDir, f.destDir, "Jane")
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesArchived)

	names := archiveNames(t, res.ArchivePath)
	assert.Contains(t, names, "main.go")
	assert.NotContains(t, names, "node_modules/pkg/index.js")
	assert.NotContains(t, names, "debug.log")
	assert.NotContains(t, names, "tool.exe")
}

func TestCreate_CertificateDocumentShape(t *testing.T) {
	f := newFixture(t, 100)
	writeFile(t, f.repoDir, "main.go", 10)

	res, err := f.archiver.Create(context.Background(), "backend", f.repoDir, f.destDir, "Jane")
	require.NoError(t, err)

	r, err := zip.OpenReader(res.ArchivePath)
	require.NoError(t, err)
	defer r.Close()

	var doc map[string]any
	for _, zf := range r.File {
		if zf.Name != backup.CertificateFileName {
			continue
		}
		rc, err := zf.Open()
		require.NoError(t, err)
		require.NoError(t, json.NewDecoder(rc).Decode(&doc))
		rc.Close()
	}
	require.NotNil(t, doc, "archive must embed the certificate document")

	assert.Equal(t, "backend", doc["repository"])
	assert.Equal(t, "plant-pc-01", doc["machine_id"])
	assert.Equal(t, "Jane", doc["operator_name"])
	assert.Equal(t, "abc123def", doc["last_commit_hash"])
	assert.Equal(t, "main", doc["branch"])
	assert.Equal(t, float64(1), doc["files_archived"])
	assert.Len(t, doc["integrity_hash"], 64)
}

func TestCreate_OfflineReasonWhenCommitsPending(t *testing.T) {
	f := newFixture(t, 100)
	f.runner.responses["rev-list --count"] = "2\n"
	writeFile(t, f.repoDir, "main.go", 10)

	res, err := f.archiver.Create(context.Background(), "backend", f.repoDir, f.destDir, "Jane")
	require.NoError(t, err)
	assert.Equal(t, model.BackupReasonOffline, res.Reason)

	entries, err := f.log.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.BackupReasonOffline, entries[0].Reason)
	assert.False(t, entries[0].WasSyncedWithRemote)
}

func TestCreate_MissingWorkingTree(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.archiver.Create(context.Background(), "backend",
		filepath.Join(f.repoDir, "missing"), f.destDir, "Jane")
	require.Error(t, err)
}

func TestLog_CapTruncatesOldest(t *testing.T) {
	f := newFixture(t, 3)
	writeFile(t, f.repoDir, "main.go", 10)

	for i := 0; i < 5; i++ {
		_, err := f.archiver.Create(context.Background(), "backend", f.repoDir, f.destDir, "Jane")
		require.NoError(t, err)
	}

	entries, err := f.log.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
