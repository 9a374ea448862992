package deployseal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/pkg/config"
	"github.com/deployseal/deployseal/pkg/deployseal"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/model"
)

type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]string
	calls     [][]string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	if len(args) > 2 {
		key = strings.Join(args[:2], " ")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return f.responses[key], nil
}

func (f *fakeRunner) called(first string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, args := range f.calls {
		if len(args) > 0 && args[0] == first {
			return true
		}
	}
	return false
}

func newTestClient(t *testing.T) (*deployseal.Client, *fakeRunner) {
	t.Helper()
	repoDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repoDir, ".git"), 0755))

	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	cfg.Identity.MachineID = "plant-pc-01"
	cfg.Identity.OperatorName = "Operator"
	cfg.Repositories = []config.RepositoryConfig{{Name: "backend", Path: repoDir}}

	runner := &fakeRunner{
		responses: map[string]string{
			"rev-parse HEAD":         "abc123def\n",
			"rev-parse --abbrev-ref": "main\n",
			"log -n":                 "abc123def\x1fJane\x1fjane@x\x1ffix pump label\x1f2025-12-01T10:00:00Z\x1e",
			"status --porcelain":     "",
			"rev-list --count":       "0\n",
			"tag --list":             "2024.01.01\nv-not-calver\n",
		},
	}

	return deployseal.NewWithRunner(cfg, runner, nil), runner
}

func TestStatus_UnknownRepository(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Status(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrRepoNotFound)
}

func TestStatus_KnownRepository(t *testing.T) {
	c, _ := newTestClient(t)

	state, err := c.Status(context.Background(), "backend")
	require.NoError(t, err)
	assert.Equal(t, "backend", state.Name)
	assert.Equal(t, "main", state.CurrentBranch)
	assert.True(t, state.IsValid)
}

func TestCommitAndPush_IssuesCertificate(t *testing.T) {
	c, _ := newTestClient(t)

	res, err := c.CommitAndPush(context.Background(), "backend", "[Author: Jane] fix pump label")
	require.NoError(t, err)
	assert.True(t, res.Pushed)
	require.NotEmpty(t, res.CertificateID)

	certs, err := c.Certificates("backend", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Jane", certs[0].OperatorName)
}

func TestRelease_AllocatesAndTags(t *testing.T) {
	c, r := newTestClient(t)

	release, err := c.Release(context.Background(), "backend", "Jane")
	require.NoError(t, err)
	assert.Equal(t, "backend", release.Repository)
	assert.Equal(t, "abc123def", release.CommitHash)

	// First release of the current month: NN starts at 01.
	now := time.Now().UTC()
	assert.Equal(t, fmt.Sprintf("%s.01", now.Format("2006.01")), release.Version)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`), release.Version)
	assert.True(t, r.called("tag"))
}

func TestVerifyAuditChain_RecordsThePass(t *testing.T) {
	c, _ := newTestClient(t)

	// Put something on the chain first.
	_, err := c.CommitAndPush(context.Background(), "backend", "msg")
	require.NoError(t, err)

	res, err := c.VerifyAuditChain("Jane")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Greater(t, res.Checked, 0)

	entries, total, err := c.QueryAudit(audit.Filter{Action: model.ActionChainVerify})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "Jane", entries[0].UserName)
}

func TestCertify_CoversEveryConfiguredRepository(t *testing.T) {
	c, _ := newTestClient(t)

	bundle, err := c.Certify(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, bundle.Entries, 1)
	assert.Equal(t, "backend", bundle.Entries[0].Repository)
	assert.Equal(t, "Operator", bundle.OperatorName, "configured identity is the default operator")
	assert.Equal(t, "plant-pc-01", bundle.MachineID)
}

func TestCreateBackup_DefaultDestination(t *testing.T) {
	c, _ := newTestClient(t)
	repoPath := c.Config().Repositories[0].Path
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "main.go"), []byte("package main\n"), 0644))

	res, err := c.CreateBackup(context.Background(), "backend", "", "Jane")
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesArchived)
	assert.True(t, strings.HasPrefix(res.ArchivePath, c.Config().StateDir))

	backups, err := c.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "backend", backups[0].Repository)
}

func TestExportAudit_PlainJSON(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.CommitAndPush(context.Background(), "backend", "msg")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportAudit(&buf, audit.Filter{}, false))

	var entries []model.AuditLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.NotEmpty(t, entries)
}

func TestDiscard_Audited(t *testing.T) {
	c, r := newTestClient(t)

	require.NoError(t, c.Discard(context.Background(), "backend", ""))
	assert.True(t, r.called("reset"))
	assert.True(t, r.called("clean"))

	entries, total, err := c.QueryAudit(audit.Filter{Action: model.ActionDiscardChanges})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Operator", entries[0].UserName)
}
