package certify_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/certify"
	"github.com/deployseal/deployseal/internal/gitrepo"
	"github.com/deployseal/deployseal/internal/integrity"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/model"
)

// fakeRunner responds by the first two argument words; errs is mutable so
// tests can heal a failing push between calls.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	if len(args) > 2 {
		key = strings.Join(args[:2], " ")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return "", err
	}
	return f.responses[key], nil
}

func (f *fakeRunner) setErr(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, key)
		return
	}
	f.errs[key] = err
}

type fixture struct {
	issuer *certify.Issuer
	store  *certify.Store
	chain  *audit.Chain
	runner *fakeRunner
	ref    certify.RepoRef
}

func newFixture(t *testing.T) *fixture {
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
		errs: map[string]error{},
	}

	git := gitrepo.NewClient(runner)
	store := certify.NewStore(filepath.Join(stateDir, "certificates.jsonl"), 10)
	chain := audit.NewChain(filepath.Join(stateDir, "audit"), 0, 0)
	issuer := certify.NewIssuer(git, store, chain, nil, "plant-pc-01", nil)

	return &fixture{
		issuer: issuer,
		store:  store,
		chain:  chain,
		runner: runner,
		ref:    certify.RepoRef{Name: "backend", Path: repoDir},
	}
}

func TestExtractAuthor(t *testing.T) {
	assert.Equal(t, "Jane", certify.ExtractAuthor("[Author: Jane] fix pump label"))
	assert.Equal(t, "Jane Doe", certify.ExtractAuthor("chore [Author: Jane Doe ] tidy"))
	assert.Equal(t, "System", certify.ExtractAuthor("fix pump label"))
	assert.Equal(t, "System", certify.ExtractAuthor("[Author: ] empty tag"))
}

func TestCommitAndPush_Success(t *testing.T) {
	f := newFixture(t)

	res, err := f.issuer.CommitAndPush(context.Background(), f.ref, "[Author: Jane] fix pump label")
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.True(t, res.Pushed)
	assert.Equal(t, "abc123def", res.CommitHash)
	assert.Empty(t, res.CertificateError)
	require.NotEmpty(t, res.CertificateID)
	assert.True(t, strings.HasPrefix(res.CertificateID, "DEPLOY-BACKEND-"))

	certs, err := f.store.List()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Jane", certs[0].OperatorName)
	assert.Equal(t, model.ActionCommitPush, certs[0].Action)
	assert.Equal(t, "plant-pc-01", certs[0].MachineID)
	assert.Equal(t, "main", certs[0].Branch)
	assert.NotEmpty(t, certs[0].IntegrityHash)

	// The workflow leaves an intact audit trail.
	verify, err := f.chain.Verify()
	require.NoError(t, err)
	assert.True(t, verify.Valid)
	assert.GreaterOrEqual(t, verify.Checked, 2)
}

func TestCommitAndPush_CommitFails(t *testing.T) {
	f := newFixture(t)
	f.runner.setErr("commit -m", errclass.ErrRepoQuery.WithMessage("nothing to commit"))

	res, err := f.issuer.CommitAndPush(context.Background(), f.ref, "msg")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrRepoQuery)
	assert.Nil(t, res)

	certs, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, certs, "no certificate without a push")
}

func TestCommitAndPush_PushFails_ThenRetrySucceeds(t *testing.T) {
	f := newFixture(t)
	f.runner.setErr("push", errclass.ErrRepoQuery.WithMessage("remote unreachable"))

	res, err := f.issuer.CommitAndPush(context.Background(), f.ref, "[Author: Jane] fix pump label")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrPartialWorkflow)
	assert.Contains(t, err.Error(), "commit")
	assert.Contains(t, err.Error(), "push failed")

	// The local commit is retained and reported.
	require.NotNil(t, res)
	assert.True(t, res.Committed)
	assert.False(t, res.Pushed)
	assert.Equal(t, "abc123def", res.CommitHash)

	certs, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, certs, "no certificate when the push failed")

	// Retrying the push alone (no recommit) issues exactly one certificate.
	f.runner.setErr("push", nil)
	retry, err := f.issuer.RetryPush(context.Background(), f.ref, "Jane")
	require.NoError(t, err)
	assert.True(t, retry.Pushed)
	require.NotEmpty(t, retry.CertificateID)

	certs, err = f.store.List()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, model.ActionPush, certs[0].Action)
}

func TestOnPushSucceeded_CertificateShape(t *testing.T) {
	f := newFixture(t)
	state := &model.RepositoryState{
		Name:          "backend",
		CurrentBranch: "main",
		IsValid:       true,
		LastCommit:    &model.CommitInfo{Hash: "abc123def"},
	}

	cert, err := f.issuer.OnPushSucceeded("backend", state, "Jane", "deploy", model.ActionCommitPush)
	require.NoError(t, err)

	assert.Equal(t, model.NewCertificateID("backend", cert.Timestamp), cert.CertificateID)
	assert.Equal(t, "abc123def", cert.CommitHash)
	assert.NotEmpty(t, cert.IntegrityHash)
	assert.Len(t, string(cert.IntegrityHash), 64)
	assert.Equal(t,
		integrity.CertificateHash("abc123def", "backend", cert.Timestamp),
		cert.IntegrityHash,
		"integrity hash must be reconstructable from stored fields")
}
