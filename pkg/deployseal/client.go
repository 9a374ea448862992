// Package deployseal provides high-level certification operations over
// the configured repositories. It is the embedding surface: the CLI is
// a thin shell over this client.
package deployseal

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/backup"
	"github.com/deployseal/deployseal/internal/calver"
	"github.com/deployseal/deployseal/internal/certify"
	"github.com/deployseal/deployseal/internal/doctor"
	"github.com/deployseal/deployseal/internal/gitrepo"
	"github.com/deployseal/deployseal/internal/sbom"
	"github.com/deployseal/deployseal/pkg/config"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/logging"
	"github.com/deployseal/deployseal/pkg/model"
)

// Client wires the repository inspector, certificate issuer, audit
// chain and backup archiver together over one configuration.
type Client struct {
	cfg      *config.Config
	git      *gitrepo.Client
	chain    *audit.Chain
	store    *certify.Store
	issuer   *certify.Issuer
	archiver *backup.Archiver
	backups  *backup.Log
	logger   *logging.Logger
}

// New creates a client from configuration. logger may be nil.
func New(cfg *config.Config, logger *logging.Logger) *Client {
	return NewWithRunner(cfg, gitrepo.NewExecRunner(cfg.GitTimeout()), logger)
}

// NewWithRunner creates a client on top of a specific git runner.
func NewWithRunner(cfg *config.Config, runner gitrepo.Runner, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))
	}

	git := gitrepo.NewClient(runner)
	chain := audit.NewChain(cfg.AuditDir(), cfg.Audit.SegmentMaxEntries, cfg.SegmentMaxAge())
	store := certify.NewStore(cfg.CertificateLogPath(), cfg.Certificates.MaxEntries)
	provider := sbom.NewFileProvider(filepath.Join(cfg.StateDir, "sbom"))
	issuer := certify.NewIssuer(git, store, chain, provider, cfg.Identity.MachineID, logger)

	backups := backup.NewLog(cfg.BackupLogPath(), cfg.Backup.MaxLogEntries)
	archiver := backup.NewArchiver(git, backups, chain, cfg.Identity.MachineID,
		backup.Options{
			ExcludeDirs: cfg.Backup.ExcludeDirs,
			ExcludeExts: cfg.Backup.ExcludeExts,
			MaxFileSize: cfg.Backup.MaxFileSizeBytes,
		}, logger)

	return &Client{
		cfg:      cfg,
		git:      git,
		chain:    chain,
		store:    store,
		issuer:   issuer,
		archiver: archiver,
		backups:  backups,
		logger:   logger,
	}
}

// Config returns the loaded configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

func (c *Client) repo(name string) (config.RepositoryConfig, error) {
	r, ok := c.cfg.Repository(name)
	if !ok {
		return config.RepositoryConfig{}, errclass.ErrRepoNotFound.WithMessagef(
			"repository %q is not configured", name)
	}
	return r, nil
}

func (c *Client) operator(name string) string {
	if name != "" {
		return name
	}
	if c.cfg.Identity.OperatorName != "" {
		return c.cfg.Identity.OperatorName
	}
	return certify.DefaultOperator
}

// Status returns the current state of one configured repository.
func (c *Client) Status(ctx context.Context, name string) (*model.RepositoryState, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	return c.git.Status(ctx, r.Name, r.Path)
}

// StatusAll queries every configured repository concurrently. A failed
// query yields an entry with IsValid false instead of failing the batch.
func (c *Client) StatusAll(ctx context.Context) ([]*model.RepositoryState, error) {
	states := make([]*model.RepositoryState, len(c.cfg.Repositories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, r := range c.cfg.Repositories {
		g.Go(func() error {
			state, err := c.git.Status(gctx, r.Name, r.Path)
			if err != nil {
				state = &model.RepositoryState{Name: r.Name, Path: r.Path}
			}
			states[i] = state
			return nil
		})
	}
	g.Wait()

	return states, nil
}

// History returns up to count commits of a repository, newest first.
func (c *Client) History(ctx context.Context, name string, count int) ([]model.CommitInfo, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	return c.git.History(ctx, r.Path, count)
}

// CommitAndPush runs the commit-push-certify workflow on one repository.
// The operator is taken from the commit message's author tag.
func (c *Client) CommitAndPush(ctx context.Context, name, message string) (*certify.DeployResult, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	return c.issuer.CommitAndPush(ctx, certify.RepoRef{Name: r.Name, Path: r.Path}, message)
}

// RetryPush pushes already-committed work after a partial workflow.
func (c *Client) RetryPush(ctx context.Context, name, operator string) (*certify.DeployResult, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	return c.issuer.RetryPush(ctx, certify.RepoRef{Name: r.Name, Path: r.Path}, c.operator(operator))
}

// Certify issues an on-demand integrity bundle across every configured
// repository.
func (c *Client) Certify(ctx context.Context, operator string) (*model.IntegrityBundle, error) {
	refs := make([]certify.RepoRef, 0, len(c.cfg.Repositories))
	for _, r := range c.cfg.Repositories {
		refs = append(refs, certify.RepoRef{Name: r.Name, Path: r.Path})
	}
	return c.issuer.IssueIntegrityCertificate(ctx, refs, c.operator(operator))
}

// CreateBackup exports a repository's working tree into destDir.
func (c *Client) CreateBackup(ctx context.Context, name, destDir, operator string) (*backup.Result, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	if destDir == "" {
		destDir = filepath.Join(c.cfg.StateDir, "backups")
	}
	return c.archiver.Create(ctx, r.Name, r.Path, destDir, c.operator(operator))
}

// Backups returns the recorded exports, newest first.
func (c *Client) Backups() ([]model.BackupLogEntry, error) {
	return c.backups.List()
}

// NextVersion previews the next calendar version for a repository
// without creating anything.
func (c *Client) NextVersion(ctx context.Context, name string) (string, error) {
	r, err := c.repo(name)
	if err != nil {
		return "", err
	}
	tags, err := c.git.Tags(ctx, r.Path)
	if err != nil {
		return "", err
	}
	return calver.NextVersion(time.Now(), tags)
}

// Release allocates the next calendar version, tags HEAD with it and
// records the release on the audit chain.
func (c *Client) Release(ctx context.Context, name, operator string) (*model.ReleaseTag, error) {
	r, err := c.repo(name)
	if err != nil {
		return nil, err
	}
	op := c.operator(operator)

	tags, err := c.git.Tags(ctx, r.Path)
	if err != nil {
		return nil, err
	}
	version, err := calver.NextVersion(time.Now(), tags)
	if err != nil {
		return nil, err
	}

	if err := c.git.CreateTag(ctx, r.Path, version, "Release "+version); err != nil {
		return nil, err
	}

	release := &model.ReleaseTag{
		Repository: r.Name,
		Version:    version,
		Timestamp:  time.Now().UTC(),
	}
	if commits, err := c.git.History(ctx, r.Path, 1); err == nil && len(commits) > 0 {
		release.CommitHash = commits[0].Hash
	}

	c.audit(model.CategoryGit, model.ActionReleaseTag, model.ResultSuccess, op,
		"release tagged", map[string]any{
			"repository": r.Name,
			"version":    version,
			"commit":     release.CommitHash,
		})

	return release, nil
}

// VerifyAuditChain recomputes the full chain and records the pass. A
// broken chain is surfaced as ErrChainBroken alongside the result.
func (c *Client) VerifyAuditChain(operator string) (*audit.VerifyResult, error) {
	res, err := c.chain.Verify()
	if err != nil {
		return nil, err
	}

	op := c.operator(operator)
	if !res.Valid {
		c.audit(model.CategoryIntegrity, model.ActionChainVerify, model.ResultError, op,
			"audit chain verification failed", map[string]any{
				"broken_at": res.BrokenAt,
				"checked":   res.Checked,
			})
		return res, errclass.ErrChainBroken.WithMessagef("chain broken at entry %s", res.BrokenAt)
	}

	c.audit(model.CategoryIntegrity, model.ActionChainVerify, model.ResultSuccess, op,
		"audit chain verified", map[string]any{"checked": res.Checked})
	return res, nil
}

// QueryAudit returns matching audit entries newest first, plus the
// total match count before pagination.
func (c *Client) QueryAudit(f audit.Filter) ([]model.AuditLogEntry, int, error) {
	return c.chain.Query(f)
}

// ExportAudit writes matching entries as JSON, optionally gzipped.
func (c *Client) ExportAudit(w io.Writer, f audit.Filter, compress bool) error {
	return c.chain.Export(w, f, compress)
}

// Certificates returns issued deployment certificates, newest first.
// Empty repository and zero times match everything.
func (c *Client) Certificates(repository string, since, until time.Time) ([]model.DeploymentCertificate, error) {
	return c.store.Find(repository, since, until)
}

// Discard throws away all local modifications in a repository and
// records the action.
func (c *Client) Discard(ctx context.Context, name, operator string) error {
	r, err := c.repo(name)
	if err != nil {
		return err
	}
	if err := c.git.Discard(ctx, r.Path); err != nil {
		return err
	}
	c.audit(model.CategoryGit, model.ActionDiscardChanges, model.ResultSuccess,
		c.operator(operator), "local changes discarded", map[string]any{
			"repository": r.Name,
		})
	return nil
}

// Revert creates a commit undoing the given commit and records the action.
func (c *Client) Revert(ctx context.Context, name, commitHash, operator string) error {
	r, err := c.repo(name)
	if err != nil {
		return err
	}
	if err := c.git.Revert(ctx, r.Path, commitHash); err != nil {
		return err
	}
	c.audit(model.CategoryGit, model.ActionRevertCommit, model.ResultSuccess,
		c.operator(operator), "commit reverted", map[string]any{
			"repository": r.Name,
			"commit":     commitHash,
		})
	return nil
}

// Doctor runs environment and state diagnostics.
func (c *Client) Doctor(strict bool) (*doctor.Result, error) {
	return doctor.NewDoctor(c.cfg, c.chain, c.store).Check(strict)
}

func (c *Client) audit(cat model.AuditCategory, action model.AuditAction, result model.AuditResult, operator, details string, data map[string]any) {
	_, err := c.chain.Append(&model.AuditLogEntry{
		Category:       cat,
		Action:         action,
		Result:         result,
		UserName:       operator,
		Details:        details,
		AdditionalData: data,
	})
	if err != nil {
		c.logger.ErrorErr("audit append failed", err)
	}
}
