// Package certify issues deployment certificates and runs the composite
// commit-push-certify workflow.
package certify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/gitrepo"
	"github.com/deployseal/deployseal/internal/integrity"
	"github.com/deployseal/deployseal/internal/sbom"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/logging"
	"github.com/deployseal/deployseal/pkg/model"
)

// statusQueryLimit bounds concurrent repository queries during an
// on-demand certification.
const statusQueryLimit = 4

// Issuer composes repository state and operator/machine identity into
// digest-signed certificates.
type Issuer struct {
	git       *gitrepo.Client
	store     *Store
	chain     *audit.Chain
	sbom      sbom.Provider // optional
	machineID string
	logger    *logging.Logger
}

// NewIssuer creates a certificate issuer. provider may be nil.
func NewIssuer(git *gitrepo.Client, store *Store, chain *audit.Chain, provider sbom.Provider, machineID string, logger *logging.Logger) *Issuer {
	if logger == nil {
		logger = logging.NewLogger(logging.LevelInfo)
	}
	return &Issuer{
		git:       git,
		store:     store,
		chain:     chain,
		sbom:      provider,
		machineID: machineID,
		logger:    logger,
	}
}

// OnPushSucceeded issues exactly one certificate for a completed push.
// Never called when the push failed. If certificate construction or
// persistence fails, the failure is recorded on the audit chain with
// category Certificate and result Error, but the push is not rolled
// back: the push is a fact that happened regardless of certification.
func (i *Issuer) OnPushSucceeded(repository string, state *model.RepositoryState, operator, description string, action model.CertificateAction) (*model.DeploymentCertificate, error) {
	now := time.Now().UTC()

	commitHash := ""
	branch := ""
	if state != nil {
		branch = state.CurrentBranch
		if state.LastCommit != nil {
			commitHash = state.LastCommit.Hash
		}
	}

	cert := &model.DeploymentCertificate{
		CertificateID: model.NewCertificateID(repository, now),
		Timestamp:     now,
		Repository:    repository,
		MachineID:     i.machineID,
		OperatorName:  operator,
		CommitHash:    commitHash,
		Branch:        branch,
		Action:        action,
		Description:   description,
		IntegrityHash: integrity.CertificateHash(commitHash, repository, now),
	}

	if err := i.store.Append(cert); err != nil {
		i.logger.ErrorErr("certificate issue failed", err, map[string]any{
			"repository": repository,
		})
		i.auditEntry(model.CategoryCertificate, model.ActionCertifyDeploy, model.ResultError,
			operator, "certificate construction failed: "+err.Error(), map[string]any{
				"repository": repository,
				"commit":     commitHash,
			})
		return nil, err
	}

	i.auditEntry(model.CategoryCertificate, model.ActionCertifyDeploy, model.ResultSuccess,
		operator, "deployment certificate issued", map[string]any{
			"repository":     repository,
			"certificate_id": cert.CertificateID,
			"commit":         commitHash,
		})

	return cert, nil
}

// IssueIntegrityCertificate builds an on-demand integrity bundle across
// the given repositories. Each repository query failure is absorbed into
// that repository's entry; the request itself fails only when every
// repository query failed.
func (i *Issuer) IssueIntegrityCertificate(ctx context.Context, repos []RepoRef, operator string) (*model.IntegrityBundle, error) {
	bundle := &model.IntegrityBundle{
		Timestamp:    time.Now().UTC(),
		MachineID:    i.machineID,
		OperatorName: operator,
		Entries:      make([]model.RepoIntegrity, len(repos)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusQueryLimit)
	for idx, ref := range repos {
		g.Go(func() error {
			bundle.Entries[idx] = i.certifyOne(gctx, ref)
			return nil
		})
	}
	g.Wait()

	failures := 0
	for _, e := range bundle.Entries {
		if e.Error != "" {
			failures++
		}
	}

	result := model.ResultSuccess
	details := "integrity certificate issued"
	switch {
	case len(repos) > 0 && failures == len(repos):
		result = model.ResultError
		details = "integrity certificate: every repository query failed"
	case failures > 0:
		result = model.ResultWarning
		details = "integrity certificate issued with partial failures"
	}

	i.auditEntryN(model.CategoryIntegrity, model.ActionCertifyIntegrity, result,
		operator, details, map[string]any{"failures": failures}, len(repos))

	if result == model.ResultError {
		return bundle, errclass.ErrRepoQuery.WithMessage("every repository query failed")
	}
	return bundle, nil
}

// RepoRef names one repository and its working-tree path.
type RepoRef struct {
	Name string
	Path string
}

func (i *Issuer) certifyOne(ctx context.Context, ref RepoRef) model.RepoIntegrity {
	state, err := i.git.Status(ctx, ref.Name, ref.Path)
	if err != nil {
		return model.RepoIntegrity{
			Repository: ref.Name,
			Class:      model.RepoUnavailable,
			Error:      err.Error(),
		}
	}

	entry := model.RepoIntegrity{
		Repository:       ref.Name,
		Class:            state.Classify(),
		SyncedWithRemote: state.SyncedWithRemote(),
		Branch:           state.CurrentBranch,
	}
	if state.LastCommit != nil {
		entry.CommitHash = state.LastCommit.Hash
		entry.IntegrityHash = integrity.CertificateHash(
			state.LastCommit.Hash, ref.Name, time.Now().UTC())
	}

	if i.sbom != nil {
		// Collaborator failure must not block issuance.
		if comps, err := i.sbom.Components(ctx, ref.Name); err == nil {
			entry.Components = comps
		} else {
			i.logger.Warn("sbom collaborator failed", map[string]any{
				"repository": ref.Name,
				"error":      err.Error(),
			})
		}
	}

	return entry
}

// Certificates exposes the underlying store for read paths.
func (i *Issuer) Certificates() *Store {
	return i.store
}

func (i *Issuer) auditEntry(cat model.AuditCategory, action model.AuditAction, result model.AuditResult, operator, details string, data map[string]any) {
	i.auditEntryN(cat, action, result, operator, details, data, 0)
}

func (i *Issuer) auditEntryN(cat model.AuditCategory, action model.AuditAction, result model.AuditResult, operator, details string, data map[string]any, affected int) {
	_, err := i.chain.Append(&model.AuditLogEntry{
		Category:       cat,
		Action:         action,
		Result:         result,
		UserName:       operator,
		Details:        details,
		AdditionalData: data,
		AffectedItems:  affected,
	})
	if err != nil {
		i.logger.ErrorErr("audit append failed", err)
	}
}
