package certify

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/model"
)

// DefaultOperator is attributed when a commit message carries no author tag.
const DefaultOperator = "System"

var authorTagRegex = regexp.MustCompile(`\[Author:\s*([^\]]+)\]`)

// ExtractAuthor pulls the operator name out of a bracketed commit-message
// tag of the form "[Author: Jane]". Absence of the tag is not an error;
// it defaults to DefaultOperator.
func ExtractAuthor(message string) string {
	m := authorTagRegex.FindStringSubmatch(message)
	if m == nil {
		return DefaultOperator
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return DefaultOperator
	}
	return name
}

// DeployResult describes the outcome of the composite workflow. Each step
// is reported separately so callers can react to the exact failure point.
type DeployResult struct {
	Repository       string `json:"repository"`
	CommitHash       string `json:"commit_hash,omitempty"`
	Committed        bool   `json:"committed"`
	Pushed           bool   `json:"pushed"`
	CertificateID    string `json:"certificate_id,omitempty"`
	CertificateError string `json:"certificate_error,omitempty"`
}

// CommitAndPush runs the atomic commit-push-certify workflow.
//
// Commit failure: nothing else happens, the caller sees the commit's own
// error. Commit success + push failure: the local commit is retained, no
// certificate is issued, and ErrPartialWorkflow is returned alongside a
// result describing the completed commit — the caller retries the push
// alone. Both succeed: exactly one certificate is issued. A certificate
// failure after a successful push is reported inside the result, never
// as a workflow error.
func (i *Issuer) CommitAndPush(ctx context.Context, ref RepoRef, message string) (*DeployResult, error) {
	operator := ExtractAuthor(message)
	start := time.Now()
	res := &DeployResult{Repository: ref.Name}

	hash, err := i.git.Commit(ctx, ref.Path, message)
	if err != nil {
		i.auditFailure(model.ActionCommitAndPush, operator, ref.Name,
			"commit failed: "+err.Error(), start)
		return nil, err
	}
	res.Committed = true
	res.CommitHash = hash

	if err := i.git.Push(ctx, ref.Path); err != nil {
		i.auditFailure(model.ActionCommitAndPush, operator, ref.Name,
			"commit succeeded but push failed: "+err.Error(), start)
		return res, errclass.ErrPartialWorkflow.WithMessagef(
			"commit %s succeeded but push failed: %v", shortHash(hash), err)
	}
	res.Pushed = true

	i.certifyPush(ctx, ref, operator, message, model.ActionCommitPush, res)

	i.auditEntryN(model.CategoryGit, model.ActionCommitAndPush, model.ResultSuccess,
		operator, "commit and push completed", map[string]any{
			"repository": ref.Name,
			"commit":     hash,
			"duration":   time.Since(start).Milliseconds(),
		}, 1)

	return res, nil
}

// RetryPush pushes already-committed work and certifies on success. This
// is the recovery path after ErrPartialWorkflow; it never commits.
func (i *Issuer) RetryPush(ctx context.Context, ref RepoRef, operator string) (*DeployResult, error) {
	if operator == "" {
		operator = DefaultOperator
	}
	start := time.Now()
	res := &DeployResult{Repository: ref.Name, Committed: true}

	if err := i.git.Push(ctx, ref.Path); err != nil {
		i.auditFailure(model.ActionPushRetry, operator, ref.Name,
			"push retry failed: "+err.Error(), start)
		return nil, err
	}
	res.Pushed = true

	i.certifyPush(ctx, ref, operator, "", model.ActionPush, res)

	i.auditEntryN(model.CategoryGit, model.ActionPushRetry, model.ResultSuccess,
		operator, "push retry completed", map[string]any{
			"repository": ref.Name,
			"duration":   time.Since(start).Milliseconds(),
		}, 1)

	return res, nil
}

// certifyPush queries post-push state and issues the certificate,
// absorbing certification failures into the result.
func (i *Issuer) certifyPush(ctx context.Context, ref RepoRef, operator, description string, action model.CertificateAction, res *DeployResult) {
	state, err := i.git.Status(ctx, ref.Name, ref.Path)
	if err != nil {
		// The push happened; certify with what we know.
		state = &model.RepositoryState{
			Name: ref.Name,
			Path: ref.Path,
			LastCommit: &model.CommitInfo{
				Hash: res.CommitHash,
			},
		}
	}
	if res.CommitHash == "" && state.LastCommit != nil {
		res.CommitHash = state.LastCommit.Hash
	}
	if state.LastCommit == nil && res.CommitHash != "" {
		state.LastCommit = &model.CommitInfo{Hash: res.CommitHash}
	}

	cert, err := i.OnPushSucceeded(ref.Name, state, operator, description, action)
	if err != nil {
		res.CertificateError = err.Error()
		return
	}
	res.CertificateID = cert.CertificateID
}

func (i *Issuer) auditFailure(action model.AuditAction, operator, repository, details string, start time.Time) {
	i.auditEntry(model.CategoryGit, action, model.ResultFailure, operator, details,
		map[string]any{
			"repository": repository,
			"duration":   time.Since(start).Milliseconds(),
		})
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
