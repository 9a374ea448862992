// Package gitrepo wraps the external git executable behind a narrow,
// structured interface. Parsing of git's textual output stays inside this
// package; everything above it sees RepositoryState and friends.
package gitrepo

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/deployseal/deployseal/pkg/errclass"
)

// Runner executes a git command in a working directory and returns stdout.
// Tests substitute a fake; production uses ExecRunner.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner invokes the real git binary with a per-invocation deadline.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-invocation timeout.
// Zero means no deadline beyond the caller's context.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes git with the given arguments. A non-zero exit or a missing
// binary is reported as ErrRepoQuery carrying the raw diagnostic text;
// retrying is the caller's decision. Once dispatched, a push runs to
// completion or natural failure — the deadline fails the call, it does not
// attempt to unwind the remote side.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", errclass.ErrRepoQuery.WithMessagef(
				"git %s timed out: %s", strings.Join(args, " "), diag)
		}
		return "", errclass.ErrRepoQuery.WithMessagef(
			"git %s: %s", strings.Join(args, " "), diag)
	}

	return stdout.String(), nil
}
