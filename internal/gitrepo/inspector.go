package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/model"
)

// logFormat renders one commit per record: fields separated by 0x1f,
// records separated by 0x1e. Unit separators survive arbitrary commit
// message content better than any printable delimiter.
const logFormat = "%H%x1f%an%x1f%ae%x1f%s%x1f%cI%x1e"

// Client is the single entry point for version-control interaction.
// Reads and mutations on the same repository path share one lock.
type Client struct {
	runner Runner
	locks  *pathLocks
}

// NewClient creates a git client on top of the given runner.
func NewClient(runner Runner) *Client {
	return &Client{
		runner: runner,
		locks:  newPathLocks(),
	}
}

// checkRepo validates that path exists and looks like a repository root.
func checkRepo(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errclass.ErrRepoNotFound.WithMessagef("no such directory: %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return errclass.ErrRepoNotFound.WithMessagef("not a repository root: %s", path)
	}
	return nil
}

// Status returns the full repository state: branch, last commit, working
// tree changes, and commits ahead of the remote. Recomputed on every call.
func (c *Client) Status(ctx context.Context, name, path string) (*model.RepositoryState, error) {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return nil, err
	}

	state := &model.RepositoryState{
		Name:    name,
		Path:    path,
		IsValid: true,
	}

	branch, err := c.runner.Run(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	state.CurrentBranch = strings.TrimSpace(branch)

	// A repository without a remote is still certifiable.
	if remote, err := c.runner.Run(ctx, path, "remote", "get-url", "origin"); err == nil {
		state.RemoteURL = strings.TrimSpace(remote)
	}

	commits, err := c.history(ctx, path, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) > 0 {
		state.LastCommit = &commits[0]
	}

	changes, err := c.modifiedFiles(ctx, path)
	if err != nil {
		return nil, err
	}
	state.ModifiedFiles = changes

	// No upstream configured means nothing to be ahead of.
	if out, err := c.runner.Run(ctx, path, "rev-list", "--count", "@{u}..HEAD"); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(out)); convErr == nil && n >= 0 {
			state.CommitsAhead = n
		}
	}

	return state, nil
}

// History returns up to count commit summaries, newest first.
func (c *Client) History(ctx context.Context, path string, count int) ([]model.CommitInfo, error) {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return nil, err
	}
	return c.history(ctx, path, count)
}

func (c *Client) history(ctx context.Context, path string, count int) ([]model.CommitInfo, error) {
	out, err := c.runner.Run(ctx, path,
		"log", "-n", strconv.Itoa(count), "--pretty=format:"+logFormat)
	if err != nil {
		// An empty repository has no log yet; that is not a query failure.
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, err
	}
	return parseLog(out), nil
}

// ModifiedFiles returns the ordered working-tree changes.
func (c *Client) ModifiedFiles(ctx context.Context, path string) ([]model.FileChange, error) {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return nil, err
	}
	return c.modifiedFiles(ctx, path)
}

func (c *Client) modifiedFiles(ctx context.Context, path string) ([]model.FileChange, error) {
	out, err := c.runner.Run(ctx, path, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

// Tags lists all tags in the repository.
func (c *Client) Tags(ctx context.Context, path string) ([]string, error) {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return nil, err
	}

	out, err := c.runner.Run(ctx, path, "tag", "--list")
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}
