package gitrepo

import (
	"context"
	"strings"
)

// Commit stages all changes and creates a commit, returning the new
// commit hash. Serialized against every other operation on the path.
func (c *Client) Commit(ctx context.Context, path, message string) (string, error) {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return "", err
	}

	if _, err := c.runner.Run(ctx, path, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := c.runner.Run(ctx, path, "commit", "-m", message); err != nil {
		return "", err
	}

	out, err := c.runner.Run(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push publishes local commits to the remote. Cancellation mid-flight is
// not attempted: once dispatched, the push runs to completion or natural
// failure on the git side.
func (c *Client) Push(ctx context.Context, path string) error {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, path, "push")
	return err
}

// Discard throws away all local modifications and untracked files.
func (c *Client) Discard(ctx context.Context, path string) error {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return err
	}

	if _, err := c.runner.Run(ctx, path, "reset", "--hard", "HEAD"); err != nil {
		return err
	}
	_, err := c.runner.Run(ctx, path, "clean", "-fd")
	return err
}

// Revert creates a new commit that undoes the given commit.
func (c *Client) Revert(ctx context.Context, path, commitHash string) error {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, path, "revert", "--no-edit", commitHash)
	return err
}

// CreateTag creates an annotated tag on HEAD.
func (c *Client) CreateTag(ctx context.Context, path, tag, message string) error {
	lock := c.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := checkRepo(path); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, path, "tag", "-a", tag, "-m", message)
	return err
}
