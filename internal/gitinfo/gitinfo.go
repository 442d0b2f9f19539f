// Package gitinfo looks up repository metadata for session context.
package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultTimeout bounds a lookup when the caller's ctx has no deadline.
const DefaultTimeout = 2 * time.Second

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("gitinfo: not a git repository")

// Branch returns the checked-out branch of the repository containing dir.
// A detached HEAD is reported as the short commit hash. A repository with
// no commits reports the branch HEAD points at.
func Branch(ctx context.Context, dir string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	type result struct {
		branch string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		b, err := branch(dir)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		return r.branch, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("gitinfo: branch lookup: %w", ctx.Err())
	}
}

func branch(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", ErrNotRepository
	}
	if err != nil {
		return "", fmt.Errorf("gitinfo: opening repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Unborn branch: HEAD is symbolic but the target has no commits.
		ref, rerr := repo.Reference(plumbing.HEAD, false)
		if rerr != nil {
			return "", fmt.Errorf("gitinfo: reading HEAD: %w", rerr)
		}
		return ref.Target().Short(), nil
	}
	if err != nil {
		return "", fmt.Errorf("gitinfo: reading HEAD: %w", err)
	}

	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String()[:7], nil
}

// Context renders the branch line added to the session context.
func Context(branch string) string {
	return "Current git branch: " + branch
}
