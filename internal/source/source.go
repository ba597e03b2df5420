// Package source is the version-control capability: clone a named branch,
// fetch, compare against the remote tip, and hard-reset to it. Built on
// go-git so sites can be provisioned without a git binary on the host.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const remoteName = "origin"

// Commit is a one-line summary of an upstream commit.
type Commit struct {
	Hash    string
	Author  string
	Subject string
}

// Clone checks out the named branch from repoURL into dir. The branch must
// exist on the remote.
func Clone(repoURL, branch, dir string) error {
	_, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:           repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to clone branch %q: %w", branch, err)
	}
	return nil
}

// Fetch updates the remote-tracking refs of the checkout at dir. A remote
// that has nothing new is a success, not an error.
func Fetch(dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open checkout: %w", err)
	}

	err = repo.Fetch(&git.FetchOptions{RemoteName: remoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch from %s: %w", remoteName, err)
	}
	return nil
}

// CommitsAhead lists the commits on origin/<branch> that are not yet part
// of the local head, newest first. An empty result means the checkout is
// up to date. Call Fetch first; this only inspects local refs.
func CommitsAhead(dir, branch string) ([]Commit, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkout: %w", err)
	}

	local, remote, err := headPair(repo, branch)
	if err != nil {
		return nil, err
	}

	if local.Hash == remote.Hash {
		return nil, nil
	}

	// Stop walking the remote history at the merge base with the local
	// head. After a fast-forward the base is the local head itself.
	stop := map[plumbing.Hash]struct{}{local.Hash: {}}
	bases, err := remote.MergeBase(local)
	if err == nil {
		for _, base := range bases {
			stop[base.Hash] = struct{}{}
		}
	}

	iter, err := repo.Log(&git.LogOptions{From: remote.Hash})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if _, done := stop[c.Hash]; done {
			return storer.ErrStop
		}
		commits = append(commits, Commit{
			Hash:    c.Hash.String()[:7],
			Author:  c.Author.Name,
			Subject: firstLine(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}

	return commits, nil
}

// ResetToRemote discards all local changes in the checkout at dir and
// moves the worktree to the tip of origin/<branch>.
func ResetToRemote(dir, branch string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open checkout: %w", err)
	}

	_, remote, err := headPair(repo, branch)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := worktree.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: remote.Hash,
	}); err != nil {
		return fmt.Errorf("failed to reset to %s/%s: %w", remoteName, branch, err)
	}

	// Move the local branch ref along with the worktree.
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), remote.Hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to advance branch ref: %w", err)
	}

	return nil
}

// Head returns the branch name and commit hash of the checkout at dir.
// Used to record provenance of the base environment.
func Head(dir string) (branch, commit string, err error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to open checkout: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	return ref.Name().Short(), ref.Hash().String(), nil
}

// headPair resolves the local head and the remote-tracking head of branch.
func headPair(repo *git.Repository, branch string) (local, remote *object.Commit, err error) {
	localRef, err := repo.Head()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read HEAD: %w", err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s/%s: %w", remoteName, branch, err)
	}

	local, err = repo.CommitObject(localRef.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read local head commit: %w", err)
	}
	remote, err = repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read remote head commit: %w", err)
	}

	return local, remote, nil
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}
