// Package vcs reads repository history to narrow a scan to recently changed
// files.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrNotRepository is returned when root is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Repository is a read-only view of the git repository containing a root.
type Repository struct {
	repo *git.Repository

	// workTree is the absolute, symlink-resolved work tree directory.
	workTree string
}

// HeadInfo describes the checked-out commit.
type HeadInfo struct {
	Branch string
	Hash   string
}

// Open finds the repository containing root, searching parent directories.
func Open(root string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotRepository)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, ErrNotRepository)
	}
	workTree, err := resolve(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, workTree: workTree}, nil
}

// Head reports the current branch and commit. A repository without commits
// returns an empty HeadInfo.
func (r *Repository) Head() (HeadInfo, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return HeadInfo{}, nil
		}
		return HeadInfo{}, fmt.Errorf("reading HEAD: %w", err)
	}
	info := HeadInfo{Hash: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, nil
}

// RecentlyChanged returns the files touched by the last n commits reachable
// from HEAD, relative to root and slash-separated, sorted. Files outside root
// are dropped.
func (r *Repository) RecentlyChanged(ctx context.Context, root string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	changed := make(map[string]bool)
	seen := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen >= n {
			return storer.ErrStop
		}
		seen++

		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("diffing commit %s: %w", c.Hash, err)
		}
		for _, s := range stats {
			changed[s.Name] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.relativeTo(root, changed)
}

// WorkingChanges returns files modified, added or untracked in the work tree,
// relative to root.
func (r *Repository) WorkingChanges(root string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening work tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	changed := make(map[string]bool)
	for name, st := range status {
		if st.Worktree == git.Deleted || st.Staging == git.Deleted {
			continue
		}
		if st.Worktree != git.Unmodified || st.Staging != git.Unmodified {
			changed[name] = true
		}
	}
	return r.relativeTo(root, changed)
}

func (r *Repository) relativeTo(root string, names map[string]bool) ([]string, error) {
	base, err := resolve(root)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for name := range names {
		rel, err := filepath.Rel(base, filepath.Join(r.workTree, filepath.FromSlash(name)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return abs, nil
}

// Filter turns a path list into a corpus filter that admits only those paths.
func Filter(paths []string) func(rel string) bool {
	allowed := make(map[string]bool, len(paths))
	for _, p := range paths {
		allowed[p] = true
	}
	return func(rel string) bool {
		return allowed[rel]
	}
}
