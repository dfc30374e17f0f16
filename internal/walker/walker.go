// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package walker implements the two recursive traversals over the
// repository dependency graph: checkout (clone into place) and sync
// (move working trees to pinned revisions). Both are depth-first and
// pre-order, guarded by state shared across the whole call tree so a
// diamond-shaped graph is processed once per invocation and a cyclic
// registry still terminates.
package walker

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/repoforge/wsgit/internal/pins"
	"github.com/repoforge/wsgit/internal/workspace"
)

// CheckoutOptions control one checkout traversal.
type CheckoutOptions struct {
	// RW clones from the read-write (push-capable) URLs.
	RW bool
	// Deps recurses into declared dependencies.
	Deps bool
	// Submodules initializes submodules of repositories declaring them.
	Submodules bool
	// ExcludeSubmodules holds regexes matched against "name:path".
	ExcludeSubmodules []string
	// ExcludeDeps holds regexes matched against bare dependency names.
	ExcludeDeps []string
}

// Checkout clones repo into the workspace and, when requested,
// recurses into its dependencies. visited is shared across the whole
// traversal; a name present there is neither cloned nor walked again.
func Checkout(ctx context.Context, env *workspace.Env, repo *workspace.Repo, opts CheckoutOptions, visited map[string]bool) error {
	if !visited[repo.Name] {
		if err := checkoutOne(ctx, env, repo, opts); err != nil {
			return err
		}
	}
	visited[repo.Name] = true
	if !opts.Deps {
		return nil
	}
	for _, depName := range repo.Deps {
		if visited[depName] {
			continue
		}
		excluded, err := matchesAny(opts.ExcludeDeps, depName)
		if err != nil {
			return err
		}
		if excluded {
			env.Logf("Excluding %s based on --exclude-dep", depName)
			continue
		}
		dep, err := env.Registry.Lookup(depName)
		if err != nil {
			return err
		}
		if err := Checkout(ctx, env, dep, opts, visited); err != nil {
			return err
		}
	}
	return nil
}

func checkoutOne(ctx context.Context, env *workspace.Env, repo *workspace.Repo, opts CheckoutOptions) error {
	dir := env.RepoDir(repo)
	if _, err := os.Stat(dir); err == nil {
		if _, ok := env.Git.Toplevel(ctx, dir); !ok {
			return fmt.Errorf("%s: %w", dir, workspace.ErrCorruptRepositoryDirectory)
		}
		env.Logf("Skipping checkout of %s (already exists)", repo.Name)
		return nil
	}
	url := repo.CloneURL(opts.RW)
	env.Logf("Checking out %s into %s (from %s)", repo.Name, dir, url)
	if err := env.Git.Clone(ctx, url, dir); err != nil {
		return err
	}
	if opts.Submodules && repo.Submodules {
		return updateSubmodules(ctx, env, repo, dir, opts.ExcludeSubmodules, 0)
	}
	return nil
}

// SyncOptions control one sync traversal.
type SyncOptions struct {
	ExcludeSubmodules []string
	ExcludeDeps       []string
	// SubmodulesDepth > 0 requests shallow submodule updates.
	SubmodulesDepth int
}

// Sync moves the working tree of every pinned dependency of repo to
// its pinned revision, recursively. updatedHeads is shared across the
// traversal: a dependency already resolved on another branch of the
// graph is skipped, so each repository syncs at most once per
// invocation. A dependency without a pin is a logged skip, not an
// error; a dependency already at its pinned revision performs no
// fetch or checkout.
func Sync(ctx context.Context, env *workspace.Env, repo *workspace.Repo, repoTop string, opts SyncOptions, updatedHeads map[string]string) error {
	manifest, err := pins.Read(repoTop)
	if err != nil {
		return err
	}
	for _, depName := range repo.Deps {
		excluded, err := matchesAny(opts.ExcludeDeps, depName)
		if err != nil {
			return err
		}
		if excluded {
			env.Logf("Excluding %s based on --exclude-dep", depName)
			continue
		}
		if _, done := updatedHeads[depName]; done {
			env.Logf("Skipping duplicate dep in dag: %s", depName)
			continue
		}
		revision, pinned := manifest.Pins[depName]
		if !pinned {
			env.Logf("WARNING: No pinned revision for %s. Skipping", depName)
			continue
		}
		updatedHeads[depName] = revision
		env.Logf("Syncing dep %s to %s", depName, revision)
		dep, err := env.Registry.Lookup(depName)
		if err != nil {
			return err
		}
		depDir := env.RepoDir(dep)
		current, err := env.Git.RevParse(ctx, depDir, "HEAD")
		if err != nil {
			return err
		}
		if current == revision {
			env.Logf("  Already at needed revision.")
		} else {
			if err := env.Git.Fetch(ctx, depDir, "origin"); err != nil {
				return err
			}
			if err := env.Git.CheckoutDetached(ctx, depDir, revision); err != nil {
				return err
			}
		}
		// Submodule pointers may be uninitialized even when the
		// superproject revision did not move.
		if dep.Submodules {
			if err := updateSubmodules(ctx, env, dep, depDir, opts.ExcludeSubmodules, opts.SubmodulesDepth); err != nil {
				return err
			}
		}
		if err := Sync(ctx, env, dep, depDir, opts, updatedHeads); err != nil {
			return err
		}
	}
	return nil
}

func updateSubmodules(ctx context.Context, env *workspace.Env, repo *workspace.Repo, dir string, excludes []string, depth int) error {
	all, err := env.Git.ListSubmodules(ctx, dir)
	if err != nil {
		return err
	}
	var keep []string
	for _, path := range all {
		excluded, err := matchesAny(excludes, repo.Name+":"+path)
		if err != nil {
			return err
		}
		if excluded {
			env.Logf("Excluding submodule %s based on --exclude-submodule", path)
			continue
		}
		keep = append(keep, path)
	}
	if len(keep) == 0 {
		return nil
	}
	return env.Git.UpdateSubmodules(ctx, dir, keep, depth)
}

func matchesAny(patterns []string, s string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := regexp.MatchString(pattern, s)
		if err != nil {
			return false, fmt.Errorf("bad exclusion pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
