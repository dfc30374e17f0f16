// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package pins

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/repoforge/wsgit/internal/workspace"
)

// Update recaptures the pins of every declared dependency of repo
// from the dependency working trees, then rewrites the manifest at
// repoTop. A repository with no declared dependencies is a logged
// no-op. With requireUpstream, each captured revision must be
// reachable from the dependency's remote tracking branch.
func Update(ctx context.Context, env *workspace.Env, repo *workspace.Repo, repoTop string, requireUpstream bool) error {
	if len(repo.Deps) == 0 {
		env.Logf("Repository %s has no tracked dependencies. Doing nothing.", repo.Name)
		return nil
	}
	// Start from the existing manifest so pins of since-removed deps
	// survive until explicitly cleaned up.
	m, err := Read(repoTop)
	if err != nil {
		return err
	}
	for _, depName := range repo.Deps {
		env.Logf("Processing dep %s", depName)
		dep, err := env.Registry.Lookup(depName)
		if err != nil {
			return err
		}
		depDir := env.RepoDir(dep)
		if _, ok := env.Git.Toplevel(ctx, depDir); !ok {
			return fmt.Errorf("repository %s at %s: %w", dep.Name, depDir, workspace.ErrDependencyNotCheckedOut)
		}
		head, err := env.Git.RevParse(ctx, depDir, "HEAD")
		if err != nil {
			return err
		}
		m.Pins[dep.Name] = head
		m.Origins[dep.Name] = dep.ReadOnlyURL
		if dep.Submodules {
			m.Submodules[dep.Name] = true
		}
		summary, err := env.Git.Describe(ctx, depDir, head, "%h %ci : %s")
		if err != nil {
			return err
		}
		env.Logf("  %s: %s", dep.Name, summary)
		if requireUpstream {
			if err := verifyUpstream(ctx, env, dep, depDir, head); err != nil {
				return err
			}
		}
	}
	return Write(repoTop, m)
}

func verifyUpstream(ctx context.Context, env *workspace.Env, dep *workspace.Repo, depDir, revision string) error {
	if err := env.Git.Fetch(ctx, depDir, "origin"); err != nil {
		return err
	}
	branches, err := env.Git.RemoteBranchesContaining(ctx, depDir, revision)
	if err != nil {
		return err
	}
	tracking := "origin/" + dep.TrackingBranch
	if !slices.Contains(branches, tracking) {
		return fmt.Errorf("%w %s for %s (found on: %s)",
			workspace.ErrRevisionNotUpstream, tracking, dep.Name, strings.Join(branches, ", "))
	}
	env.Logf("  Validated that revision is on upstream tracking branch")
	return nil
}

// ReadAtRevision reads the pinned-revisions mapping of the manifest
// as it existed at a historical revision of the repository at dir,
// without touching the working tree.
func ReadAtRevision(ctx context.Context, env *workspace.Env, dir, revision string) (map[string]string, error) {
	data, err := env.Git.ShowFile(ctx, dir, revision, Filename)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s at revision %s in %s: %w", Filename, revision, dir, err)
	}
	return m.Pins, nil
}

// Show prints a one-line commit summary for every pinned dependency
// of the repository at repoTop, fetching so the pinned objects are
// resolvable locally.
func Show(ctx context.Context, env *workspace.Env, repoTop string) error {
	m, err := Read(repoTop)
	if err != nil {
		return err
	}
	for _, name := range m.SortedPins() {
		dep, err := env.Registry.Lookup(name)
		if err != nil {
			return err
		}
		depDir := env.RepoDir(dep)
		if err := env.Git.Fetch(ctx, depDir, "origin"); err != nil {
			return err
		}
		summary, err := env.Git.Describe(ctx, depDir, m.Pins[name], "%h %s (%cd)")
		if err != nil {
			return err
		}
		env.Logf("* %s: %s", name, summary)
	}
	return nil
}
