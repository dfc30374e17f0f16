// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package roll implements the rolling-update actions that advance pin
// entries: taking a remote branch head, inheriting a revision through
// another repository's pins, and bumping an external package version
// in requirement manifests. A roll applies a named, pre-declared
// schedule of actions in order; the first failure aborts the roll.
package roll

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/repoforge/wsgit/internal/pins"
	"github.com/repoforge/wsgit/internal/workspace"
)

// Run applies the named schedule of repo. Actions are independent;
// an action failure surfaces as-is and stops the schedule.
func Run(ctx context.Context, env *workspace.Env, repo *workspace.Repo, schedule string) error {
	if len(repo.Schedules) == 0 {
		return fmt.Errorf("repository %s has %w", repo.Name, workspace.ErrNoRollingSchedules)
	}
	actions, ok := repo.Schedules[schedule]
	if !ok {
		names := make([]string, 0, len(repo.Schedules))
		for name := range repo.Schedules {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("%w %q for %s (available: %s)",
			workspace.ErrUnknownSchedule, schedule, repo.Name, strings.Join(names, ", "))
	}
	for _, action := range actions {
		env.Logf("Performing rolling action: %s", action)
		if err := action.Apply(ctx, env, repo); err != nil {
			return err
		}
	}
	return nil
}

// setPin records revision for dep in the target repository's manifest
// and logs whether anything changed.
func setPin(env *workspace.Env, repo *workspace.Repo, dep, revision string) error {
	changed, err := pins.SetRevision(env.RepoDir(repo), dep, revision)
	if err != nil {
		return err
	}
	if changed {
		env.Logf("  Updated pinned revision.")
	} else {
		env.Logf("  No update required.")
	}
	return nil
}

// RemoteBranchHead advances a dependency pin to the tip of the
// dependency's tracking branch on its remote.
type RemoteBranchHead struct {
	Dep string
}

func (a RemoteBranchHead) String() string {
	return fmt.Sprintf("RemoteBranchHead(%s)", a.Dep)
}

func (a RemoteBranchHead) Apply(ctx context.Context, env *workspace.Env, repo *workspace.Repo) error {
	dep, err := env.Registry.Lookup(a.Dep)
	if err != nil {
		return err
	}
	head, err := env.Git.RemoteHead(ctx, dep.ReadOnlyURL, dep.TrackingBranch)
	if err != nil {
		return err
	}
	env.Logf("  Remote head for %s: %s", dep.TrackingBranch, head)
	return setPin(env, repo, a.Dep, head)
}

// InheritViaRepo advances a dependency pin to whatever revision the
// via repository pins it at — read from the via repository's manifest
// as it existed at the via revision the current repository already
// pins. This follows an already-vetted choice instead of tracking the
// bleeding edge.
type InheritViaRepo struct {
	Dep string
	Via string
}

func (a InheritViaRepo) String() string {
	return fmt.Sprintf("InheritViaRepo(%s, via %s)", a.Dep, a.Via)
}

func (a InheritViaRepo) Apply(ctx context.Context, env *workspace.Env, repo *workspace.Repo) error {
	via, err := env.Registry.Lookup(a.Via)
	if err != nil {
		return err
	}
	ours, err := pins.Read(env.RepoDir(repo))
	if err != nil {
		return err
	}
	viaRevision, ok := ours.Pins[a.Via]
	if !ok {
		return fmt.Errorf("%w: %s is not a pin of %s", workspace.ErrViaRepoNotPinned, a.Via, repo.Name)
	}
	viaDir := env.RepoDir(via)
	if err := env.Git.Fetch(ctx, viaDir, "origin"); err != nil {
		return err
	}
	viaPins, err := pins.ReadAtRevision(ctx, env, viaDir, viaRevision)
	if err != nil {
		return err
	}
	revision, ok := viaPins[a.Dep]
	if !ok {
		return fmt.Errorf("%w: %s at %s does not pin %s (available: %s)",
			workspace.ErrMissingTransitivePin, a.Via, viaRevision, a.Dep, strings.Join(sortedKeys(viaPins), ", "))
	}
	env.Logf("  Resolved revision %s via %s", revision, a.Via)
	return setPin(env, repo, a.Dep, revision)
}

// RevisionFunc advances a dependency pin to a revision produced by an
// arbitrary resolver. Only available to programmatic registrations;
// there is no declarative form.
type RevisionFunc struct {
	Dep     string
	Resolve func(ctx context.Context, env *workspace.Env, repo *workspace.Repo) (string, error)
}

func (a RevisionFunc) String() string {
	return fmt.Sprintf("RevisionFunc(%s)", a.Dep)
}

func (a RevisionFunc) Apply(ctx context.Context, env *workspace.Env, repo *workspace.Repo) error {
	revision, err := a.Resolve(ctx, env, repo)
	if err != nil {
		return err
	}
	env.Logf("  Resolved revision %s for %s", revision, a.Dep)
	return setPin(env, repo, a.Dep, revision)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
