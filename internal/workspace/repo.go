// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace defines the core types shared by every wsgit
// operation: the workspace root, the repository catalog and its
// dependency edges, and the environment threaded through commands.
package workspace

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/repoforge/wsgit/internal/git"
	"github.com/repoforge/wsgit/internal/pypi"
)

// Repo describes one tracked repository: its identity, clone URLs,
// declared dependencies and rolling-update schedules. Values are
// immutable once registered.
type Repo struct {
	Name           string
	ReadOnlyURL    string
	ReadWriteURL   string
	Deps           []string
	Submodules     bool
	TrackingBranch string
	Schedules      map[string][]Action
}

// CloneURL returns the URL to clone from. rw selects the read-write
// (push-capable) origin.
func (r *Repo) CloneURL(rw bool) string {
	if rw {
		return r.ReadWriteURL
	}
	return r.ReadOnlyURL
}

// Action applies one update to a pin entry of the target repository.
// Implementations are stateless beyond their construction parameters.
type Action interface {
	fmt.Stringer
	Apply(ctx context.Context, env *Env, repo *Repo) error
}

// Env carries the per-invocation context every operation needs: the
// repository catalog, the workspace root, the external clients and
// the progress writer. There is no global state; an Env is built once
// per command and passed explicitly.
type Env struct {
	Registry  *Registry
	Workspace *Workspace
	Git       git.Client
	Pip       pypi.Client
	Out       io.Writer
}

// RepoDir returns the working-tree directory for repo inside the
// workspace.
func (e *Env) RepoDir(repo *Repo) string {
	return filepath.Join(e.Workspace.Dir, repo.Name)
}

// Logf writes one progress line to the environment's output.
func (e *Env) Logf(format string, args ...any) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}
