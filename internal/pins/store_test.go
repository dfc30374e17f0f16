// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package pins

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repoforge/wsgit/internal/git/gittest"
	"github.com/repoforge/wsgit/internal/workspace"
)

func testEnv(t *testing.T, fake *gittest.Fake, out *bytes.Buffer, repos ...*workspace.Repo) *workspace.Env {
	t.Helper()
	builder := workspace.NewRegistryBuilder()
	for _, repo := range repos {
		if err := builder.Register(repo); err != nil {
			t.Fatalf("register %s: %v", repo.Name, err)
		}
	}
	return &workspace.Env{
		Registry:  builder.Build(),
		Workspace: &workspace.Workspace{Dir: t.TempDir()},
		Git:       fake,
		Out:       out,
	}
}

func TestUpdateWithoutDepsIsNoOp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	env := testEnv(t, &gittest.Fake{}, &out, &workspace.Repo{Name: "leaf"})
	repoTop := filepath.Join(env.Workspace.Dir, "leaf")

	repo, _ := env.Registry.Find("leaf")
	if err := Update(context.Background(), env, repo, repoTop, false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(out.String(), "has no tracked dependencies") {
		t.Errorf("output = %q, want no-op log line", out.String())
	}
	if _, err := Read(repoTop); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateCapturesDependencyState(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	fake := &gittest.Fake{}
	env := testEnv(t, fake, &out,
		&workspace.Repo{Name: "app", Deps: []string{"engine", "sdk"}},
		&workspace.Repo{Name: "engine", ReadOnlyURL: "https://example.com/engine.git", Submodules: true},
		&workspace.Repo{Name: "sdk", ReadOnlyURL: "https://example.com/sdk.git"},
	)
	engineDir := filepath.Join(env.Workspace.Dir, "engine")
	sdkDir := filepath.Join(env.Workspace.Dir, "sdk")
	fake.Worktrees = map[string]bool{engineDir: true, sdkDir: true}
	fake.Heads = map[string]string{engineDir: "eeee", sdkDir: "ssss"}

	repo, _ := env.Registry.Find("app")
	repoTop := filepath.Join(env.Workspace.Dir, "app")
	if err := os.MkdirAll(repoTop, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Update(context.Background(), env, repo, repoTop, false); err != nil {
		t.Fatalf("Update: %v", err)
	}

	m, err := Read(repoTop)
	if err != nil {
		t.Fatal(err)
	}
	if m.Pins["engine"] != "eeee" || m.Pins["sdk"] != "ssss" {
		t.Errorf("Pins = %v", m.Pins)
	}
	if m.Origins["engine"] != "https://example.com/engine.git" {
		t.Errorf("Origins = %v", m.Origins)
	}
	if !m.Submodules["engine"] {
		t.Errorf("Submodules = %v, want engine flagged", m.Submodules)
	}
	if _, flagged := m.Submodules["sdk"]; flagged {
		t.Errorf("sdk has no submodules but was flagged")
	}
}

func TestUpdateDependencyNotCheckedOut(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	fake := &gittest.Fake{Worktrees: map[string]bool{}}
	env := testEnv(t, fake, &out,
		&workspace.Repo{Name: "app", Deps: []string{"engine"}},
		&workspace.Repo{Name: "engine"},
	)
	repo, _ := env.Registry.Find("app")
	err := Update(context.Background(), env, repo, filepath.Join(env.Workspace.Dir, "app"), false)
	if !errors.Is(err, workspace.ErrDependencyNotCheckedOut) {
		t.Fatalf("error = %v, want ErrDependencyNotCheckedOut", err)
	}
}

func TestUpdateRequireUpstream(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	fake := &gittest.Fake{}
	env := testEnv(t, fake, &out,
		&workspace.Repo{Name: "app", Deps: []string{"engine"}},
		&workspace.Repo{Name: "engine", TrackingBranch: "main"},
	)
	engineDir := filepath.Join(env.Workspace.Dir, "engine")
	fake.Worktrees = map[string]bool{engineDir: true}
	fake.Heads = map[string]string{engineDir: "eeee"}
	fake.Branches = map[string][]string{engineDir: {"origin/feature"}}

	repo, _ := env.Registry.Find("app")
	repoTop := filepath.Join(env.Workspace.Dir, "app")
	if err := os.MkdirAll(repoTop, 0o755); err != nil {
		t.Fatal(err)
	}
	err := Update(context.Background(), env, repo, repoTop, true)
	if !errors.Is(err, workspace.ErrRevisionNotUpstream) {
		t.Fatalf("error = %v, want ErrRevisionNotUpstream", err)
	}
	if !strings.Contains(err.Error(), "origin/main") || !strings.Contains(err.Error(), "origin/feature") {
		t.Errorf("error = %q, want tracking branch and containing branches named", err)
	}

	// Same revision reachable from the tracking branch passes.
	fake.Branches[engineDir] = []string{"origin/feature", "origin/main"}
	if err := Update(context.Background(), env, repo, repoTop, true); err != nil {
		t.Fatalf("Update with upstream revision: %v", err)
	}
}

func TestReadAtRevision(t *testing.T) {
	t.Parallel()

	historical := NewManifest()
	historical.Pins["engine"] = "old-rev"
	var out bytes.Buffer
	fake := &gittest.Fake{
		Files: map[string][]byte{
			"/repo abc123 " + Filename: Encode(historical),
		},
	}
	env := testEnv(t, fake, &out)

	got, err := ReadAtRevision(context.Background(), env, "/repo", "abc123")
	if err != nil {
		t.Fatalf("ReadAtRevision: %v", err)
	}
	if got["engine"] != "old-rev" {
		t.Errorf("pins = %v", got)
	}
}
