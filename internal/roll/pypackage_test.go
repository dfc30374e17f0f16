// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package roll

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/repoforge/wsgit/internal/git/gittest"
	"github.com/repoforge/wsgit/internal/workspace"
)

type fakePip struct {
	output   string
	installs []string
}

func (f *fakePip) QueryVersions(ctx context.Context, pkg string, flags []string) (string, error) {
	return f.output, nil
}

func (f *fakePip) InstallRequirements(ctx context.Context, dir, file string) error {
	f.installs = append(f.installs, filepath.Join(dir, file))
	return nil
}

func TestLatestVersion(t *testing.T) {
	t.Parallel()

	output := "engine-compiler (20240101.2)\nAvailable versions: 20240101.2, 20231231.1, 20231230.0\n"
	version, err := latestVersion(output)
	if err != nil {
		t.Fatalf("latestVersion: %v", err)
	}
	if version != "20240101.2" {
		t.Errorf("version = %q, want 20240101.2", version)
	}
}

func TestLatestVersionUnrecognizedOutput(t *testing.T) {
	t.Parallel()

	_, err := latestVersion("WARNING: pip index is experimental\n")
	if !errors.Is(err, workspace.ErrVersionQueryUnrecognized) {
		t.Fatalf("error = %v, want ErrVersionQueryUnrecognized", err)
	}
}

func TestPackageVersionBumpRewritesRequirements(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	pip := &fakePip{output: "Available versions: 2.0.0, 1.0.0\n"}
	env := testEnv(t, &gittest.Fake{}, &out, &workspace.Repo{Name: "app"})
	env.Pip = pip
	appDir := filepath.Join(env.Workspace.Dir, "app")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	reqPath := filepath.Join(appDir, "requirements.txt")
	contents := "numpy==1.21.0\nengine-compiler==1.0.0 ; python_version >= '3.9'\n"
	if err := os.WriteFile(reqPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	action := PackageVersionBump{
		Package:          "engine-compiler",
		RequirementFiles: []string{"requirements.txt"},
	}
	repo, _ := env.Registry.Find("app")
	if err := action.Apply(context.Background(), env, repo); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := os.ReadFile(reqPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "numpy==1.21.0\nengine-compiler==2.0.0 ; python_version >= '3.9'\n"
	if string(got) != want {
		t.Errorf("requirements = %q, want %q (trailing markers preserved)", got, want)
	}
}

func TestPackageVersionBumpAppendsMissingPackage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	pip := &fakePip{output: "Available versions: 3.1.4\n"}
	env := testEnv(t, &gittest.Fake{}, &out, &workspace.Repo{Name: "app"})
	env.Pip = pip
	appDir := filepath.Join(env.Workspace.Dir, "app")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	reqPath := filepath.Join(appDir, "requirements.txt")
	if err := os.WriteFile(reqPath, []byte("numpy==1.21.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	action := PackageVersionBump{Package: "newpkg", RequirementFiles: []string{"requirements.txt"}}
	repo, _ := env.Registry.Find("app")
	if err := action.Apply(context.Background(), env, repo); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, err := os.ReadFile(reqPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "numpy==1.21.0\nnewpkg==3.1.4\n"
	if string(got) != want {
		t.Errorf("requirements = %q, want %q", got, want)
	}
}

func TestPackageVersionBumpMissingRequirementFile(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	pip := &fakePip{output: "Available versions: 1.0.0\n"}
	env := testEnv(t, &gittest.Fake{}, &out, &workspace.Repo{Name: "app"})
	env.Pip = pip

	action := PackageVersionBump{Package: "pkg", RequirementFiles: []string{"requirements.txt"}}
	repo, _ := env.Registry.Find("app")
	err := action.Apply(context.Background(), env, repo)
	if !errors.Is(err, workspace.ErrRequirementFileMissing) {
		t.Fatalf("error = %v, want ErrRequirementFileMissing", err)
	}
}

func TestUpgradeRequirements(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	pip := &fakePip{}
	env := testEnv(t, &gittest.Fake{}, &out, &workspace.Repo{Name: "app"})
	env.Pip = pip

	action := UpgradeRequirements{File: "requirements.txt"}
	repo, _ := env.Registry.Find("app")
	if err := action.Apply(context.Background(), env, repo); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := filepath.Join(env.Workspace.Dir, "app", "requirements.txt")
	if len(pip.installs) != 1 || pip.installs[0] != want {
		t.Errorf("installs = %v, want [%s]", pip.installs, want)
	}
}
