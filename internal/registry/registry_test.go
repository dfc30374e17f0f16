// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repoforge/wsgit/internal/roll"
	"github.com/repoforge/wsgit/internal/workspace"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFilename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileIsEmptyRegistry(t *testing.T) {
	t.Parallel()

	reg, err := Load(filepath.Join(t.TempDir(), ConfigFilename))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Names()) != 0 {
		t.Errorf("Names = %v, want empty", reg.Names())
	}
}

func TestLoadFullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repos:
  - name: engine
    ro_url: https://example.com/engine.git
    rw_url: git@example.com:engine.git
    submodules: true
  - name: sdk
    ro_url: https://example.com/sdk.git
  - name: app
    ro_url: https://example.com/app.git
    tracking_branch: develop
    deps: [engine, sdk]
    schedules:
      nightly:
        - action: remote-head
          dep: engine
        - action: inherit-via
          dep: sdk
          via: engine
        - action: package-bump
          package: engine-compiler
          index_flags: ["-f", "https://example.com/releases.html"]
          requirement_files: [requirements.txt]
        - action: upgrade-requirements
          file: requirements.txt
`)
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reg.Names(); strings.Join(got, ",") != "engine,sdk,app" {
		t.Errorf("Names = %v, want declaration order", got)
	}

	engine, err := reg.Lookup("engine")
	if err != nil {
		t.Fatal(err)
	}
	if !engine.Submodules {
		t.Error("engine.Submodules = false")
	}
	// rw_url falls back to ro_url when omitted.
	sdk, _ := reg.Find("sdk")
	if sdk.ReadWriteURL != sdk.ReadOnlyURL {
		t.Errorf("sdk.ReadWriteURL = %q, want fallback to ro_url", sdk.ReadWriteURL)
	}

	app, _ := reg.Find("app")
	if app.TrackingBranch != "develop" {
		t.Errorf("TrackingBranch = %q", app.TrackingBranch)
	}
	actions := app.Schedules["nightly"]
	if len(actions) != 4 {
		t.Fatalf("nightly has %d actions, want 4", len(actions))
	}
	if _, ok := actions[0].(roll.RemoteBranchHead); !ok {
		t.Errorf("action 1 = %T, want RemoteBranchHead", actions[0])
	}
	if inherit, ok := actions[1].(roll.InheritViaRepo); !ok || inherit.Via != "engine" {
		t.Errorf("action 2 = %#v, want InheritViaRepo via engine", actions[1])
	}
	if bump, ok := actions[2].(roll.PackageVersionBump); !ok || bump.Package != "engine-compiler" || len(bump.IndexFlags) != 2 {
		t.Errorf("action 3 = %#v, want PackageVersionBump with index flags", actions[2])
	}
	if upgrade, ok := actions[3].(roll.UpgradeRequirements); !ok || upgrade.File != "requirements.txt" {
		t.Errorf("action 4 = %#v, want UpgradeRequirements", actions[3])
	}
}

func TestLoadUnknownAction(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repos:
  - name: app
    schedules:
      nightly:
        - action: teleport
          dep: engine
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), `unknown action "teleport"`) {
		t.Fatalf("error = %v, want unknown action named", err)
	}
}

func TestLoadDuplicateRepository(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repos:
  - name: app
  - name: app
`)
	_, err := Load(path)
	if !errors.Is(err, workspace.ErrDuplicateRepository) {
		t.Fatalf("error = %v, want ErrDuplicateRepository", err)
	}
}

func TestLoadIncompleteAction(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repos:
  - name: app
    schedules:
      nightly:
        - action: inherit-via
          dep: engine
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "inherit-via requires dep and via") {
		t.Fatalf("error = %v, want parameter validation failure", err)
	}
}
