// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package roll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/repoforge/wsgit/internal/workspace"
)

// availableVersionsRe matches the marker line of a pip "index
// versions" query. The surrounding output has changed across pip
// releases; this line is the stable part of the contract.
var availableVersionsRe = regexp.MustCompile(`^\s*Available versions:\s+(.+)`)

// PackageVersionBump queries the package index for the latest version
// of a package and rewrites requirement files to use it. It mutates
// version-controlled manifest text, not a pin entry.
type PackageVersionBump struct {
	Package          string
	IndexFlags       []string
	RequirementFiles []string
}

func (a PackageVersionBump) String() string {
	return fmt.Sprintf("PackageVersionBump(%s)", a.Package)
}

func (a PackageVersionBump) Apply(ctx context.Context, env *workspace.Env, repo *workspace.Repo) error {
	output, err := env.Pip.QueryVersions(ctx, a.Package, a.IndexFlags)
	if err != nil {
		return err
	}
	version, err := latestVersion(output)
	if err != nil {
		return fmt.Errorf("querying versions of %s: %w", a.Package, err)
	}
	env.Logf("Found latest version: '%s'", version)
	repoDir := env.RepoDir(repo)
	for _, file := range a.RequirementFiles {
		path := filepath.Join(repoDir, file)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", workspace.ErrRequirementFileMissing, path)
		}
		env.Logf("Updating %s", path)
		if err := rewriteRequirement(path, a.Package, version); err != nil {
			return err
		}
	}
	return nil
}

// latestVersion extracts the first (newest) version from the
// "Available versions:" line of a pip index query.
func latestVersion(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		m := availableVersionsRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		versions := regexp.MustCompile(`\s*,\s*`).Split(strings.TrimSpace(m[1]), -1)
		if len(versions) == 0 || versions[0] == "" {
			break
		}
		return versions[0], nil
	}
	return "", workspace.ErrVersionQueryUnrecognized
}

// rewriteRequirement updates every "pkg==<version><tail>" line to the
// new version, preserving trailing text such as environment markers.
// A package not present is appended.
func rewriteRequirement(path, pkg, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	specRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(pkg) + `==\S+`)
	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		spec := specRe.FindString(line)
		if spec == "" {
			continue
		}
		lines[i] = pkg + "==" + version + line[len(spec):]
		found = true
	}
	if !found {
		// Keep the trailing newline ahead of the appended entry.
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		lines = append(lines, pkg+"=="+version, "")
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}

// UpgradeRequirements reinstalls a requirements file, typically after
// PackageVersionBump so later schedule entries query against the new
// environment.
type UpgradeRequirements struct {
	File string
}

func (a UpgradeRequirements) String() string {
	return fmt.Sprintf("UpgradeRequirements(%s)", a.File)
}

func (a UpgradeRequirements) Apply(ctx context.Context, env *workspace.Env, repo *workspace.Repo) error {
	return env.Pip.InstallRequirements(ctx, env.RepoDir(repo), a.File)
}
