// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry loads the repository catalog from the declarative
// repos.yaml at the workspace root. The file names each repository,
// its clone URLs, dependency edges and rolling schedules; parsing it
// once at process start replaces any form of load-time global
// registration.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/repoforge/wsgit/internal/roll"
	"github.com/repoforge/wsgit/internal/workspace"
)

// ConfigFilename is the registry file looked up at the workspace root.
const ConfigFilename = "repos.yaml"

type fileConfig struct {
	Repos []repoConfig `yaml:"repos"`
}

type repoConfig struct {
	Name           string                    `yaml:"name"`
	ROURL          string                    `yaml:"ro_url"`
	RWURL          string                    `yaml:"rw_url"`
	Deps           []string                  `yaml:"deps"`
	Submodules     bool                      `yaml:"submodules"`
	TrackingBranch string                    `yaml:"tracking_branch"`
	Schedules      map[string][]actionConfig `yaml:"schedules"`
}

// actionConfig is the tagged declarative form of a roll action. The
// action field selects the variant; the remaining fields are that
// variant's parameters.
type actionConfig struct {
	Action           string   `yaml:"action"`
	Dep              string   `yaml:"dep"`
	Via              string   `yaml:"via"`
	Package          string   `yaml:"package"`
	IndexFlags       []string `yaml:"index_flags"`
	RequirementFiles []string `yaml:"requirement_files"`
	File             string   `yaml:"file"`
}

// Load builds the registry from the config at path. A missing file
// yields an empty (valid) registry.
func Load(path string) (*workspace.Registry, error) {
	builder := workspace.NewRegistryBuilder()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return builder.Build(), nil
	}
	if err != nil {
		return nil, err
	}
	var config fileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, rc := range config.Repos {
		repo, err := buildRepo(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: repository %q: %w", path, rc.Name, err)
		}
		if err := builder.Register(repo); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return builder.Build(), nil
}

func buildRepo(rc repoConfig) (*workspace.Repo, error) {
	repo := &workspace.Repo{
		Name:           rc.Name,
		ReadOnlyURL:    rc.ROURL,
		ReadWriteURL:   rc.RWURL,
		Deps:           rc.Deps,
		Submodules:     rc.Submodules,
		TrackingBranch: rc.TrackingBranch,
	}
	if repo.ReadWriteURL == "" {
		repo.ReadWriteURL = repo.ReadOnlyURL
	}
	if len(rc.Schedules) > 0 {
		repo.Schedules = make(map[string][]workspace.Action, len(rc.Schedules))
		for name, actionConfigs := range rc.Schedules {
			actions := make([]workspace.Action, 0, len(actionConfigs))
			for i, ac := range actionConfigs {
				action, err := buildAction(ac)
				if err != nil {
					return nil, fmt.Errorf("schedule %q entry %d: %w", name, i+1, err)
				}
				actions = append(actions, action)
			}
			repo.Schedules[name] = actions
		}
	}
	return repo, nil
}

func buildAction(ac actionConfig) (workspace.Action, error) {
	switch ac.Action {
	case "remote-head":
		if ac.Dep == "" {
			return nil, fmt.Errorf("remote-head requires a dep")
		}
		return roll.RemoteBranchHead{Dep: ac.Dep}, nil
	case "inherit-via":
		if ac.Dep == "" || ac.Via == "" {
			return nil, fmt.Errorf("inherit-via requires dep and via")
		}
		return roll.InheritViaRepo{Dep: ac.Dep, Via: ac.Via}, nil
	case "package-bump":
		if ac.Package == "" {
			return nil, fmt.Errorf("package-bump requires a package")
		}
		return roll.PackageVersionBump{
			Package:          ac.Package,
			IndexFlags:       ac.IndexFlags,
			RequirementFiles: ac.RequirementFiles,
		}, nil
	case "upgrade-requirements":
		if ac.File == "" {
			return nil, fmt.Errorf("upgrade-requirements requires a file")
		}
		return roll.UpgradeRequirements{File: ac.File}, nil
	case "":
		return nil, fmt.Errorf("missing action tag")
	default:
		return nil, fmt.Errorf("unknown action %q", ac.Action)
	}
}
