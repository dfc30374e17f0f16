// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerFilename is the one-field marker written at the workspace
// root by init and looked up by every other command.
const MarkerFilename = ".wsgit.json"

// Version is the current workspace schema version, fixed at
// creation time.
const Version = 0

// Workspace is an on-disk workspace root plus its schema version.
type Workspace struct {
	Dir     string
	Version int
}

type marker struct {
	Version int `json:"version"`
}

// Init creates a workspace rooted at dir by writing the marker file.
func Init(dir string) (*Workspace, error) {
	ws := &Workspace{Dir: dir, Version: Version}
	data, err := json.MarshalIndent(marker{Version: ws.Version}, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, MarkerFilename), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing workspace marker: %w", err)
	}
	return ws, nil
}

// Find walks from dir upward to the nearest marker file. ok is false
// when no enclosing workspace exists.
func Find(dir string) (*Workspace, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, false, err
	}
	for {
		markerPath := filepath.Join(dir, MarkerFilename)
		if _, err := os.Stat(markerPath); err == nil {
			ws, err := load(markerPath)
			if err != nil {
				return nil, false, err
			}
			return ws, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false, nil
		}
		dir = parent
	}
}

// FindRequired is Find, failing when dir is not inside a workspace.
func FindRequired(dir string) (*Workspace, error) {
	ws, ok, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w in a directory enclosing %s", ErrNoWorkspace, dir)
	}
	return ws, nil
}

func load(markerPath string) (*Workspace, error) {
	data, err := os.ReadFile(markerPath)
	if err != nil {
		return nil, err
	}
	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing workspace marker %s: %w", markerPath, err)
	}
	return &Workspace{Dir: filepath.Dir(markerPath), Version: m.Version}, nil
}
