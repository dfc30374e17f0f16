// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package pins reads, patches and rewrites the per-repository pin
// manifest. The manifest is a self-describing file: three named
// key-value blocks (pinned revisions, origins, submodule flags)
// followed by an embedded bootstrap script that can check out every
// pinned dependency on its own, so CI systems can sync from the
// manifest alone without wsgit installed.
package pins

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/repoforge/wsgit/internal/workspace"
)

// Filename is the manifest's fixed name inside each repository. The
// file doubles as the bootstrap program, hence the extension.
const Filename = "sync_deps.py"

// Block names inside the manifest. These are an external contract:
// the embedded bootstrap script and third-party consumers read them.
const (
	pinsBlock       = "PINNED_VERSIONS"
	originsBlock    = "ORIGINS"
	submodulesBlock = "SUBMODULES"
)

// Manifest is the logical content of one pin file. All three maps are
// always non-nil; an absent manifest file reads as an empty Manifest.
type Manifest struct {
	Pins       map[string]string
	Origins    map[string]string
	Submodules map[string]bool
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Pins:       make(map[string]string),
		Origins:    make(map[string]string),
		Submodules: make(map[string]bool),
	}
}

// Read loads the manifest in dir. A missing file is not an error; it
// reads as an empty manifest.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s in %s: %w", Filename, dir, err)
	}
	return m, nil
}

// Parse decodes manifest bytes. Each block is located by name and its
// value decoded as JSON; the blocks are data, never evaluated. Any
// subset of the three blocks may be absent, including all of them in
// a hand-edited file.
func Parse(data []byte) (*Manifest, error) {
	m := NewManifest()
	if err := parseBlock(data, pinsBlock, &m.Pins); err != nil {
		return nil, err
	}
	if err := parseBlock(data, originsBlock, &m.Origins); err != nil {
		return nil, err
	}
	var submodules map[string]any
	if err := parseBlock(data, submodulesBlock, &submodules); err != nil {
		return nil, err
	}
	for name, value := range submodules {
		m.Submodules[name] = truthy(value)
	}
	return m, nil
}

func parseBlock[T any](data []byte, name string, dest *T) error {
	re := regexp.MustCompile(`(?m)^` + name + `\s*=\s*`)
	loc := re.FindIndex(data)
	if loc == nil {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data[loc[1]:]))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("block %s: %w", name, err)
	}
	return nil
}

// truthy interprets a submodule flag. The canonical encoding is the
// integer 1, but hand-edited files may carry booleans.
func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value != "" && value != "0"
	default:
		return v != nil
	}
}

// Write serializes m into dir, replacing any existing manifest
// wholesale. Output is deterministic: sorted keys, fixed header,
// then the bootstrap script.
func Write(dir string, m *Manifest) error {
	return os.WriteFile(filepath.Join(dir, Filename), Encode(m), 0o644)
}

// Encode renders the full manifest file contents.
func Encode(m *Manifest) []byte {
	var buf bytes.Buffer
	buf.WriteString("#!/usr/bin/env python\n")
	buf.WriteString("### AUTO-GENERATED: DO NOT EDIT\n")
	buf.WriteString("### Casual developers and CI bots invoke this to do the most\n")
	buf.WriteString("### efficient checkout of dependencies.\n")
	buf.WriteString("### Cross-repo project development should use the\n")
	buf.WriteString("### 'wsgit' tool for more full featured setup.\n")
	buf.WriteString("### Update with: wsgit pin\n\n")
	writeBlock(&buf, pinsBlock, m.Pins)
	// The submodule flags encode as 0/1 so the file stays loadable by
	// the bootstrap interpreter, which has no JSON booleans.
	submodules := make(map[string]int, len(m.Submodules))
	for name, enabled := range m.Submodules {
		if enabled {
			submodules[name] = 1
		} else {
			submodules[name] = 0
		}
	}
	writeBlock(&buf, originsBlock, m.Origins)
	writeBlock(&buf, submodulesBlock, submodules)
	buf.WriteString("\n\n### Update support:")
	buf.WriteString(bootstrapScript)
	return buf.Bytes()
}

func writeBlock[V any](buf *bytes.Buffer, name string, values map[string]V) {
	// json.MarshalIndent sorts map keys, keeping diffs stable.
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		// Maps of strings and ints cannot fail to marshal.
		panic(err)
	}
	fmt.Fprintf(buf, "%s = %s\n\n", name, data)
}

// SetRevision patches a single pin entry through a read-modify-write
// cycle. It reports whether a write happened: setting a pin to its
// current value leaves the file untouched, so repeated rolls are
// no-op commits.
func SetRevision(dir, dep, revision string) (changed bool, err error) {
	m, err := Read(dir)
	if err != nil {
		return false, err
	}
	current, ok := m.Pins[dep]
	if !ok {
		return false, fmt.Errorf("cannot update pin for %s: %w", dep, workspace.ErrUnknownPin)
	}
	if current == revision {
		return false, nil
	}
	m.Pins[dep] = revision
	return true, Write(dir, m)
}

// SortedPins returns the pinned dependency names in sorted order.
func (m *Manifest) SortedPins() []string {
	names := make([]string, 0, len(m.Pins))
	for name := range m.Pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
