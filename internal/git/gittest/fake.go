// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package gittest provides an in-memory git.Client for tests. It
// records every call so traversal properties (clone-once, sync-once,
// zero fetches when already at the pinned revision) can be asserted
// without real repositories.
package gittest

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Fake implements git.Client over configurable in-memory state.
// The zero value is usable; all maps are lazily initialized.
type Fake struct {
	mu sync.Mutex

	// Heads maps directory -> current HEAD revision for RevParse.
	Heads map[string]string
	// Worktrees marks directories that count as valid working trees.
	// When nil, any existing directory is considered a working tree.
	Worktrees map[string]bool
	// Submodules maps directory -> submodule paths.
	Submodules map[string][]string
	// RemoteHeads maps "url branch" -> revision.
	RemoteHeads map[string]string
	// Branches maps directory -> remote branches containing any
	// revision (the fake does not model per-revision reachability).
	Branches map[string][]string
	// Files maps "dir revision path" -> historical file contents.
	Files map[string][]byte

	// Calls counts invocations by method name.
	Calls map[string]int
	// Cloned records the directories passed to Clone, in order.
	Cloned []string
	// CheckedOut records "dir revision" for each detached checkout.
	CheckedOut []string
	// Updated records the directories passed to UpdateSubmodules.
	Updated []string
}

func (f *Fake) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[method]++
}

func (f *Fake) Clone(ctx context.Context, url, dir string) error {
	f.record("Clone")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cloned = append(f.Cloned, dir)
	if f.Worktrees == nil {
		f.Worktrees = make(map[string]bool)
	}
	f.Worktrees[dir] = true
	return nil
}

func (f *Fake) Fetch(ctx context.Context, dir, remote string) error {
	f.record("Fetch")
	return nil
}

func (f *Fake) CheckoutDetached(ctx context.Context, dir, revision string) error {
	f.record("CheckoutDetached")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CheckedOut = append(f.CheckedOut, dir+" "+revision)
	if f.Heads == nil {
		f.Heads = make(map[string]string)
	}
	f.Heads[dir] = revision
	return nil
}

func (f *Fake) RevParse(ctx context.Context, dir string, args ...string) (string, error) {
	f.record("RevParse")
	f.mu.Lock()
	defer f.mu.Unlock()
	head, ok := f.Heads[dir]
	if !ok {
		return "", fmt.Errorf("gittest: no HEAD configured for %s", dir)
	}
	return head, nil
}

func (f *Fake) Toplevel(ctx context.Context, dir string) (string, bool) {
	f.record("Toplevel")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Worktrees != nil {
		return dir, f.Worktrees[dir]
	}
	if _, err := os.Stat(dir); err != nil {
		return "", false
	}
	return dir, true
}

func (f *Fake) ListSubmodules(ctx context.Context, dir string) ([]string, error) {
	f.record("ListSubmodules")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Submodules[dir], nil
}

func (f *Fake) UpdateSubmodules(ctx context.Context, dir string, paths []string, depth int) error {
	f.record("UpdateSubmodules")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updated = append(f.Updated, dir)
	return nil
}

func (f *Fake) RemoteBranchesContaining(ctx context.Context, dir, revision string) ([]string, error) {
	f.record("RemoteBranchesContaining")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Branches[dir], nil
}

func (f *Fake) RemoteHead(ctx context.Context, url, branch string) (string, error) {
	f.record("RemoteHead")
	f.mu.Lock()
	defer f.mu.Unlock()
	head, ok := f.RemoteHeads[url+" "+branch]
	if !ok {
		return "", fmt.Errorf("gittest: no remote head configured for %s %s", url, branch)
	}
	return head, nil
}

func (f *Fake) ShowFile(ctx context.Context, dir, revision, path string) ([]byte, error) {
	f.record("ShowFile")
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Files[dir+" "+revision+" "+path]
	if !ok {
		return nil, fmt.Errorf("gittest: no file configured for %s at %s in %s", path, revision, dir)
	}
	return data, nil
}

func (f *Fake) Describe(ctx context.Context, dir, ref, format string) (string, error) {
	f.record("Describe")
	return "fake " + ref, nil
}
