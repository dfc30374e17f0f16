// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the repository
// operations wsgit needs: cloning, fetching, detached checkouts,
// submodule handling and a handful of read-only inspections. All
// commands target a specific directory via the -C flag, injected by
// the client so callers always say which repository they mean.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Client is the version-control surface consumed by the rest of the
// tool. Implementations shell out to git; tests substitute a fake.
type Client interface {
	// Clone clones url into dir.
	Clone(ctx context.Context, url, dir string) error
	// Fetch fetches remote in dir.
	Fetch(ctx context.Context, dir, remote string) error
	// CheckoutDetached moves the working tree at dir to revision with
	// a detached HEAD.
	CheckoutDetached(ctx context.Context, dir, revision string) error
	// RevParse runs rev-parse with args and returns trimmed stdout.
	RevParse(ctx context.Context, dir string, args ...string) (string, error)
	// Toplevel reports the top-level directory of the working tree
	// enclosing dir. ok is false when dir is not inside a working tree.
	Toplevel(ctx context.Context, dir string) (top string, ok bool)
	// ListSubmodules returns the paths of all submodules declared in
	// the working tree at dir, in status order.
	ListSubmodules(ctx context.Context, dir string) ([]string, error)
	// UpdateSubmodules initializes and updates the given submodule
	// paths. A depth > 0 requests shallow submodule clones.
	UpdateSubmodules(ctx context.Context, dir string, paths []string, depth int) error
	// RemoteBranchesContaining lists the remote branches whose history
	// contains revision.
	RemoteBranchesContaining(ctx context.Context, dir, revision string) ([]string, error)
	// RemoteHead returns the commit at the tip of branch on the remote
	// at url, without requiring a local clone.
	RemoteHead(ctx context.Context, url, branch string) (string, error)
	// ShowFile returns the contents of path as it existed at revision,
	// read from history without touching the working tree.
	ShowFile(ctx context.Context, dir, revision, path string) ([]byte, error)
	// Describe returns a one-line description of ref rendered with the
	// given --format string.
	Describe(ctx context.Context, dir, ref, format string) (string, error)
}

// CommandError reports a git invocation that exited non-zero. It
// carries the argv and captured stderr so a single error line is
// enough to diagnose the failure.
type CommandError struct {
	Args   []string
	Dir    string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.Dir != "" {
		msg += " in " + e.Dir
	}
	msg += ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// CLI is the exec-based Client. Commands that mutate working trees
// echo their command line to Out, prefixed with the directory they
// run in; inspections stay silent.
type CLI struct {
	Out io.Writer
}

// NewCLI returns a CLI echoing loud commands to out.
func NewCLI(out io.Writer) *CLI {
	if out == nil {
		out = io.Discard
	}
	return &CLI{Out: out}
}

func (c *CLI) Clone(ctx context.Context, url, dir string) error {
	_, err := c.run(ctx, "", false, "clone", url, dir)
	return err
}

func (c *CLI) Fetch(ctx context.Context, dir, remote string) error {
	_, err := c.run(ctx, dir, true, "fetch", remote)
	return err
}

func (c *CLI) CheckoutDetached(ctx context.Context, dir, revision string) error {
	_, err := c.run(ctx, dir, false, "checkout", "--detach", revision)
	return err
}

func (c *CLI) RevParse(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.run(ctx, dir, true, append([]string{"rev-parse"}, args...)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) Toplevel(ctx context.Context, dir string) (string, bool) {
	out, err := c.run(ctx, dir, true, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

func (c *CLI) ListSubmodules(ctx context.Context, dir string) ([]string, error) {
	out, err := c.run(ctx, dir, true, "submodule", "status")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		paths = append(paths, fields[1])
	}
	return paths, nil
}

func (c *CLI) UpdateSubmodules(ctx context.Context, dir string, paths []string, depth int) error {
	args := []string{"submodule", "update", "--init"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, "--")
	args = append(args, paths...)
	_, err := c.run(ctx, dir, false, args...)
	return err
}

func (c *CLI) RemoteBranchesContaining(ctx context.Context, dir, revision string) ([]string, error) {
	out, err := c.run(ctx, dir, true, "branch", "-r", "--contains", revision)
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

func (c *CLI) RemoteHead(ctx context.Context, url, branch string) (string, error) {
	out, err := c.run(ctx, "", true, "ls-remote", "--heads", url, branch)
	if err != nil {
		return "", err
	}
	lines := nonEmptyLines(out)
	if len(lines) != 1 {
		return "", fmt.Errorf("ls-remote returned %d results for %s %s, want exactly one", len(lines), url, branch)
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 1 {
		return "", fmt.Errorf("ls-remote returned malformed output for %s %s", url, branch)
	}
	return fields[0], nil
}

func (c *CLI) ShowFile(ctx context.Context, dir, revision, path string) ([]byte, error) {
	out, err := c.run(ctx, dir, true, "show", revision+":"+path)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (c *CLI) Describe(ctx context.Context, dir, ref, format string) (string, error) {
	out, err := c.run(ctx, dir, true, "show", "--quiet", "--format=format:"+format, ref)
	if err != nil {
		return "", err
	}
	lines := nonEmptyLines(out)
	if len(lines) == 0 {
		return "", nil
	}
	return strings.TrimSpace(lines[0]), nil
}

func (c *CLI) run(ctx context.Context, dir string, silent bool, args ...string) (string, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}
	if !silent {
		where := dir
		if where == "" {
			where = "."
		}
		fmt.Fprintf(c.Out, "[%s]$ git %s\n", where, strings.Join(args, " "))
	}
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", full...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return "", &CommandError{
			Args:   args,
			Dir:    dir,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
