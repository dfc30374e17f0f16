// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

// Package pypi shells out to pip for the two package-index operations
// wsgit needs: querying available versions of a package and
// reinstalling a requirements file after a version bump.
package pypi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Client is the package-index surface consumed by roll actions.
type Client interface {
	// QueryVersions returns the raw output of a pip "index versions"
	// query for pkg. Callers scan it for the "Available versions:"
	// line; the raw text is returned so that contract stays in one
	// place.
	QueryVersions(ctx context.Context, pkg string, flags []string) (string, error)
	// InstallRequirements force-reinstalls the requirements file at
	// dir/file.
	InstallRequirements(ctx context.Context, dir, file string) error
}

// CLI runs pip through a Python interpreter, "python3" unless
// overridden. Command lines are echoed to Out before running.
type CLI struct {
	Python string
	Out    io.Writer
}

// NewCLI returns a CLI echoing command lines to out.
func NewCLI(out io.Writer) *CLI {
	if out == nil {
		out = io.Discard
	}
	return &CLI{Python: "python3", Out: out}
}

func (c *CLI) QueryVersions(ctx context.Context, pkg string, flags []string) (string, error) {
	args := append([]string{"-m", "pip", "index"}, flags...)
	args = append(args, "versions", pkg)
	return c.run(ctx, "", args)
}

func (c *CLI) InstallRequirements(ctx context.Context, dir, file string) error {
	_, err := c.run(ctx, dir, []string{"-m", "pip", "install", "--force-reinstall", "-r", file})
	return err
}

func (c *CLI) run(ctx context.Context, dir string, args []string) (string, error) {
	fmt.Fprintf(c.Out, "$ %s %s\n", c.Python, strings.Join(args, " "))
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, c.Python, args...)
	command.Dir = dir
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w (stderr: %s)",
			c.Python, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
