// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/repoforge/wsgit/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := cli.New(os.Stdout, os.Getwd)
	return root.Execute(os.Args[1:])
}
