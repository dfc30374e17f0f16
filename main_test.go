// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bep/helpers/envhelpers"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestScripts(t *testing.T) {
	params := commonTestScriptsParam
	params.Dir = "testscripts"
	// params.TestWork = true
	// params.UpdateScripts = true
	testscript.Run(t, params)
}

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"wsgit": func() int {
			main()
			return 0
		},
	}))
}

func testSetupFunc() func(env *testscript.Env) error {
	sourceDir, _ := os.Getwd()
	return func(env *testscript.Env) error {
		var keyVals []string
		keyVals = append(keyVals, "SOURCE", sourceDir)
		// Scripts create commits; give git an identity independent of
		// the host configuration.
		keyVals = append(keyVals, "GIT_AUTHOR_NAME", "wsgit-test")
		keyVals = append(keyVals, "GIT_AUTHOR_EMAIL", "wsgit-test@example.com")
		keyVals = append(keyVals, "GIT_COMMITTER_NAME", "wsgit-test")
		keyVals = append(keyVals, "GIT_COMMITTER_EMAIL", "wsgit-test@example.com")
		envhelpers.SetEnvVars(&env.Vars, keyVals...)

		return nil
	}
}

var commonTestScriptsParam = testscript.Params{
	Setup: func(env *testscript.Env) error {
		return testSetupFunc()(env)
	},
	Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
		// tree lists a directory recursively to stdout as a simple tree,
		// tagging workspace roots and git working trees.
		"tree": func(ts *testscript.TestScript, neg bool, args []string) {
			dirname := ts.MkAbs(args[0])

			err := filepath.WalkDir(dirname, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					return nil
				}
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				entries, err := os.ReadDir(path)
				if err != nil {
					return err
				}
				nodeType := "dir"
				for _, entry := range entries {
					if !entry.IsDir() && entry.Name() == ".wsgit.json" {
						nodeType = "workspace"
						break
					}
					if entry.IsDir() && entry.Name() == ".git" {
						nodeType = "git"
						break
					}
				}
				rel, err := filepath.Rel(dirname, path)
				if err != nil {
					return err
				}
				if rel == "." {
					fmt.Fprintf(ts.Stdout(), ". (%s)\n", nodeType)
					return nil
				}
				depth := strings.Count(rel, string(os.PathSeparator))
				prefix := strings.Repeat("  ", depth) + "└─"
				fmt.Fprintf(ts.Stdout(), "%s%s:%s/\n", prefix, nodeType, d.Name())
				if nodeType == "git" {
					return filepath.SkipDir
				}
				return nil
			})
			if err != nil {
				ts.Fatalf("%v", err)
			}
		},
	},
}
