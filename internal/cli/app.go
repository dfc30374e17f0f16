// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/repoforge/wsgit/internal/git"
	"github.com/repoforge/wsgit/internal/pins"
	"github.com/repoforge/wsgit/internal/pypi"
	"github.com/repoforge/wsgit/internal/registry"
	"github.com/repoforge/wsgit/internal/roll"
	"github.com/repoforge/wsgit/internal/walker"
	"github.com/repoforge/wsgit/internal/workspace"
)

// App holds the process-level wiring for one CLI invocation.
type App struct {
	out   io.Writer
	quiet bool
	getwd func() (string, error)
}

// New builds the root command. Progress and results go to out; the
// global --quiet flag swaps it for io.Discard.
func New(out io.Writer, getwd func() (string, error)) *Command {
	app := &App{out: out, getwd: getwd}
	return &Command{
		Name:    "wsgit",
		Summary: "Multi-repository workspace manager.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("wsgit", pflag.ContinueOnError)
			// Stop at the first positional so subcommand flags are
			// left for the subcommand.
			flags.SetInterspersed(false)
			flags.BoolVar(&app.quiet, "quiet", false, "suppress all output")
			return flags
		},
		Subcommands: []*Command{
			app.initCommand(),
			app.checkoutCommand(),
			app.pinCommand(),
			app.syncCommand(),
			app.rollCommand(),
			app.showCommand(),
		},
	}
}

func (a *App) output() io.Writer {
	if a.quiet {
		return io.Discard
	}
	return a.out
}

// env assembles the per-command environment: workspace discovery,
// registry load from the workspace root, and the external clients.
func (a *App) env() (*workspace.Env, error) {
	cwd, err := a.getwd()
	if err != nil {
		return nil, err
	}
	ws, err := workspace.FindRequired(cwd)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(filepath.Join(ws.Dir, registry.ConfigFilename))
	if err != nil {
		return nil, err
	}
	out := a.output()
	return &workspace.Env{
		Registry:  reg,
		Workspace: ws,
		Git:       git.NewCLI(out),
		Pip:       pypi.NewCLI(out),
		Out:       out,
	}, nil
}

// currentRepo resolves the repository enclosing the working directory
// and its top-level path.
func (a *App) currentRepo(ctx context.Context, env *workspace.Env) (*workspace.Repo, string, error) {
	cwd, err := a.getwd()
	if err != nil {
		return nil, "", err
	}
	top, ok := env.Git.Toplevel(ctx, cwd)
	if !ok {
		return nil, "", fmt.Errorf("directory %s does not enclose a git repository", cwd)
	}
	repo, found := env.Registry.Find(filepath.Base(top))
	if !found {
		return nil, "", fmt.Errorf("git repository %s is not a known workspace repository", top)
	}
	return repo, top, nil
}

func (a *App) initCommand() *Command {
	return &Command{
		Name:    "init",
		Summary: "Initialize (or re-initialize) a workspace.",
		Run: func(args []string) error {
			cwd, err := a.getwd()
			if err != nil {
				return err
			}
			ws, ok, err := workspace.Find(cwd)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(a.output(), "Running within existing workspace: %s\n", ws.Dir)
				return nil
			}
			ws, err = workspace.Init(cwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.output(), "Initialized workspace at: %s\n", ws.Dir)
			return nil
		},
	}
}

func (a *App) checkoutCommand() *Command {
	var (
		sync              bool
		noSubmodules      bool
		noDeps            bool
		ro                bool
		excludeSubmodules []string
		excludeDeps       []string
	)
	return &Command{
		Name:    "checkout",
		Summary: "Check out repositories and their dependencies.",
		Usage:   "wsgit checkout [flags] <name>...",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
			flags.BoolVar(&sync, "sync", false, "sync deps as repositories are checked out")
			flags.BoolVar(&noSubmodules, "no-submodules", false, "disable all submodule updates")
			flags.BoolVar(&noDeps, "no-deps", false, "disable checkout of dependencies")
			flags.BoolVar(&ro, "ro", false, "clone repositories using the read-only origins")
			flags.StringArrayVar(&excludeSubmodules, "exclude-submodule", nil, "exclude submodules by regex (matched against 'name:path')")
			flags.StringArrayVar(&excludeDeps, "exclude-dep", nil, "exclude dependencies by regex")
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("checkout requires at least one repository name")
			}
			ctx := context.Background()
			env, err := a.env()
			if err != nil {
				return err
			}
			opts := walker.CheckoutOptions{
				RW:                !ro,
				Deps:              !noDeps,
				Submodules:        !noSubmodules,
				ExcludeSubmodules: excludeSubmodules,
				ExcludeDeps:       excludeDeps,
			}
			updatedHeads := make(map[string]string)
			for _, name := range args {
				repo, err := env.Registry.Lookup(name)
				if err != nil {
					return err
				}
				if err := walker.Checkout(ctx, env, repo, opts, make(map[string]bool)); err != nil {
					return err
				}
				if sync {
					syncOpts := walker.SyncOptions{
						ExcludeSubmodules: excludeSubmodules,
						ExcludeDeps:       excludeDeps,
					}
					if err := walker.Sync(ctx, env, repo, env.RepoDir(repo), syncOpts, updatedHeads); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func (a *App) pinCommand() *Command {
	var requireUpstream bool
	return &Command{
		Name:    "pin",
		Summary: "Pin deps to current revisions.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("pin", pflag.ContinueOnError)
			flags.BoolVar(&requireUpstream, "require-upstream", false, "require pinned revisions to be on the remote tracking branch")
			return flags
		},
		Run: func(args []string) error {
			ctx := context.Background()
			env, err := a.env()
			if err != nil {
				return err
			}
			repo, top, err := a.currentRepo(ctx, env)
			if err != nil {
				return err
			}
			return pins.Update(ctx, env, repo, top, requireUpstream)
		},
	}
}

func (a *App) syncCommand() *Command {
	var (
		excludeSubmodules []string
		excludeDeps       []string
		submodulesDepth   int
	)
	return &Command{
		Name:    "sync",
		Summary: "Sync dependent repositories to the pins of the current repository.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flags.StringArrayVar(&excludeSubmodules, "exclude-submodule", nil, "exclude submodules by regex (matched against 'name:path')")
			flags.StringArrayVar(&excludeDeps, "exclude-dep", nil, "exclude dependencies by regex")
			flags.IntVar(&submodulesDepth, "submodules-depth", 0, "update submodules with --depth")
			return flags
		},
		Run: func(args []string) error {
			ctx := context.Background()
			env, err := a.env()
			if err != nil {
				return err
			}
			repo, top, err := a.currentRepo(ctx, env)
			if err != nil {
				return err
			}
			opts := walker.SyncOptions{
				ExcludeSubmodules: excludeSubmodules,
				ExcludeDeps:       excludeDeps,
				SubmodulesDepth:   submodulesDepth,
			}
			return walker.Sync(ctx, env, repo, top, opts, make(map[string]string))
		},
	}
}

func (a *App) rollCommand() *Command {
	return &Command{
		Name:    "roll",
		Summary: "Apply a dependency rolling schedule.",
		Usage:   "wsgit roll <schedule>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("roll requires exactly one schedule name")
			}
			ctx := context.Background()
			env, err := a.env()
			if err != nil {
				return err
			}
			repo, _, err := a.currentRepo(ctx, env)
			if err != nil {
				return err
			}
			return roll.Run(ctx, env, repo, args[0])
		},
	}
}

func (a *App) showCommand() *Command {
	return &Command{
		Name:    "show",
		Summary: "Show a commit summary for each pinned dependency.",
		Run: func(args []string) error {
			ctx := context.Background()
			env, err := a.env()
			if err != nil {
				return err
			}
			_, top, err := a.currentRepo(ctx, env)
			if err != nil {
				return err
			}
			return pins.Show(ctx, env, top)
		},
	}
}
