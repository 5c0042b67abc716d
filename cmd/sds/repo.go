package main

import (
	"context"

	"github.com/vm2r/sds/pkg/cmdutil"
	"github.com/vm2r/sds/pkg/digutil"
	"github.com/vm2r/sds/pkg/gitutil"
)

func registerRepo(root *cmdutil.Node, app *App) *cmdutil.Node {
	merge := cmdutil.New("merge", "Merges branches",
		cmdutil.WithSubCommand(cmdutil.New("upstream", "Merge from upstream",
			cmdutil.WithRun(app.withGit(func(ctx context.Context, g *gitutil.Git) error {
				return g.SyncUpstream(ctx)
			})),
		)),
		cmdutil.WithSubCommand(cmdutil.New("main", "Merge from main",
			cmdutil.WithRun(app.withGit(func(ctx context.Context, g *gitutil.Git) error {
				return g.MergeMain(ctx)
			})),
		)),
	)

	return root.Add(cmdutil.New("repo", "Repository operations",
		cmdutil.WithSubCommand(merge),
	))
}

func (app *App) withGit(fn func(context.Context, *gitutil.Git) error) cmdutil.Handler {
	return func(ctx context.Context, _ *cmdutil.Invocation) error {
		g, err := digutil.Get[*gitutil.Git](app.container)
		if err != nil {
			return err
		}
		return fn(ctx, g)
	}
}
