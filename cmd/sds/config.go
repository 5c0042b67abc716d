package main

import (
	"context"

	"github.com/vm2r/sds/pkg/cmdutil"
	"github.com/vm2r/sds/pkg/confutil"
	"github.com/vm2r/sds/pkg/executil"
	"github.com/vm2r/sds/pkg/gitutil"
	"github.com/vm2r/sds/pkg/sdsutil"
)

func registerConfig(root *cmdutil.Node, app *App) *cmdutil.Node {
	config := root.Add(cmdutil.New("config", "Configuration management"))

	config.Add(cmdutil.New("edit", "Edit sds.conf",
		cmdutil.WithRun(app.withEditor(func(ctx context.Context, e *sdsutil.Editor) error {
			return e.Edit(ctx)
		})),
	))

	config.Add(cmdutil.New("validate", "Validate sds.conf",
		cmdutil.WithRun(app.withEditor(func(ctx context.Context, e *sdsutil.Editor) error {
			return e.Validate(ctx)
		})),
	))

	return config
}

// withEditor locates the repository before fn runs, since the configuration
// file lives at a fixed place below its root.
func (app *App) withEditor(fn func(context.Context, *sdsutil.Editor) error) cmdutil.Handler {
	return func(ctx context.Context, _ *cmdutil.Invocation) error {
		return app.container.Invoke(func(cfg *confutil.Config, runner *executil.Runner, g *gitutil.Git) error {
			root, err := g.RepoRoot(ctx)
			if err != nil {
				return err
			}

			return fn(ctx, &sdsutil.Editor{
				Runner:     runner,
				Layout:     sdsutil.Layout{RepoRoot: root},
				Command:    cfg.GetString("sds.editor", sdsutil.DefaultEditor),
				IsTerminal: app.IsTerminal,
				Environ:    app.Environ,
			})
		})
	}
}
