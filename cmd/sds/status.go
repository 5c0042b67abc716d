package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vm2r/sds/pkg/cmdutil"
	"github.com/vm2r/sds/pkg/gitutil"
	"github.com/vm2r/sds/pkg/logutil"
)

func registerStatus(root *cmdutil.Node, app *App) *cmdutil.Node {
	return root.Add(cmdutil.New("status", "Shows the environment status",
		cmdutil.WithFlags(func(fs *pflag.FlagSet) {
			fs.Bool("json", false, "Print the status as JSON")
		}),
		cmdutil.WithRun(app.runStatus),
	))
}

func (app *App) runStatus(ctx context.Context, inv *cmdutil.Invocation) error {
	dir := app.Dir
	if dir == "" {
		dir = "."
	}

	status, err := gitutil.Inspect(dir)
	if err != nil {
		return err
	}

	logutil.Get(ctx).At("main.status").Debug("inspected repository",
		"root", status.Root,
		"branch", status.Branch,
	)

	asJSON, _ := inv.Flags().GetBool("json")
	if asJSON {
		noColor, _ := inv.Flags().GetBool(flagNoColor)
		fmt.Fprintln(inv.Stdout(), logutil.PrettyPrint(status, !noColor && colorful(inv.Stdout())))
		return nil
	}

	printStatus(inv.Stdout(), *status)
	return nil
}

func printStatus(w io.Writer, s gitutil.RepoStatus) {
	branch := s.Branch
	if s.Detached {
		branch = "detached"
	}
	if s.Head != "" {
		branch = fmt.Sprintf("%s (%s)", branch, s.Head)
	}

	upstream := "not configured"
	if s.HasUpstream {
		upstream = "configured"
	}

	worktree := "clean"
	if !s.Clean {
		worktree = fmt.Sprintf("%d changed file(s)", len(s.Changes))
	}

	fmt.Fprintf(w, "Repository: %s\n", s.Root)
	fmt.Fprintf(w, "Branch:     %s\n", branch)
	fmt.Fprintf(w, "Upstream:   %s\n", upstream)
	fmt.Fprintf(w, "Worktree:   %s\n", worktree)

	if len(s.Remotes) == 0 {
		return
	}

	fmt.Fprintln(w, "Remotes:")
	for _, r := range s.Remotes {
		fmt.Fprintf(w, "  %-10s %s\n", r.Name, strings.Join(r.URLs, ", "))
	}
}
