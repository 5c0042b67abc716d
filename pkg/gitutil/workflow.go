package gitutil

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vm2r/sds/pkg/executil"
	"github.com/vm2r/sds/pkg/logutil"
)

const (
	DefaultUpstreamURL = "https://github.com/vm2r/sds.git"

	MainBranch   = "main"
	UpstreamName = "upstream"
	OriginName   = "origin"
)

// ErrDetachedHead is returned by MergeMain when no branch is checked out.
var ErrDetachedHead = errors.New("no branch checked out (detached HEAD)")

// Step is one git invocation of a workflow.
type Step struct {
	Label string
	Args  []string
}

// Git runs the repository workflows. All processes are executed through the
// Runner.
type Git struct {
	Runner      *executil.Runner
	UpstreamURL string
}

func New(runner *executil.Runner) *Git {
	return &Git{
		Runner:      runner,
		UpstreamURL: DefaultUpstreamURL,
	}
}

func (g *Git) upstreamURL() string {
	if g.UpstreamURL == "" {
		return DefaultUpstreamURL
	}
	return g.UpstreamURL
}

// runSteps runs the steps in order and stops at the first failure.
func (g *Git) runSteps(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		_, err := g.Runner.Run(ctx, step.Label, step.Args...)
		if err != nil {
			return err
		}
	}
	return nil
}

// CurrentBranch returns the name of the checked out branch.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	return g.Runner.Run(ctx, "Identifying current branch",
		"git", "rev-parse", "--abbrev-ref", "HEAD")
}

// RepoRoot returns the top level directory of the working tree.
func (g *Git) RepoRoot(ctx context.Context) (string, error) {
	return g.Runner.Run(ctx, "Identifying repository root",
		"git", "rev-parse", "--show-toplevel")
}

// SyncUpstream makes sure the upstream remote exists, fast-forwards the
// current branch to upstream/main and pushes it to origin. A failing step
// aborts the remaining ones. Nothing gets rolled back.
func (g *Git) SyncUpstream(ctx context.Context) error {
	ctx = logutil.Start(ctx, "sync-upstream")
	log := logutil.Get(ctx).At("gitutil.SyncUpstream")
	r := g.Runner

	r.Section("Setting up GIT remotes")

	err := g.ensureUpstream(ctx)
	if err != nil {
		return err
	}

	r.Section("Fetching updates from upstream")
	err = g.runSteps(ctx, []Step{
		{Label: "  - git fetch upstream", Args: []string{"git", "fetch", UpstreamName}},
	})
	if err != nil {
		return err
	}

	// Fast-forward only. A diverged branch must never receive a merge commit
	// from upstream.
	r.Section("Merging updated from upstream into local branch")
	err = g.runSteps(ctx, []Step{
		{
			Label: "  - git merge upstream/main --ff-only",
			Args:  []string{"git", "merge", UpstreamName + "/" + MainBranch, "--ff-only"},
		},
	})
	if err != nil {
		return err
	}

	r.Section("Pushing updated branch to origin")
	err = g.runSteps(ctx, []Step{
		{Label: "  - git push origin", Args: []string{"git", "push", OriginName}},
	})
	if err != nil {
		return err
	}

	r.Notice(executil.ToneSuccess, "Repo merge upstream completed successfully.")
	log.Info("synced with upstream", "url", g.upstreamURL())

	return nil
}

func (g *Git) ensureUpstream(ctx context.Context) error {
	r := g.Runner

	r.Aligned("  - Checking remotes")
	result, err := r.Query(ctx, "git", "remote")
	if err != nil {
		r.Mark(executil.MarkerError)
		r.Notice(executil.ToneError, "\nABORTING\n")

		var cerr *executil.CommandError
		if errors.As(err, &cerr) {
			fmt.Fprintf(r.Stderr(), "\nError Details:\n%s\n", cerr.Details())
		}

		return errors.Wrap(err, "check remotes")
	}

	if slices.Contains(strings.Fields(result.Stdout), UpstreamName) {
		r.Mark(executil.MarkerAlreadySet)
		return nil
	}

	r.Mark(executil.MarkerNotSet)

	url := g.upstreamURL()
	return g.runSteps(ctx, []Step{
		{
			Label: "    - git remote add upstream " + url,
			Args:  []string{"git", "remote", "add", UpstreamName, url},
		},
	})
}

// workflowContext is captured when a workflow starts and is read by the
// restoration step.
type workflowContext struct {
	branch string
}

// MergeMain updates the local main branch from origin and merges it into the
// current branch. Whatever happens, the originally checked out branch is
// checked out again afterwards.
func (g *Git) MergeMain(ctx context.Context) error {
	ctx = logutil.Start(ctx, "merge-main")
	r := g.Runner

	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	if branch == MainBranch {
		r.Notice(executil.ToneWarning, "Already on 'main' branch. Nothing to merge.")
		return nil
	}

	// rev-parse reports a detached HEAD as "HEAD", which cannot be checked
	// out again after switching to main.
	if branch == "HEAD" {
		r.Notice(executil.ToneError, "Not on a branch. Check out the branch to merge 'main' into.")
		return ErrDetachedHead
	}

	wc := workflowContext{branch: branch}
	defer g.restore(ctx, wc)

	r.Section(fmt.Sprintf("Merging 'main' into '%s'", branch))

	err = g.runSteps(ctx, MergeMainSteps(branch))
	if err != nil {
		return err
	}

	r.Notice(executil.ToneSuccess, "Repo merge main completed successfully.")
	logutil.Get(ctx).At("gitutil.MergeMain").Info("merged main", "branch", branch)

	return nil
}

// MergeMainSteps returns the steps that merge main into branch.
func MergeMainSteps(branch string) []Step {
	return []Step{
		{Label: "  - Fetching from origin", Args: []string{"git", "fetch", OriginName}},
		{Label: "  - Switching to main", Args: []string{"git", "checkout", MainBranch}},
		{
			Label: "  - Updating local main",
			Args:  []string{"git", "merge", OriginName + "/" + MainBranch, "--ff-only"},
		},
		{
			Label: fmt.Sprintf("  - Switching back to '%s'", branch),
			Args:  []string{"git", "checkout", branch},
		},
		{
			Label: fmt.Sprintf("  - Merging 'main' into '%s'", branch),
			Args:  []string{"git", "merge", MainBranch},
		},
	}
}

// restore checks out the branch of wc again, if it is not the current one.
// Errors are only logged, so they never hide the error of the workflow.
func (g *Git) restore(ctx context.Context, wc workflowContext) {
	ctx = context.WithoutCancel(ctx)
	log := logutil.Get(ctx).At("gitutil.restore")
	r := g.Runner

	result, err := r.Query(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		log.Debug("cannot read current branch", "error", err)
		return
	}

	if strings.TrimSpace(result.Stdout) == wc.branch {
		return
	}

	r.Aligned(fmt.Sprintf("  - Restoring branch '%s'", wc.branch))
	_, err = r.Query(ctx, "git", "checkout", wc.branch)
	if err != nil {
		r.Mark(executil.MarkerError)
		log.Debug("cannot restore branch", "branch", wc.branch, "error", err)
		return
	}

	r.Mark(executil.MarkerDone)
}
