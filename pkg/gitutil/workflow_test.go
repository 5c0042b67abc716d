package gitutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vm2r/sds/pkg/executil"
	"github.com/vm2r/sds/pkg/testutil"
)

// fakeRepo emulates the parts of git the workflows rely on.
type fakeRepo struct {
	branch  string
	remotes []string

	// fail maps a command line to the stderr of a failing execution. Every
	// entry fails only once.
	fail map[string]string

	calls []string
}

func (f *fakeRepo) Execute(_ context.Context, c executil.Command) (executil.StepResult, error) {
	line := strings.Join(c.Args, " ")
	f.calls = append(f.calls, line)

	if stderr, ok := f.fail[line]; ok {
		delete(f.fail, line)
		return executil.StepResult{ExitCode: 1, Stderr: stderr}, nil
	}

	result := executil.StepResult{}
	switch {
	case line == "git rev-parse --abbrev-ref HEAD":
		result.Stdout = f.branch + "\n"
	case line == "git rev-parse --show-toplevel":
		result.Stdout = "/work/sds\n"
	case line == "git remote":
		result.Stdout = strings.Join(f.remotes, "\n") + "\n"
	case strings.HasPrefix(line, "git remote add "):
		f.remotes = append(f.remotes, c.Args[3])
	case c.Args[1] == "checkout":
		f.branch = c.Args[2]
	}

	return result, nil
}

func newTestGit(repo *fakeRepo) (*Git, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	runner := executil.NewRunner(
		executil.WithOutput(stdout, stderr),
		executil.WithExecutor(repo),
		executil.WithNoColor(true),
	)
	return New(runner), stdout, stderr
}

func TestSyncUpstreamAddsRemote(t *testing.T) {
	repo := &fakeRepo{branch: "main", remotes: []string{"origin"}}
	g, stdout, stderr := newTestGit(repo)

	require.NoError(t, g.SyncUpstream(context.Background()))

	testutil.AssertGolden(t, "test-fixtures/sync-upstream-not-set.txt", stdout.Bytes())
	testutil.AssertGoldenJSON(t, "test-fixtures/sync-upstream-not-set.json", repo.calls)
	assert.Empty(t, stderr.String())
	assert.Equal(t, []string{"origin", "upstream"}, repo.remotes)
}

func TestSyncUpstreamIsIdempotent(t *testing.T) {
	repo := &fakeRepo{branch: "main", remotes: []string{"origin"}}
	g, stdout, _ := newTestGit(repo)

	require.NoError(t, g.SyncUpstream(context.Background()))
	stdout.Reset()

	require.NoError(t, g.SyncUpstream(context.Background()))
	testutil.AssertGolden(t, "test-fixtures/sync-upstream-already-set.txt", stdout.Bytes())

	assert.Equal(t, "main", repo.branch)
	assert.Equal(t, []string{"origin", "upstream"}, repo.remotes)
}

func TestSyncUpstreamStopsAtFailure(t *testing.T) {
	repo := &fakeRepo{
		branch:  "main",
		remotes: []string{"origin", "upstream"},
		fail: map[string]string{
			"git merge upstream/main --ff-only": "fatal: Not possible to fast-forward, aborting.",
		},
	}
	g, stdout, stderr := newTestGit(repo)

	err := g.SyncUpstream(context.Background())
	require.Error(t, err)

	var cerr *executil.CommandError
	require.ErrorAs(t, err, &cerr)

	assert.Equal(t, []string{
		"git remote",
		"git fetch upstream",
		"git merge upstream/main --ff-only",
	}, repo.calls)
	assert.NotContains(t, stdout.String(), "Pushing updated branch to origin")
	assert.Contains(t, stderr.String(), "Error Details:\nfatal: Not possible to fast-forward, aborting.")
}

func TestSyncUpstreamAbortsWhenRemotesCannotBeRead(t *testing.T) {
	repo := &fakeRepo{
		fail: map[string]string{
			"git remote": "fatal: not a git repository",
		},
	}
	g, stdout, stderr := newTestGit(repo)

	err := g.SyncUpstream(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check remotes")

	assert.Equal(t, []string{"git remote"}, repo.calls)
	assert.Contains(t, stdout.String(), "  - Checking remotes")
	assert.Contains(t, stdout.String(), " ERROR\n")
	assert.Contains(t, stdout.String(), "\n\nABORTING\n\n")
	assert.Contains(t, stderr.String(), "fatal: not a git repository")
}

func TestMergeMainOnMainIsNoop(t *testing.T) {
	repo := &fakeRepo{branch: "main"}
	g, stdout, _ := newTestGit(repo)

	require.NoError(t, g.MergeMain(context.Background()))

	assert.Equal(t, []string{"git rev-parse --abbrev-ref HEAD"}, repo.calls)
	testutil.AssertGolden(t, "test-fixtures/merge-main-noop.txt", stdout.Bytes())
}

func TestMergeMainRefusesDetachedHead(t *testing.T) {
	repo := &fakeRepo{branch: "HEAD"}
	g, stdout, _ := newTestGit(repo)

	err := g.MergeMain(context.Background())
	require.ErrorIs(t, err, ErrDetachedHead)

	assert.Equal(t, []string{"git rev-parse --abbrev-ref HEAD"}, repo.calls)
	assert.Equal(t, "HEAD", repo.branch)
	assert.Contains(t, stdout.String(), "Not on a branch.")
	assert.NotContains(t, stdout.String(), "completed successfully")
	assert.NotContains(t, stdout.String(), "Restoring branch")
}

func TestMergeMainSuccess(t *testing.T) {
	repo := &fakeRepo{branch: "feature"}
	g, stdout, stderr := newTestGit(repo)

	require.NoError(t, g.MergeMain(context.Background()))

	testutil.AssertGolden(t, "test-fixtures/merge-main-success.txt", stdout.Bytes())
	testutil.AssertGoldenJSON(t, "test-fixtures/merge-main-success.json", repo.calls)
	assert.Empty(t, stderr.String())
	assert.Equal(t, "feature", repo.branch)
}

func TestMergeMainRestoresBranch(t *testing.T) {
	repo := &fakeRepo{
		branch: "feature",
		fail: map[string]string{
			"git merge origin/main --ff-only": "fatal: Not possible to fast-forward, aborting.",
		},
	}
	g, stdout, _ := newTestGit(repo)

	err := g.MergeMain(context.Background())
	require.Error(t, err)

	testutil.AssertGolden(t, "test-fixtures/merge-main-restore.txt", stdout.Bytes())
	assert.Equal(t, "feature", repo.branch)
}

func TestMergeMainAlwaysEndsOnOriginalBranch(t *testing.T) {
	for _, step := range MergeMainSteps("feature") {
		line := strings.Join(step.Args, " ")
		t.Run(line, func(t *testing.T) {
			repo := &fakeRepo{
				branch: "feature",
				fail:   map[string]string{line: "boom"},
			}
			g, stdout, _ := newTestGit(repo)

			err := g.MergeMain(context.Background())
			require.Error(t, err)
			assert.Equal(t, "feature", repo.branch)
			assert.NotContains(t, stdout.String(), "completed successfully")

			// Nothing runs after the failing step, besides the restoration.
			idx := indexOf(repo.calls, line)
			require.GreaterOrEqual(t, idx, 0)
			for _, call := range repo.calls[idx+1:] {
				assert.Contains(t, []string{
					"git rev-parse --abbrev-ref HEAD",
					"git checkout feature",
				}, call)
			}
		})
	}
}

func TestMergeMainSwallowsRestoreFailure(t *testing.T) {
	repo := &fakeRepo{
		branch: "feature",
		fail: map[string]string{
			"git merge origin/main --ff-only": "fatal: Not possible to fast-forward, aborting.",
			"git checkout feature":            "error: cannot checkout",
		},
	}
	g, stdout, stderr := newTestGit(repo)

	err := g.MergeMain(context.Background())
	require.Error(t, err)

	var cerr *executil.CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"git", "merge", "origin/main", "--ff-only"}, cerr.Result.Args)

	assert.Equal(t, "main", repo.branch)
	assert.True(t, strings.HasSuffix(stdout.String(), "  - Restoring branch 'feature'"+
		strings.Repeat(".", 30)+" ERROR\n"), stdout.String())
	assert.NotContains(t, stderr.String(), "cannot checkout")
}

func TestRepoRoot(t *testing.T) {
	g, stdout, _ := newTestGit(&fakeRepo{})

	root, err := g.RepoRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/work/sds", root)
	assert.Contains(t, stdout.String(), "Identifying repository root")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
