package cmdutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []*Invocation
}

func (r *recorder) run(_ context.Context, inv *Invocation) error {
	r.calls = append(r.calls, inv)
	return nil
}

func newTestTree(rec *recorder) *Node {
	root := New("sds", "SDS CLI Tool - Managed environment and repository operations",
		WithPersistentFlags(func(fs *pflag.FlagSet) {
			fs.BoolP("verbose", "v", false, "print debug log messages")
			fs.StringP("output", "o", "", "output file")
			fs.String("log-env", "", "log environment")
		}),
	)

	root.Add(New("version", "Shows the version of the environment", WithRun(rec.run)))
	root.Add(New("status", "Shows the environment status",
		WithFlags(func(fs *pflag.FlagSet) {
			fs.Bool("json", false, "print JSON")
		}),
		WithRun(rec.run),
	))

	repo := root.Add(New("repo", "Repository operations"))
	merge := repo.Add(New("merge", "Merges branches"))
	merge.Add(New("upstream", "Merge from upstream", WithRun(rec.run)))
	merge.Add(New("main", "Merge from main", WithRun(rec.run)))

	root.Add(New("service", "Service operations",
		WithSubCommand(New("build", "Build a service",
			WithParams(
				Required("service_name", "Name of the service to build"),
				OptionalDefault("branch_name", "main", "Branch to build from"),
			),
			WithRun(rec.run),
		)),
		WithSubCommand(New("deploy", "Deploy a service",
			WithParams(
				Required("service_name", "Name of the service to deploy"),
				Required("source_tag", "Source tag/version to deploy"),
				Required("destination_env", "Destination environment"),
			),
			WithRun(rec.run),
		)),
		WithSubCommand(New("fail", "Always fails",
			WithRun(func(context.Context, *Invocation) error {
				return errors.New("kaputt")
			}),
		)),
	))

	return root
}

type dispatchResult struct {
	code   int
	stdout string
	stderr string
}

func dispatch(t *testing.T, root *Node, args []string, options ...DispatcherOption) dispatchResult {
	t.Helper()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	options = append([]DispatcherOption{WithOutput(stdout, stderr)}, options...)

	d, err := NewDispatcher(root, options...)
	require.NoError(t, err)

	code := d.Dispatch(context.Background(), args)
	return dispatchResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestDispatchWithoutArgsShowsRootHelp(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), nil)

	assert.Equal(t, ExitCodeOK, res.code)
	assert.Empty(t, rec.calls)
	assert.Empty(t, res.stderr)
	assert.Contains(t, res.stdout, "SDS CLI Tool")
	assert.Contains(t, res.stdout, "Available Commands:")
	assert.Contains(t, res.stdout, "Repository operations")
}

func TestDispatchHelpKeepsRegistrationOrder(t *testing.T) {
	res := dispatch(t, newTestTree(new(recorder)), nil)

	order := []string{"version", "status", "repo", "service"}
	last := -1
	for _, name := range order {
		idx := strings.Index(res.stdout, "  "+name+" ")
		require.Greater(t, idx, last, name)
		last = idx
	}
}

func TestDispatchIncompleteShowsDeepestHelp(t *testing.T) {
	rec := new(recorder)
	root := newTestTree(rec)

	res := dispatch(t, root, []string{"repo", "merge"})
	assert.Equal(t, ExitCodeOK, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stdout, "Merges branches")
	assert.Contains(t, res.stdout, "Merge from upstream")
	assert.Contains(t, res.stdout, "Merge from main")
	assert.NotContains(t, res.stdout, "Service operations")

	res = dispatch(t, root, []string{"-v", "repo"})
	assert.Equal(t, ExitCodeOK, res.code)
	assert.Contains(t, res.stdout, "Merges branches")
	assert.NotContains(t, res.stdout, "Merge from main")

	res = dispatch(t, root, []string{"repo"}, WithIncompleteExitCode(ExitCodeUsage))
	assert.Equal(t, ExitCodeUsage, res.code)
}

func TestDispatchBindsDefaults(t *testing.T) {
	rec := new(recorder)
	root := newTestTree(rec)

	res := dispatch(t, root, []string{"service", "build", "payments"})
	require.Equal(t, ExitCodeOK, res.code, res.stderr)
	require.Len(t, rec.calls, 1)

	inv := rec.calls[0]
	assert.Equal(t, []string{"service", "build"}, inv.Path())
	assert.Equal(t, "sds service build", inv.CommandPath())
	assert.Equal(t, map[string]string{
		"service_name": "payments",
		"branch_name":  "main",
	}, inv.Params())

	res = dispatch(t, root, []string{"service", "build", "payments", "feature"})
	require.Equal(t, ExitCodeOK, res.code, res.stderr)
	require.Len(t, rec.calls, 2)
	assert.Equal(t, "feature", rec.calls[1].Param("branch_name"))
}

func TestDispatchMissingRequiredParam(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"service", "build"})

	assert.Equal(t, ExitCodeUsage, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stderr, `Error: missing required argument "service_name"`)
	assert.Contains(t, res.stderr, "sds service build <service_name> [branch_name]")
}

func TestDispatchSurplusParams(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"service", "deploy", "a", "b", "c", "d"})

	assert.Equal(t, ExitCodeUsage, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stderr, "Error: accepts at most 3 arg(s), received 4: d")
}

func TestDispatchUnknownCommand(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"repo", "frobnicate"})

	assert.Equal(t, ExitCodeUsage, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stderr, `Error: unknown command "frobnicate" for "sds repo"`)
	assert.Contains(t, res.stderr, "Usage:")
}

func TestDispatchUnknownFlag(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"repo", "merge", "main", "--force"})

	assert.Equal(t, ExitCodeUsage, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stderr, "Error: unknown flag: --force")
}

func TestDispatchHandlerError(t *testing.T) {
	res := dispatch(t, newTestTree(new(recorder)), []string{"service", "fail"})

	assert.Equal(t, ExitCodeGeneralError, res.code)
	assert.Equal(t, "Error: kaputt\n", res.stderr)
}

func TestDispatchHelpFlag(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"repo", "merge", "main", "-h"})

	assert.Equal(t, ExitCodeOK, res.code)
	assert.Empty(t, rec.calls)
	assert.Contains(t, res.stdout, "Merge from main")
	assert.Contains(t, res.stdout, "--verbose")
}

func TestDispatchPersistentFlags(t *testing.T) {
	rec := new(recorder)
	res := dispatch(t, newTestTree(rec), []string{"-v", "--log-env", "gcp", "repo", "merge", "main"})
	require.Equal(t, ExitCodeOK, res.code, res.stderr)
	require.Len(t, rec.calls, 1)

	inv := rec.calls[0]
	assert.Equal(t, []string{"repo", "merge", "main"}, inv.Path())

	verbose, err := inv.Flags().GetBool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)

	env, err := inv.Flags().GetString("log-env")
	require.NoError(t, err)
	assert.Equal(t, "gcp", env)
}

func TestDispatchFlagsDoNotLeak(t *testing.T) {
	rec := new(recorder)
	root := newTestTree(rec)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	d, err := NewDispatcher(root, WithOutput(stdout, stderr))
	require.NoError(t, err)

	require.Equal(t, ExitCodeOK, d.Dispatch(context.Background(), []string{"status", "--json"}))
	require.Equal(t, ExitCodeOK, d.Dispatch(context.Background(), []string{"status"}))
	require.Len(t, rec.calls, 2)

	first, _ := rec.calls[0].Flags().GetBool("json")
	second, _ := rec.calls[1].Flags().GetBool("json")
	assert.True(t, first)
	assert.False(t, second)
}

type ctxKey struct{}

func TestDispatchPreRun(t *testing.T) {
	var seen any
	root := New("app", "test app",
		WithSubCommand(New("run", "run it",
			WithRun(func(ctx context.Context, _ *Invocation) error {
				seen = ctx.Value(ctxKey{})
				return nil
			}),
		)),
	)

	res := dispatch(t, root, []string{"run"},
		WithPreRun(func(ctx context.Context, inv *Invocation) (context.Context, error) {
			return context.WithValue(ctx, ctxKey{}, inv.CommandPath()), nil
		}),
	)
	require.Equal(t, ExitCodeOK, res.code)
	assert.Equal(t, "app run", seen)

	seen = nil
	res = dispatch(t, root, []string{"run"},
		WithPreRun(func(ctx context.Context, _ *Invocation) (context.Context, error) {
			return nil, errors.New("no config")
		}),
	)
	assert.Equal(t, ExitCodeGeneralError, res.code)
	assert.Equal(t, "Error: no config\n", res.stderr)
	assert.Nil(t, seen)
}

func TestDispatchRejectsInvalidTree(t *testing.T) {
	_, err := NewDispatcher(New("app", "test app"))
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	root := New("app", "test app", WithVersionCommand())
	res := dispatch(t, root, []string{"version"})

	assert.Equal(t, ExitCodeOK, res.code)
	assert.Contains(t, res.stdout, "Name:       ")
	assert.Contains(t, res.stdout, "CommitHash: ")
}
