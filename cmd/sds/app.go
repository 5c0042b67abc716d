package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"go.uber.org/dig"

	"github.com/vm2r/sds/pkg/cmdutil"
	"github.com/vm2r/sds/pkg/confutil"
	"github.com/vm2r/sds/pkg/digutil"
	"github.com/vm2r/sds/pkg/executil"
	"github.com/vm2r/sds/pkg/gitutil"
	"github.com/vm2r/sds/pkg/logutil"
)

//go:embed config.yaml
var defaultConfig embed.FS

const appName = "sds"

const (
	flagVerbose     = "verbose"
	flagNoColor     = "no-color"
	flagLogEnv      = "log-env"
	flagGELFAddress = "gelf-address"
)

// App holds everything the commands need from the outside world. The zero
// value of every field except the streams falls back to the real process.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// Dir is the working directory for git and the status inspection.
	Dir string

	Executor   executil.Executor
	Config     fs.FS
	LookupEnv  func(string) (string, bool)
	IsTerminal func() bool
	Environ    func() []string

	// HandleSignals cancels the command context on SIGINT and SIGTERM.
	HandleSignals bool

	container *dig.Container
}

// NewRootCommand builds the complete command tree. Each subsystem registers
// its own subtree.
func NewRootCommand(app *App) *cmdutil.Node {
	root := cmdutil.New(appName, "SDS CLI Tool - Managed environment and repository operations",
		cmdutil.WithPersistentFlags(func(fs *pflag.FlagSet) {
			fs.BoolP(flagVerbose, "v", false, "Enable debug logging")
			fs.Bool(flagNoColor, false, "Disable colored output")
			fs.String(flagLogEnv, "", "Log format (local or gcp)")
			fs.String(flagGELFAddress, "", "Send logs to a Graylog GELF endpoint (host:port)")
		}),
		cmdutil.WithVersionCommand(),
	)

	registerStatus(root, app)
	registerRepo(root, app)
	registerService(root)
	registerConfig(root, app)

	return root
}

// Run dispatches args and returns the exit code.
func (app *App) Run(ctx context.Context, args []string) int {
	d, err := cmdutil.NewDispatcher(NewRootCommand(app),
		cmdutil.WithOutput(app.Stdout, app.Stderr),
		cmdutil.WithPreRun(app.setup),
	)
	if err != nil {
		fmt.Fprintf(app.Stderr, "Error: %v\n", err)
		return cmdutil.ExitCodeSDK
	}

	return d.Dispatch(ctx, args)
}

func (app *App) configFS() fs.FS {
	if app.Config == nil {
		return defaultConfig
	}
	return app.Config
}

func (app *App) lookupEnv() func(string) (string, bool) {
	if app.LookupEnv == nil {
		return os.LookupEnv
	}
	return app.LookupEnv
}

func (app *App) executor() executil.Executor {
	if app.Executor == nil {
		return executil.ProcessExecutor{}
	}
	return app.Executor
}

// setup runs before every handler. It loads the configuration, creates the
// logger and fills the dependency container.
func (app *App) setup(ctx context.Context, inv *cmdutil.Invocation) (context.Context, error) {
	flags := inv.Flags()

	verbose, _ := flags.GetBool(flagVerbose)
	noColor, _ := flags.GetBool(flagNoColor)
	logEnv, _ := flags.GetString(flagLogEnv)
	gelfAddress, _ := flags.GetString(flagGELFAddress)

	cfg, err := confutil.Load(app.configFS(), confutil.WithLookupEnv(app.lookupEnv()))
	if err != nil {
		return nil, err
	}

	logOptions := []logutil.Option{
		logutil.WithWriter(app.Stderr),
		logutil.WithNoColor(noColor || !colorful(app.Stderr)),
	}
	if verbose {
		logOptions = append(logOptions, logutil.WithLevel(slog.LevelDebug))
	}
	if logEnv != "" {
		env, err := logutil.ParseEnv(logEnv)
		if err != nil {
			return nil, err
		}
		logOptions = append(logOptions, logutil.WithEnv(env))
	}
	if gelfAddress != "" {
		logOptions = append(logOptions, logutil.WithGELFAddress(gelfAddress))
	}

	log, err := logutil.New(cfg, appName, logOptions...)
	if err != nil {
		return nil, err
	}

	runner := executil.NewRunner(
		executil.WithOutput(app.Stdout, app.Stderr),
		executil.WithInput(app.Stdin),
		executil.WithDir(app.Dir),
		executil.WithExecutor(app.executor()),
		executil.WithNoColor(noColor),
	)

	c := dig.New()
	err = errors.Join(
		digutil.ProvideValue(c, cfg),
		digutil.ProvideValue(c, log),
		digutil.ProvideValue(c, runner),
		c.Provide(newGit),
	)
	if err != nil {
		return nil, err
	}
	app.container = c

	ctx = logutil.WithLogger(ctx, log)
	ctx = logutil.Start(ctx, inv.CommandPath())
	if app.HandleSignals {
		ctx = cmdutil.SignalRootContext(ctx)
	}

	logutil.Get(ctx).At("main.setup").Debug(fmt.Sprintf("%s started", appName),
		"version", cmdutil.Version,
		"commit", cmdutil.CommitHash,
		"config", cfg.Source().String(),
	)

	return ctx, nil
}

func newGit(cfg *confutil.Config, runner *executil.Runner) *gitutil.Git {
	g := gitutil.New(runner)
	g.UpstreamURL = cfg.GetString("sds.upstream_url", gitutil.DefaultUpstreamURL)
	return g
}

// colorful reports whether w is a terminal that supports colors.
func colorful(w io.Writer) bool {
	return termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
}
