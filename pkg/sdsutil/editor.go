package sdsutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/vm2r/sds/pkg/executil"
	"github.com/vm2r/sds/pkg/logutil"
)

const DefaultEditor = "vi"

var ErrNoTerminal = errors.New("editing the configuration requires an interactive terminal")

// ValidationError reports a failed run of the validation script. Its output
// was already shown to the user.
type ValidationError struct {
	Result executil.StepResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed with exit code %d", e.Result.ExitCode)
}

// Editor implements "config edit" and "config validate".
type Editor struct {
	Runner *executil.Runner
	Layout Layout

	// Command is the editor executable. It defaults to vi.
	Command string

	// IsTerminal reports whether the user can interact with the editor. It
	// defaults to checking stdin.
	IsTerminal func() bool

	// Environ returns the environment the validation script extends. It
	// defaults to os.Environ.
	Environ func() []string
}

func (e *Editor) command() string {
	if e.Command == "" {
		return DefaultEditor
	}
	return e.Command
}

func (e *Editor) isTerminal() bool {
	if e.IsTerminal == nil {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	return e.IsTerminal()
}

func (e *Editor) environ() []string {
	if e.Environ == nil {
		return os.Environ()
	}
	return e.Environ()
}

// Edit opens the configuration file in the editor and validates it
// afterwards. An editor that exits with an error cancels the edit without
// failing.
func (e *Editor) Edit(ctx context.Context) error {
	log := logutil.Get(ctx).At("sdsutil.Edit")
	r := e.Runner
	path := e.Layout.ConfigFile()

	r.Section("SDS Configuration File")
	r.Println(fmt.Sprintf("Path: %s\n", path))

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("configuration file not found at %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "check configuration file %s", path)
	}

	if !e.isTerminal() {
		return ErrNoTerminal
	}

	err = r.Interactive(ctx, e.command(), path)
	if err != nil {
		log.Debug("editor failed", "error", err)
		r.Notice(executil.ToneWarning, fmt.Sprintf("Edit cancelled or %s exited with error.", e.command()))
		return nil
	}

	return e.Validate(ctx)
}

// Validate runs the validation script of the repository and reports the
// result. On failure the output of the script is shown verbatim and a
// *ValidationError is returned.
func (e *Editor) Validate(ctx context.Context) error {
	r := e.Runner
	script := e.Layout.ValidationScript()

	r.Section("Validating configuration")
	r.Aligned("  - sds-load-config.sh")

	result, err := r.
		With(executil.WithEnv(e.Layout.ValidationEnv(e.environ()))).
		Query(ctx, "bash", script)
	if err == nil {
		r.Mark(executil.MarkerPassed)
		r.Notice(executil.ToneSuccess, "Configuration is valid.")
		return nil
	}

	var cerr *executil.CommandError
	if !errors.As(err, &cerr) {
		r.Mark(executil.MarkerError)
		return errors.Wrap(err, "run validation script")
	}

	r.Mark(executil.MarkerFailed)
	r.Notice(executil.ToneError, "Validation Error:")
	r.Println(result.Stdout)
	r.Println(cerr.Details())

	return &ValidationError{Result: result}
}
