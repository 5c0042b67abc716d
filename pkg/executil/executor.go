package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Command describes a single process execution. Streams that are nil get
// captured into the StepResult.
type Command struct {
	Args []string
	Dir  string

	// Env is the complete environment of the process. A nil Env inherits
	// the environment of sds.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StepResult is the outcome of one execution.
type StepResult struct {
	Label    string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (r StepResult) Commandline() string {
	return strings.Join(r.Args, " ")
}

// Executor runs processes. A non-zero exit code is reported in the result
// and is not an error. An error means the process could not run at all.
type Executor interface {
	Execute(ctx context.Context, c Command) (StepResult, error)
}

// ProcessExecutor runs real processes with Run.
type ProcessExecutor struct{}

func (ProcessExecutor) Execute(ctx context.Context, c Command) (StepResult, error) {
	result := StepResult{Args: c.Args}

	if len(c.Args) == 0 {
		return result, errors.New("empty command")
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.Command(c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	err := Run(ctx, cmd)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, err
}

// CommandError reports a process that exited with a non-zero code or could
// not be started.
type CommandError struct {
	Result StepResult
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("`%s` failed: %v", e.Result.Commandline(), e.Err)
	}
	return fmt.Sprintf("`%s` exited with code %d", e.Result.Commandline(), e.Result.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Details returns the text that explains the failure to the user.
func (e *CommandError) Details() string {
	if e.Err != nil && e.Result.Stderr == "" {
		return e.Err.Error()
	}
	return e.Result.Stderr
}
