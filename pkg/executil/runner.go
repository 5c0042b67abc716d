package executil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/vm2r/sds/pkg/logutil"
)

const (
	DefaultWidth = 60
	minDots      = 3
)

type Marker int

const (
	MarkerDone Marker = iota
	MarkerError
	MarkerNotSet
	MarkerAlreadySet
	MarkerPassed
	MarkerFailed
)

func (m Marker) String() string {
	switch m {
	case MarkerDone:
		return "DONE"
	case MarkerError:
		return "ERROR"
	case MarkerNotSet:
		return "NOT SET"
	case MarkerAlreadySet:
		return "ALREADY SET"
	case MarkerPassed:
		return "PASSED"
	case MarkerFailed:
		return "FAILED"
	default:
		panic(fmt.Sprintf("unhandled marker %d", int(m)))
	}
}

func (m Marker) tone() Tone {
	switch m {
	case MarkerDone, MarkerAlreadySet, MarkerPassed:
		return ToneSuccess
	case MarkerNotSet:
		return ToneWarning
	case MarkerError, MarkerFailed:
		return ToneError
	default:
		panic(fmt.Sprintf("unhandled marker %d", int(m)))
	}
}

type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
)

func (t Tone) color() lipgloss.Color {
	switch t {
	case ToneInfo:
		return lipgloss.Color("12")
	case ToneSuccess:
		return lipgloss.Color("10")
	case ToneWarning:
		return lipgloss.Color("11")
	case ToneError:
		return lipgloss.Color("9")
	default:
		panic(fmt.Sprintf("unhandled tone %d", int(t)))
	}
}

// Runner executes external commands and renders their progress as aligned
// status lines:
//
//	  - git fetch upstream.................................... DONE
type Runner struct {
	stdout   io.Writer
	stderr   io.Writer
	stdin    io.Reader
	width    int
	dir      string
	env      []string
	noColor  bool
	executor Executor
}

type Option func(*Runner)

func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

func WithInput(stdin io.Reader) Option {
	return func(r *Runner) { r.stdin = stdin }
}

func WithWidth(width int) Option {
	return func(r *Runner) { r.width = width }
}

func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// WithEnv sets the complete environment of executed processes.
func WithEnv(env []string) Option {
	return func(r *Runner) { r.env = env }
}

func WithExecutor(e Executor) Option {
	return func(r *Runner) { r.executor = e }
}

// WithNoColor disables colored markers. Otherwise the color profile gets
// detected from the output writer.
func WithNoColor(noColor bool) Option {
	return func(r *Runner) { r.noColor = noColor }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		stdin:    os.Stdin,
		width:    DefaultWidth,
		executor: ProcessExecutor{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// With returns a copy of the runner with additional options applied.
func (r *Runner) With(opts ...Option) *Runner {
	c := *r
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (r *Runner) Stdout() io.Writer { return r.stdout }
func (r *Runner) Stderr() io.Writer { return r.stderr }
func (r *Runner) Stdin() io.Reader  { return r.stdin }

// Run prints the aligned label, executes args and finishes the line with a
// marker. It returns the trimmed stdout. On a non-zero exit code the stderr
// of the process gets written to the error stream and a *CommandError is
// returned. Callers must not continue their workflow after that.
func (r *Runner) Run(ctx context.Context, label string, args ...string) (string, error) {
	r.Aligned(label)

	result, err := r.execute(ctx, label, Command{Args: args})
	if err != nil {
		r.Mark(MarkerError)
		fmt.Fprintf(r.stderr, "\nError Details:\n%s\n", err.(*CommandError).Details())
		return "", err
	}

	r.Mark(MarkerDone)
	return strings.TrimSpace(result.Stdout), nil
}

// Query executes args without printing anything.
func (r *Runner) Query(ctx context.Context, args ...string) (StepResult, error) {
	return r.execute(ctx, "", Command{Args: args})
}

// Interactive attaches the process to the streams of the runner, so the
// user can work with it directly.
func (r *Runner) Interactive(ctx context.Context, args ...string) error {
	_, err := r.execute(ctx, "", Command{
		Args:   args,
		Stdin:  r.stdin,
		Stdout: r.stdout,
		Stderr: r.stderr,
	})
	return err
}

func (r *Runner) execute(ctx context.Context, label string, c Command) (StepResult, error) {
	c.Dir = r.dir
	c.Env = r.env

	result, err := r.executor.Execute(ctx, c)
	result.Label = label
	result.Args = c.Args

	logutil.Get(ctx).At("executil.Runner").Debug("step finished",
		"label", label,
		"command", result.Commandline(),
		"exit_code", result.ExitCode,
	)

	if err != nil {
		return result, &CommandError{Result: result, Err: err}
	}
	if result.ExitCode != 0 {
		return result, &CommandError{Result: result}
	}

	return result, nil
}

// Aligned prints label followed by dots up to the configured width, without
// a line break.
func (r *Runner) Aligned(label string) {
	dots := max(minDots, r.width-runewidth.StringWidth(label))
	fmt.Fprintf(r.stdout, "%s%s ", label, strings.Repeat(".", dots))
}

// Mark finishes an aligned line.
func (r *Runner) Mark(m Marker) {
	fmt.Fprintln(r.stdout, r.paint(m.tone(), m.String()))
}

// Section prints a blank line and a highlighted title.
func (r *Runner) Section(title string) {
	r.Notice(ToneInfo, title)
}

// Notice prints a blank line and text in the color of the tone.
func (r *Runner) Notice(tone Tone, text string) {
	fmt.Fprintf(r.stdout, "\n%s\n", r.paint(tone, text))
}

func (r *Runner) Println(a ...any) {
	fmt.Fprintln(r.stdout, a...)
}

func (r *Runner) paint(tone Tone, text string) string {
	renderer := lipgloss.NewRenderer(r.stdout)
	if r.noColor {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return renderer.NewStyle().Foreground(tone.color()).Render(text)
}
