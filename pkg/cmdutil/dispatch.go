package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vm2r/sds/pkg/logutil"
)

// PreRunFunc gets called before every handler. It may return a derived
// context, eg with a logger attached.
type PreRunFunc func(ctx context.Context, inv *Invocation) (context.Context, error)

type DispatcherOption func(*Dispatcher)

func WithOutput(stdout, stderr io.Writer) DispatcherOption {
	return func(d *Dispatcher) {
		d.stdout = stdout
		d.stderr = stderr
	}
}

// WithIncompleteExitCode sets the exit code for invocations that stop at a
// command without handler. It defaults to ExitCodeOK.
func WithIncompleteExitCode(code int) DispatcherOption {
	return func(d *Dispatcher) {
		d.incompleteExitCode = code
	}
}

func WithPreRun(fn PreRunFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.preRuns = append(d.preRuns, fn)
	}
}

// Dispatcher maps process arguments to a handler of the command tree.
//
// The tree walk happens on the Node tree itself (see Resolve). Cobra is only
// used to parse the flags of the selected node and to render help and usage.
type Dispatcher struct {
	root               *Node
	stdout             io.Writer
	stderr             io.Writer
	incompleteExitCode int
	preRuns            []PreRunFunc
}

func NewDispatcher(root *Node, options ...DispatcherOption) (*Dispatcher, error) {
	err := root.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid command tree")
	}

	d := &Dispatcher{
		root:               root,
		stdout:             os.Stdout,
		stderr:             os.Stderr,
		incompleteExitCode: ExitCodeOK,
	}

	for _, o := range options {
		o(d)
	}

	return d, nil
}

// Dispatch runs the command selected by args and returns the exit code.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) int {
	m := Resolve(d.root, args)
	cmd := d.mirror(m.Node)

	err := cmd.ParseFlags(m.Rest)
	if errors.Is(err, pflag.ErrHelp) {
		return d.help(cmd)
	}
	if err != nil {
		return d.usageError(cmd, err)
	}

	if help, _ := cmd.Flags().GetBool("help"); help {
		return d.help(cmd)
	}

	positional := cmd.Flags().Args()

	if !m.Node.Runnable() {
		if len(positional) > 0 {
			return d.usageError(cmd, errors.Errorf("unknown command %q for %q",
				positional[0], m.Node.CommandPath()))
		}

		cmd.Help()
		return d.incompleteExitCode
	}

	values, err := bindParams(m.Node.params, positional)
	if err != nil {
		return d.usageError(cmd, err)
	}

	inv := &Invocation{
		node:   m.Node,
		path:   append([]string(nil), m.Path...),
		values: values,
		args:   positional,
		flags:  cmd.Flags(),
		stdout: d.stdout,
		stderr: d.stderr,
	}

	for _, preRun := range d.preRuns {
		next, err := preRun(ctx, inv)
		if err != nil {
			return d.handlerError(ctx, err)
		}
		ctx = next
	}

	logutil.Get(ctx).At("cmdutil.Dispatch").Debug("running command",
		"command", inv.CommandPath(),
		"params", inv.Params(),
	)

	err = m.Node.handler(ctx, inv)
	if err != nil {
		return d.handlerError(ctx, err)
	}

	return ExitCodeOK
}

func (d *Dispatcher) help(cmd *cobra.Command) int {
	cmd.Help()
	return ExitCodeOK
}

func (d *Dispatcher) usageError(cmd *cobra.Command, err error) int {
	fmt.Fprintf(d.stderr, "Error: %v\n", err)
	cmd.Usage()
	return ExitCodeUsage
}

func (d *Dispatcher) handlerError(ctx context.Context, err error) int {
	logutil.Get(ctx).At("cmdutil.Dispatch").Debug("command failed", "error", fmt.Sprintf("%+v", err))
	fmt.Fprintf(d.stderr, "Error: %v\n", err)
	return ExitCodeGeneralError
}

// mirror builds a fresh cobra tree for the whole command tree and returns
// the command that corresponds to target. A fresh tree per dispatch keeps
// flag values from leaking between dispatches.
func (d *Dispatcher) mirror(target *Node) *cobra.Command {
	cobra.EnableCommandSorting = false

	var found *cobra.Command

	var build func(n *Node) *cobra.Command
	build = func(n *Node) *cobra.Command {
		cmd := &cobra.Command{
			Use:   n.use(),
			Short: n.short,
			Long:  n.long,
		}

		// Cobra lists only commands with Run in the help output.
		if n.Runnable() {
			cmd.Run = func(*cobra.Command, []string) {}
		}

		for _, def := range n.flags {
			def(cmd.Flags())
		}
		for _, def := range n.persistentFlags {
			def(cmd.PersistentFlags())
		}

		for _, c := range n.children {
			cmd.AddCommand(build(c))
		}

		if n == target {
			found = cmd
		}

		return cmd
	}

	root := build(d.root)
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	for _, cmd := range walkCobra(root) {
		cmd.InitDefaultHelpFlag()
	}

	return found
}

func walkCobra(cmd *cobra.Command) []*cobra.Command {
	result := []*cobra.Command{cmd}
	for _, c := range cmd.Commands() {
		result = append(result, walkCobra(c)...)
	}
	return result
}

func bindParams(params []Param, positional []string) (map[string]string, error) {
	if len(positional) > len(params) {
		return nil, errors.Errorf("accepts at most %d arg(s), received %d: %s",
			len(params), len(positional), strings.Join(positional[len(params):], " "))
	}

	values := map[string]string{}
	for i, p := range params {
		if i < len(positional) {
			values[p.Name] = positional[i]
			continue
		}

		switch p.Arity {
		case ArityRequired:
			return nil, errors.Errorf("missing required argument %q", p.Name)
		case ArityOptionalDefault:
			values[p.Name] = p.Default
		case ArityOptional:
		default:
			panic(fmt.Sprintf("unhandled arity %d", int(p.Arity)))
		}
	}

	return values, nil
}
