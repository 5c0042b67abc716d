package cmdutil

import (
	"io"
	"maps"
	"strings"

	"github.com/spf13/pflag"
)

// Invocation holds the parsed process arguments for the selected command.
// It is created once per dispatch and not modified afterwards.
type Invocation struct {
	node   *Node
	path   []string
	values map[string]string
	args   []string
	flags  *pflag.FlagSet
	stdout io.Writer
	stderr io.Writer
}

// Path returns the subcommand tokens that selected the command, without the
// root name.
func (inv *Invocation) Path() []string {
	return append([]string(nil), inv.path...)
}

// CommandPath returns the full command, eg "sds service build".
func (inv *Invocation) CommandPath() string {
	return inv.node.CommandPath()
}

// Param returns the bound value of a positional parameter. Defaults are
// already applied. It returns an empty string for omitted optional
// parameters.
func (inv *Invocation) Param(name string) string {
	return inv.values[name]
}

func (inv *Invocation) LookupParam(name string) (string, bool) {
	v, ok := inv.values[name]
	return v, ok
}

func (inv *Invocation) Params() map[string]string {
	return maps.Clone(inv.values)
}

// Args returns the raw positional arguments.
func (inv *Invocation) Args() []string {
	return append([]string(nil), inv.args...)
}

// Flags returns the parsed flags, including persistent flags of all parent
// commands.
func (inv *Invocation) Flags() *pflag.FlagSet {
	return inv.flags
}

func (inv *Invocation) Stdout() io.Writer { return inv.stdout }
func (inv *Invocation) Stderr() io.Writer { return inv.stderr }

func (inv *Invocation) String() string {
	return strings.Join(append(inv.node.Path(), inv.args...), " ")
}
