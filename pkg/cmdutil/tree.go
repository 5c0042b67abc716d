package cmdutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Handler is the function bound to a runnable command.
type Handler func(ctx context.Context, inv *Invocation) error

type Arity int

const (
	ArityRequired Arity = iota
	ArityOptionalDefault
	ArityOptional
)

// Param is a positional parameter of a runnable command.
type Param struct {
	Name    string
	Help    string
	Default string
	Arity   Arity
}

func Required(name, help string) Param {
	return Param{Name: name, Help: help, Arity: ArityRequired}
}

// OptionalDefault declares a parameter that gets def bound, if the user
// omits it.
func OptionalDefault(name, def, help string) Param {
	return Param{Name: name, Help: help, Default: def, Arity: ArityOptionalDefault}
}

func Optional(name, help string) Param {
	return Param{Name: name, Help: help, Arity: ArityOptional}
}

func (p Param) usage() string {
	switch p.Arity {
	case ArityRequired:
		return "<" + p.Name + ">"
	case ArityOptionalDefault, ArityOptional:
		return "[" + p.Name + "]"
	default:
		panic(fmt.Sprintf("unhandled arity %d", int(p.Arity)))
	}
}

// Node is an element of the command tree. The tree gets assembled once at
// startup and is read-only afterwards.
type Node struct {
	name  string
	short string
	long  string

	parent   *Node
	children []*Node
	handler  Handler
	params   []Param

	flags           []func(*pflag.FlagSet)
	persistentFlags []func(*pflag.FlagSet)
}

type Option func(*Node)

// New creates a command node. The options are applied in the given order;
// the order of WithSubCommand options defines the order in the help output.
func New(name, short string, options ...Option) *Node {
	n := &Node{
		name:  name,
		short: short,
	}

	for _, o := range options {
		o(n)
	}

	return n
}

func WithLong(long string) Option {
	return func(n *Node) {
		n.long = long
	}
}

func WithRun(h Handler) Option {
	return func(n *Node) {
		n.handler = h
	}
}

func WithParams(params ...Param) Option {
	return func(n *Node) {
		n.params = append(n.params, params...)
	}
}

func WithSubCommand(sub *Node) Option {
	return func(n *Node) {
		n.Add(sub)
	}
}

// WithFlags registers local flags. The function gets called with a fresh
// flag set for every dispatch, so it must not capture flag values.
func WithFlags(fn func(*pflag.FlagSet)) Option {
	return func(n *Node) {
		n.flags = append(n.flags, fn)
	}
}

// WithPersistentFlags registers flags that are also available on every
// descendant.
func WithPersistentFlags(fn func(*pflag.FlagSet)) Option {
	return func(n *Node) {
		n.persistentFlags = append(n.persistentFlags, fn)
	}
}

// Add attaches child and returns it. Registering two children with the same
// name is a programming error and panics.
func (n *Node) Add(child *Node) *Node {
	if child.parent != nil {
		panic(fmt.Sprintf("command %q is already registered below %q",
			child.name, child.parent.CommandPath()))
	}

	if _, exists := n.Child(child.name); exists {
		panic(fmt.Sprintf("command %q is already registered below %q",
			child.name, n.CommandPath()))
	}

	child.parent = n
	n.children = append(n.children, child)
	return child
}

func (n *Node) Name() string      { return n.name }
func (n *Node) Short() string     { return n.short }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }
func (n *Node) Params() []Param   { return append([]Param(nil), n.params...) }

// Runnable reports whether a handler is bound.
func (n *Node) Runnable() bool {
	return n.handler != nil
}

func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Path returns the names from the root to n, including both.
func (n *Node) Path() []string {
	if n.parent == nil {
		return []string{n.name}
	}
	return append(n.parent.Path(), n.name)
}

func (n *Node) CommandPath() string {
	return strings.Join(n.Path(), " ")
}

// Validate checks the whole subtree.
func (n *Node) Validate() error {
	if len(n.children) == 0 && n.handler == nil {
		return errors.Errorf("command %q has neither subcommands nor a handler", n.CommandPath())
	}

	if len(n.params) > 0 && len(n.children) > 0 {
		return errors.Errorf("command %q has subcommands and positional parameters", n.CommandPath())
	}

	if len(n.params) > 0 && n.handler == nil {
		return errors.Errorf("command %q has positional parameters but no handler", n.CommandPath())
	}

	seen := map[string]bool{}
	optional := false
	for _, p := range n.params {
		if p.Name == "" {
			return errors.Errorf("command %q has a parameter without name", n.CommandPath())
		}
		if seen[p.Name] {
			return errors.Errorf("command %q declares parameter %q twice", n.CommandPath(), p.Name)
		}
		seen[p.Name] = true

		switch p.Arity {
		case ArityRequired:
			if optional {
				return errors.Errorf("command %q declares required parameter %q after an optional one",
					n.CommandPath(), p.Name)
			}
		case ArityOptionalDefault, ArityOptional:
			optional = true
		default:
			return errors.Errorf("command %q declares parameter %q with unknown arity %d",
				n.CommandPath(), p.Name, p.Arity)
		}
	}

	for _, c := range n.children {
		err := c.Validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// use returns the cobra style usage line of the node, eg
// "build <service_name> [branch_name]".
func (n *Node) use() string {
	parts := []string{n.name}
	for _, p := range n.params {
		parts = append(parts, p.usage())
	}
	return strings.Join(parts, " ")
}

// flagSet builds the flags that are effective on n: its local flags, its own
// persistent flags and the persistent flags of all ancestors.
func (n *Node) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(n.name, pflag.ContinueOnError)
	for _, def := range n.flags {
		def(fs)
	}
	for a := n; a != nil; a = a.parent {
		for _, def := range a.persistentFlags {
			def(fs)
		}
	}
	return fs
}
