package cmdutil

import (
	"strings"

	"github.com/spf13/pflag"
)

// Match is the result of walking the command tree along the process
// arguments.
type Match struct {
	// Node is the deepest node reached.
	Node *Node

	// Path contains the tokens that selected a subcommand.
	Path []string

	// Rest contains all other tokens in their original order. Flags and
	// their values are included, so they can be parsed for Node.
	Rest []string
}

// Resolve descends from root as long as the next positional token is the
// name of a child. Flags are skipped, together with their value if they
// take one. The first positional token that does not select a child stops
// the descent, as does "--".
func Resolve(root *Node, args []string) Match {
	m := Match{Node: root}
	descending := true
	flags := root.flagSet()

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			m.Rest = append(m.Rest, args[i:]...)
			return m

		case len(arg) > 1 && arg[0] == '-':
			m.Rest = append(m.Rest, arg)
			if takesValue(flags, arg) && i+1 < len(args) {
				i++
				m.Rest = append(m.Rest, args[i])
			}

		case descending:
			child, ok := m.Node.Child(arg)
			if !ok {
				descending = false
				m.Rest = append(m.Rest, arg)
				continue
			}

			m.Node = child
			m.Path = append(m.Path, arg)
			flags = child.flagSet()

		default:
			m.Rest = append(m.Rest, arg)
		}
	}

	return m
}

// takesValue reports whether the flag token arg consumes the following
// token as its value. Unknown flags never do; pflag reports them later.
func takesValue(fs *pflag.FlagSet, arg string) bool {
	if strings.HasPrefix(arg, "--") {
		name := arg[2:]
		if strings.Contains(name, "=") {
			return false
		}

		f := fs.Lookup(name)
		return f != nil && f.NoOptDefVal == ""
	}

	shorthands := arg[1:]
	for i := 0; i < len(shorthands); i++ {
		f := fs.ShorthandLookup(shorthands[i : i+1])
		if f == nil {
			return false
		}

		if f.NoOptDefVal == "" {
			// The value is either the remainder of this token or the next one.
			return i == len(shorthands)-1
		}
	}

	return false
}
