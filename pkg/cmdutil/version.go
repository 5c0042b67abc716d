package cmdutil

import (
	"context"
	"fmt"
	"runtime/debug"
)

// The Build* variables are used by NewVersionCommand. They should be
// overwritten on build time by using ldflags.
var (
	Name       = "unknown"
	Version    = "unknown"
	GoModule   = "unknown"
	GoPackage  = "unknown"
	GoVersion  = "unknown"
	BuildDate  = "unknown"
	CommitDate = "unknown"
	CommitHash = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if GoModule == "unknown" {
		GoModule = info.Main.Path
	}
	if GoPackage == "unknown" && info.Path != "" {
		GoPackage = info.Path
	}
	if GoVersion == "unknown" {
		GoVersion = info.GoVersion
	}
	if Version == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if CommitHash == "unknown" {
				CommitHash = setting.Value
			}
		case "vcs.time":
			if CommitDate == "unknown" {
				CommitDate = setting.Value
			}
		}
	}
}

// NewVersionCommand creates a command, which prints the version and other
// build parameters (see Build* variables).
func NewVersionCommand() *Node {
	return New("version", "Shows the version of the environment",
		WithRun(func(ctx context.Context, inv *Invocation) error {
			w := inv.Stdout()
			fmt.Fprintf(w, "Name:       %s\n", Name)
			fmt.Fprintf(w, "Version:    %s\n", Version)
			fmt.Fprintf(w, "GoModule:   %s\n", GoModule)
			fmt.Fprintf(w, "GoPackage:  %s\n", GoPackage)
			fmt.Fprintf(w, "GoVersion:  %s\n", GoVersion)
			fmt.Fprintf(w, "BuildDate:  %s\n", BuildDate)
			fmt.Fprintf(w, "CommitDate: %s\n", CommitDate)
			fmt.Fprintf(w, "CommitHash: %s\n", CommitHash)
			return nil
		}),
	)
}

func WithVersionCommand() Option {
	return func(n *Node) {
		n.Add(NewVersionCommand())
	}
}
