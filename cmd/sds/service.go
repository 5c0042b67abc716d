package main

import (
	"context"
	"fmt"

	"github.com/vm2r/sds/pkg/cmdutil"
	"github.com/vm2r/sds/pkg/logutil"
)

const notImplemented = "Not implemented yet."

type buildRequest struct {
	Service string `logfield:"service_name"`
	Branch  string `logfield:"branch_name"`
}

type deployRequest struct {
	Service     string `logfield:"service_name"`
	SourceTag   string `logfield:"source_tag"`
	Destination string `logfield:"destination_env"`
}

func registerService(root *cmdutil.Node) *cmdutil.Node {
	service := root.Add(cmdutil.New("service", "Service operations"))

	service.Add(cmdutil.New("list", "List all services",
		cmdutil.WithRun(placeholder("service.list", func(*cmdutil.Invocation) any {
			return struct{}{}
		})),
	))

	service.Add(cmdutil.New("build", "Build a service",
		cmdutil.WithParams(
			cmdutil.Required("service_name", "Name of the service to build"),
			cmdutil.OptionalDefault("branch_name", "main", "Branch to build from (default: main)"),
		),
		cmdutil.WithRun(placeholder("service.build", func(inv *cmdutil.Invocation) any {
			return buildRequest{
				Service: inv.Param("service_name"),
				Branch:  inv.Param("branch_name"),
			}
		})),
	))

	service.Add(cmdutil.New("deploy", "Deploy a service",
		cmdutil.WithParams(
			cmdutil.Required("service_name", "Name of the service to deploy"),
			cmdutil.Required("source_tag", "Source tag/version to deploy"),
			cmdutil.Required("destination_env", "Destination environment (e.g., staging, production)"),
		),
		cmdutil.WithRun(placeholder("service.deploy", func(inv *cmdutil.Invocation) any {
			return deployRequest{
				Service:     inv.Param("service_name"),
				SourceTag:   inv.Param("source_tag"),
				Destination: inv.Param("destination_env"),
			}
		})),
	))

	return service
}

// placeholder accepts the arguments of a command that has no behavior yet
// and records them in the log.
func placeholder(at string, request func(*cmdutil.Invocation) any) cmdutil.Handler {
	return func(ctx context.Context, inv *cmdutil.Invocation) error {
		ctx = logutil.WithFields(ctx, logutil.FromStruct(request(inv)))
		logutil.Get(ctx).At(at).Info("command not implemented")

		fmt.Fprintln(inv.Stdout(), notImplemented)
		return nil
	}
}
