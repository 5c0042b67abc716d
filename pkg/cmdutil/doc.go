// Package cmdutil contains helper utilities for setting up a CLI with Go,
// providing basic application behavior and for reducing boilerplate code.
//
// # Graceful Application Exits
//
// In many command line applications it is desired to exit the process
// immediately, if it is clear that the application cannot recover. Important
// note: This is designed for actual applications (ie not libraries), because
// only the application itself should decide when to exit. Libraries should
// alway return errors.
//
// There are three ways to handle fatal errors in Go. With os.Exit() the
// process will terminate immediately, but it will not call any deferrers which
// means that possible cleanup task do not get called. The next way is to call
// panic, which respects the defer statements, but unfortunately it is not
// possible to define an exit code and the user gets confused with a stack
// trace. Finally, the function could just return an error indicating that
// things failed, but this introduces a lot of code, conditionals and appears
// unnecessary, when it is already clear that the application cannot recover.
//
// The package cmdutil provides an alternative, which panics with a known
// struct and catches it right before the application exit:
//
//	func main() {
//	  defer cmdutil.HandleExit()
//	  cmdutil.Exit(dispatcher.Dispatch(ctx, os.Args[1:]))
//	}
//
// # Command Tree
//
// Commands are assembled into a tree of Nodes. Every subsystem registers
// itself below its parent and attaches its own subcommands:
//
//	func Register(parent *cmdutil.Node) *cmdutil.Node {
//	    return parent.Add(cmdutil.New("service", "Service operations",
//	        cmdutil.WithSubCommand(cmdutil.New("build", "Build a service",
//	            cmdutil.WithParams(
//	                cmdutil.Required("service_name", "Name of the service to build"),
//	                cmdutil.OptionalDefault("branch_name", "main", "Branch to build from"),
//	            ),
//	            cmdutil.WithRun(runBuild),
//	        )),
//	    ))
//	}
//
// A node either has subcommands or a handler. The order of registration is
// the order of the help output.
//
// # Dispatching
//
// The Dispatcher walks the tree along the process arguments (see Resolve).
// If the walk stops at a node without handler, the help of that node gets
// printed instead of the root help. Handler errors are printed as
// "Error: <message>" and result in ExitCodeGeneralError, malformed
// invocations in ExitCodeUsage.
//
// # Version Command
//
// NewVersionCommand prints the compiled version of the application and other
// build parameters. These values are read from the Go build info and can be
// overwritten by the build system via ldflags.
//
//	go build -ldflags "\
//	  -X 'github.com/vm2r/sds/pkg/cmdutil.Name=sds' \
//	  -X 'github.com/vm2r/sds/pkg/cmdutil.Version=${BUILD_VERSION}' \
//	  -X 'github.com/vm2r/sds/pkg/cmdutil.BuildDate=${BUILD_DATE}'"
package cmdutil
