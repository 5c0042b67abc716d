// Package sds is the home of the sds command line tool, which manages a
// development environment and the repository it lives in.
//
// # Layout
//
//	/
//	├── cmd/sds/            the binary: command tree, flags, dependency wiring
//	│   └── config.yaml     embedded defaults for logging and the workflows
//	├── pkg/cmdutil/        command tree, dispatching, exits, version info
//	├── pkg/confutil/       YAML configuration snapshots
//	├── pkg/logutil/        typed structured logging (console, JSON, Graylog)
//	├── pkg/executil/       process execution and the aligned progress output
//	├── pkg/gitutil/        merge workflows and repository inspection
//	├── pkg/sdsutil/        sds repository layout and the config commands
//	├── pkg/digutil/        helpers for the dig container
//	└── pkg/testutil/       golden file assertions
//
// # Commands
//
//	sds [-v] [--no-color] [--log-env local|gcp] [--gelf-address host:port] <command>
//
//	version                                          build information
//	status [--json]                                  repository status
//	repo merge upstream                              sync with the upstream repository
//	repo merge main                                  merge main into the current branch
//	service list                                     not implemented yet
//	service build <service_name> [branch_name]       not implemented yet
//	service deploy <service_name> <source_tag> <destination_env>
//	config edit                                      edit and validate sds.conf
//	config validate                                  validate sds.conf
//
// # Exit Codes
//
// A successful command and a help page exit with 0. Failing commands exit
// with 1 and usage errors with 2. See pkg/cmdutil for the complete list.
//
// # Build Information
//
// The version command prints the variables of pkg/cmdutil, which can be
// set with ldflags:
//
//	go build -ldflags "-X github.com/vm2r/sds/pkg/cmdutil.Version=v1.0.0" ./cmd/sds
package sds
