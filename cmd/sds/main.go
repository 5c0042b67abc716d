package main

import (
	"context"
	"os"

	"github.com/vm2r/sds/pkg/cmdutil"
)

func main() {
	defer cmdutil.HandleExit()

	app := &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,

		HandleSignals: true,
	}

	cmdutil.Exit(app.Run(context.Background(), os.Args[1:]))
}
