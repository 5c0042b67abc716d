package executil

import (
	"context"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/vm2r/sds/pkg/logutil"
)

// Run starts the specified command and waits for it to complete.
//
// The difference to Run from exec.CommandContext is that it sends an interrupt
// instead of a kill, which gives the process time for a graceful shutdown.
func Run(ctx context.Context, cmd *exec.Cmd) error {
	log := logutil.Get(ctx).At("executil.Run")

	commandline := strings.Join(cmd.Args, " ")
	log.Debug("running command",
		"command", commandline,
		"dir", cmd.Dir,
	)

	err := cmd.Start()
	if err != nil {
		return errors.Wrapf(err, "failed to start `%s`", commandline)
	}

	done := make(chan struct{}, 1)
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			log.Debug("sending interrupt signal", "command", commandline)
			cmd.Process.Signal(syscall.SIGINT)
		case <-done:
			// This mean wait() already exited and we can stop to wait for the
			// cancelation.
		}
	}()

	return errors.Wrapf(cmd.Wait(), "failed to run `%s`", commandline)
}
