// Package proc provides child process supervision shared by the
// dev-server engine and the generic application runner.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultGracefulTimeout is the maximum time to wait for a child process
// to exit after graceful termination before force-killing it.
const DefaultGracefulTimeout = 10 * time.Second

// ErrKilled indicates the process was force-killed after the graceful
// shutdown timeout elapsed.
var ErrKilled = errors.New("proc: process killed after graceful shutdown timeout")

// Handle supervises a started child process.
type Handle struct {
	cmd  *exec.Cmd
	done chan error
}

// Start launches the prepared command and begins supervising it.
func Start(cmd *exec.Cmd) (*Handle, error) {
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("proc: start %s: %w", cmd.Path, err)
	}
	h := &Handle{
		cmd:  cmd,
		done: make(chan error, 1),
	}
	go func() {
		h.done <- cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// Done reports process exit. The channel yields the Wait error once and
// is then closed.
func (h *Handle) Done() <-chan error {
	return h.done
}

// Pid returns the process id.
func (h *Handle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Stop terminates the process: graceful signal first, then a hard kill
// once gracefulTimeout (or the context) expires.
func (h *Handle) Stop(ctx context.Context, gracefulTimeout time.Duration) error {
	if h.cmd.Process == nil {
		return nil
	}
	if gracefulTimeout <= 0 {
		gracefulTimeout = DefaultGracefulTimeout
	}

	// Already exited?
	select {
	case err, ok := <-h.done:
		if !ok {
			return nil
		}
		return ignoreExit(err)
	default:
	}

	// The process may have exited between the check above and this
	// signal; the hard-kill path below covers that race.
	_ = terminate(h.cmd.Process)

	timer := time.NewTimer(gracefulTimeout)
	defer timer.Stop()

	select {
	case err := <-h.done:
		return ignoreExit(err)
	case <-timer.C:
	case <-ctx.Done():
	}

	if err := h.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("proc: kill pid %d: %w", h.Pid(), err)
	}
	<-h.done
	return ErrKilled
}

// ignoreExit drops the exit-status error produced when a process ends in
// response to a termination signal.
func ignoreExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
