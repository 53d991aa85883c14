//go:build !windows

package proc

import (
	"os"
	"syscall"
)

// terminate requests graceful shutdown with SIGTERM.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
