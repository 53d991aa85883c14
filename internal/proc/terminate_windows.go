//go:build windows

package proc

import "os"

// terminate has no graceful signal on Windows; the process is killed
// outright and Stop's follow-up kill becomes a no-op.
func terminate(p *os.Process) error {
	return p.Kill()
}
