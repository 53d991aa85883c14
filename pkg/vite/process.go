package vite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/internal/proc"
)

// localURLPattern matches the engine's startup banner line announcing the
// bound local address, e.g. "  ➜  Local:   http://127.0.0.1:5173/app/".
// Parsing the banner instead of poking engine internals keeps URL capture
// engine-version-agnostic.
var localURLPattern = regexp.MustCompile(`(?i)local:\s+(https?://\S+)`)

// processEngine drives the installed engine binary as a child process.
type processEngine struct {
	opts   ServerOptions
	bin    string
	handle *proc.Handle

	mu           sync.Mutex
	resolvedBase string
	announced    bool
}

// NewEngine is the default engine factory. It locates the engine binary
// installed under the application root and prepares it for Listen.
func NewEngine(opts ServerOptions) (Engine, error) {
	bin, err := findBinary(opts.Root)
	if err != nil {
		return nil, err
	}
	base := opts.Base
	if base == "" {
		base = "/"
	}
	return &processEngine{
		opts:         opts,
		bin:          bin,
		resolvedBase: base,
	}, nil
}

// findBinary walks up from root looking for the engine's installed
// executable, mirroring node module resolution.
func findBinary(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("vite: resolve %s: %w", root, err)
	}
	for {
		bin := filepath.Join(abs, "node_modules", ".bin", PackageName)
		if _, err := os.Stat(bin); err == nil {
			return bin, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w under %s", ErrNotInstalled, root)
		}
		abs = parent
	}
}

// Listen starts the engine's listener. The bound address is delivered to
// the armed OnListen hook once the engine announces it; a hang in engine
// startup is propagated to the caller as an indefinitely pending start.
func (e *processEngine) Listen(ctx context.Context) error {
	cmd := exec.Command(e.bin, e.args()...)
	cmd.Dir = e.opts.Root
	cmd.Env = append(os.Environ(), e.env()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("vite: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("vite: stderr pipe: %w", err)
	}

	handle, err := proc.Start(cmd)
	if err != nil {
		return fmt.Errorf("vite: start engine: %w", err)
	}
	e.handle = handle
	logger.Debug("engine started", "pid", handle.Pid(), "root", e.opts.Root)

	go e.scanOutput(stdout)
	go drain(stderr, "vite stderr")
	go func() {
		if err := <-handle.Done(); err != nil {
			logger.Error("engine exited", "error", err)
		}
	}()
	return nil
}

// Close shuts the engine process down. Calling Close twice after a
// successful close is undefined; the host stops a running instance once.
func (e *processEngine) Close(ctx context.Context) error {
	if e.handle == nil {
		return fmt.Errorf("vite: engine not started")
	}
	return e.handle.Stop(ctx, proc.DefaultGracefulTimeout)
}

// ResolvedBase returns the base path from the engine's live
// configuration: the explicit override when one was passed, otherwise
// the base observed in the engine's startup banner.
func (e *processEngine) ResolvedBase() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolvedBase
}

// args builds the engine CLI arguments from the server options.
func (e *processEngine) args() []string {
	args := []string{"dev", "--mode", "development"}
	if e.opts.Host != "" {
		args = append(args, "--host", e.opts.Host)
	}
	if e.opts.Port > 0 {
		args = append(args, "--port", strconv.Itoa(e.opts.Port))
	}
	if e.opts.StrictPort {
		args = append(args, "--strictPort")
	}
	if !e.opts.ClearScreen {
		args = append(args, "--clearScreen=false")
	}
	if e.opts.CORS {
		args = append(args, "--cors")
	}
	if e.opts.Base != "" {
		// The engine expects its base to carry a trailing slash.
		args = append(args, "--base", e.opts.Base+"/")
	}
	if e.opts.ConfigFile != "" {
		args = append(args, "--config", e.opts.ConfigFile)
	}
	return args
}

// env carries the toggles the engine CLI has no flags for. The
// vitebridge engine plugin on the npm side reads these when the
// application's engine config loads.
func (e *processEngine) env() []string {
	env := []string{
		fmt.Sprintf("VITEBRIDGE_HMR=%t", e.opts.HMR),
		fmt.Sprintf("VITEBRIDGE_OPTIMIZE_DEPS=%t", e.opts.OptimizeDeps),
	}
	if e.opts.Origin != "" {
		env = append(env, "VITEBRIDGE_ORIGIN="+e.opts.Origin)
	}
	return env
}

// scanOutput forwards engine output to the logger and resolves the
// listener hook when the startup banner announces the bound address.
func (e *processEngine) scanOutput(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("vite", "line", line)
		if e.announcedAddr() {
			continue
		}
		m := localURLPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		addr, base, err := parseLocalURL(m[1])
		if err != nil {
			logger.Warn("unparseable engine address", "url", m[1], "error", err)
			continue
		}
		e.mu.Lock()
		e.announced = true
		if e.opts.Base == "" && base != "" {
			e.resolvedBase = base
		}
		e.mu.Unlock()
		if e.opts.OnListen != nil {
			e.opts.OnListen(addr)
		}
	}
}

func (e *processEngine) announcedAddr() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.announced
}

// parseLocalURL extracts the bound TCP address and base path from the
// engine's announced local URL.
func parseLocalURL(raw string) (net.Addr, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", err
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, "", err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// The engine may announce a hostname; keep the loopback address
		// the options asked for.
		ip = net.ParseIP("127.0.0.1")
	}
	return &net.TCPAddr{IP: ip, Port: p}, u.Path, nil
}

// drain logs a process output stream line by line.
func drain(r io.Reader, tag string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.Debug(tag, "line", scanner.Text())
	}
}
