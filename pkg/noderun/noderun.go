// Package noderun runs an application's own server entrypoint as a
// generic server process. It is the runtime behind SSR mode: instead of
// the dev-server engine's listener, the application process binds a port
// handed to it through the environment, together with the dev-tooling
// globals that let application code cooperate with the host conventions.
package noderun

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/internal/proc"
)

// Environment variables injected into the application's execution
// context before it runs. The application's dev-tooling integration is
// expected to expose these back through its own configuration.
const (
	// EnvAppRoot is the application root as a file:// URL. A URL rather
	// than a plain path keeps serialization platform-independent across
	// filesystem path conventions.
	EnvAppRoot = "VITEBRIDGE_APP_ROOT"

	// EnvBasePath is the normalized base path ("" or "/segment" form).
	EnvBasePath = "VITEBRIDGE_BASE_PATH"

	// EnvLogger is the JSON logger identity/level descriptor.
	EnvLogger = "VITEBRIDGE_LOGGER"

	// EnvSSR marks server-rendering mode.
	EnvSSR = "VITEBRIDGE_SSR"

	// EnvInstanceID is the unique id of this application instance.
	EnvInstanceID = "VITEBRIDGE_INSTANCE_ID"
)

// readyPollInterval is how often the runner probes the application's
// port while waiting for it to start listening.
const readyPollInterval = 50 * time.Millisecond

// LoggerIdentity is the logger descriptor injected into the application.
type LoggerIdentity struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Options configures an application run.
type Options struct {
	// Directory is the application root.
	Directory string

	// Entrypoint is the server script, relative to Directory.
	Entrypoint string

	// BasePath is the normalized base path injected into the
	// application and reported back as its resolved base.
	BasePath string

	// SSR forces server-rendering mode on in the application.
	SSR bool

	// Logger is the identity/level descriptor injected into the
	// application.
	Logger LoggerIdentity

	// Env holds additional environment entries in KEY=value form.
	Env []string

	// GracefulTimeout bounds Stop's graceful shutdown phase.
	GracefulTimeout time.Duration
}

// Runner starts and supervises one application process.
type Runner struct {
	opts       Options
	instanceID string
	handle     *proc.Handle
	url        string
}

// New creates a runner for the given options.
func New(opts Options) *Runner {
	return &Runner{
		opts:       opts,
		instanceID: uuid.NewString(),
	}
}

// InstanceID returns the unique id injected into the application.
func (r *Runner) InstanceID() string {
	return r.instanceID
}

// ResolvedBase returns the application's resolved base path. The
// application's exposed dev-tooling configuration mirrors the globals
// injected at start, so the runner reports the injected value.
func (r *Runner) ResolvedBase() string {
	return r.opts.BasePath
}

// Start launches the application process and waits until it accepts
// connections on the port handed to it, returning the public URL.
func (r *Runner) Start(ctx context.Context) (string, error) {
	port, err := freePort()
	if err != nil {
		return "", err
	}

	env, err := r.buildEnv(port)
	if err != nil {
		return "", err
	}

	cmd := exec.Command("node", r.opts.Entrypoint)
	cmd.Dir = r.opts.Directory
	cmd.Env = append(os.Environ(), env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("noderun: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("noderun: stderr pipe: %w", err)
	}

	handle, err := proc.Start(cmd)
	if err != nil {
		return "", fmt.Errorf("noderun: start application: %w", err)
	}
	r.handle = handle
	logger.Debug("application started", "pid", handle.Pid(), "entrypoint", r.opts.Entrypoint, "port", port)

	go forward(stdout, "app")
	go forward(stderr, "app stderr")

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
	if err := r.waitReady(ctx, addr); err != nil {
		// A failed start is fully unwound so a retry begins clean.
		_ = handle.Stop(context.WithoutCancel(ctx), r.opts.GracefulTimeout)
		return "", err
	}

	r.url = "http://" + addr
	return r.url, nil
}

// Stop terminates the application process.
func (r *Runner) Stop(ctx context.Context) error {
	if r.handle == nil {
		return fmt.Errorf("noderun: application not started")
	}
	return r.handle.Stop(ctx, r.opts.GracefulTimeout)
}

// buildEnv assembles the application environment: the port handshake
// plus the injected dev-tooling globals.
func (r *Runner) buildEnv(port int) ([]string, error) {
	root, err := appRootURL(r.opts.Directory)
	if err != nil {
		return nil, err
	}
	ident, err := json.Marshal(r.opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("noderun: marshal logger identity: %w", err)
	}

	env := []string{
		"HOST=127.0.0.1",
		fmt.Sprintf("PORT=%d", port),
		EnvAppRoot + "=" + root,
		EnvBasePath + "=" + r.opts.BasePath,
		EnvLogger + "=" + string(ident),
		fmt.Sprintf("%s=%t", EnvSSR, r.opts.SSR),
		EnvInstanceID + "=" + r.instanceID,
	}
	return append(env, r.opts.Env...), nil
}

// waitReady polls the application port until it accepts a connection.
// No timeout is applied at this layer: a hang in application startup
// propagates as an indefinitely pending start, cancellable through ctx.
func (r *Runner) waitReady(ctx context.Context, addr string) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", addr, readyPollInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case exitErr := <-r.handle.Done():
			if exitErr != nil {
				return fmt.Errorf("noderun: application exited before listening: %w", exitErr)
			}
			return fmt.Errorf("noderun: application exited before listening")
		case <-ticker.C:
		}
	}
}

// appRootURL converts the application directory to a file:// URL.
func appRootURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("noderun: resolve %s: %w", dir, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// freePort reserves an ephemeral loopback port for the application.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("noderun: reserve port: %w", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port, nil
}

// forward logs application output line by line.
func forward(rd io.Reader, tag string) {
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		logger.Info(tag, "line", scanner.Text())
	}
}
