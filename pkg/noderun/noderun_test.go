package noderun

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New(Options{
		Directory:  dir,
		Entrypoint: "server.js",
		BasePath:   "/shop",
		SSR:        true,
		Logger:     LoggerIdentity{Name: "vitebridge", Level: "DEBUG"},
		Env:        []string{"EXTRA=1"},
	})

	env, err := r.buildEnv(3010)
	require.NoError(t, err)

	assert.Contains(t, env, "HOST=127.0.0.1")
	assert.Contains(t, env, "PORT=3010")
	assert.Contains(t, env, EnvBasePath+"=/shop")
	assert.Contains(t, env, EnvSSR+"=true")
	assert.Contains(t, env, EnvLogger+`={"name":"vitebridge","level":"DEBUG"}`)
	assert.Contains(t, env, EnvInstanceID+"="+r.InstanceID())
	assert.Contains(t, env, "EXTRA=1")

	var root string
	for _, e := range env {
		if strings.HasPrefix(e, EnvAppRoot+"=") {
			root = strings.TrimPrefix(e, EnvAppRoot+"=")
		}
	}
	assert.True(t, strings.HasPrefix(root, "file://"), "app root must be a file URL, got %q", root)
}

func TestAppRootURL(t *testing.T) {
	t.Parallel()

	u, err := appRootURL("/srv/apps/shop")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/apps/shop", u)
}

func TestInstanceID_UniquePerRunner(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	b := New(Options{})
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}

func TestResolvedBase_ReportsInjectedValue(t *testing.T) {
	t.Parallel()

	r := New(Options{BasePath: "/shop"})
	assert.Equal(t, "/shop", r.ResolvedBase())
}

func TestStart_StopsProcessWhenAppNeverListens(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not installed")
	}

	dir := t.TempDir()
	entry := filepath.Join(dir, "server.js")
	require.NoError(t, os.WriteFile(entry, []byte("setTimeout(() => {}, 60000);\n"), 0644))

	r := New(Options{
		Directory:       dir,
		Entrypoint:      "server.js",
		GracefulTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := r.Start(ctx)
	require.Error(t, err)

	// The spawned process must be gone: the supervision channel is
	// drained and closed, and the pid no longer accepts signals.
	require.NotNil(t, r.handle)
	_, open := <-r.handle.Done()
	assert.False(t, open)

	p, err := os.FindProcess(r.handle.Pid())
	require.NoError(t, err)
	assert.Error(t, p.Signal(syscall.Signal(0)))
}

func TestStart_ErrorWhenAppExitsBeforeListening(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not installed")
	}

	dir := t.TempDir()
	entry := filepath.Join(dir, "server.js")
	require.NoError(t, os.WriteFile(entry, []byte("process.exit(3);\n"), 0644))

	r := New(Options{
		Directory:       dir,
		Entrypoint:      "server.js",
		GracefulTimeout: time.Second,
	})

	_, err := r.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before listening")
}

func TestStop_BeforeStart(t *testing.T) {
	t.Parallel()

	r := New(Options{})
	require.Error(t, r.Stop(context.Background()))
}

func TestFreePort(t *testing.T) {
	t.Parallel()

	p, err := freePort()
	require.NoError(t, err)
	assert.Greater(t, p, 0)
	assert.LessOrEqual(t, p, 65535)
}
