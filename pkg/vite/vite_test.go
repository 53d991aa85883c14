package vite

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, root, version string) {
	t.Helper()
	pkgDir := filepath.Join(root, "node_modules", PackageName)
	require.NoError(t, os.MkdirAll(pkgDir, 0755))
	data := []byte(`{"name": "vite", "version": "` + version + `"}`)
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "package.json"), data, 0644))
}

// ============================================================================
// InstalledVersion Tests
// ============================================================================

func TestInstalledVersion(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "5.2.0")

	v, err := InstalledVersion(root)
	require.NoError(t, err)
	assert.Equal(t, "5.2.0", v)
}

func TestInstalledVersion_WalksUpToHoistedModules(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "5.1.3")

	nested := filepath.Join(root, "packages", "web")
	require.NoError(t, os.MkdirAll(nested, 0755))

	v, err := InstalledVersion(nested)
	require.NoError(t, err)
	assert.Equal(t, "5.1.3", v)
}

func TestInstalledVersion_NotInstalled(t *testing.T) {
	_, err := InstalledVersion(t.TempDir())
	require.ErrorIs(t, err, ErrNotInstalled)
}

func TestInstalledVersion_MissingVersionField(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "node_modules", PackageName)
	require.NoError(t, os.MkdirAll(pkgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "package.json"), []byte(`{"name": "vite"}`), 0644))

	_, err := InstalledVersion(root)
	require.Error(t, err)
}

// ============================================================================
// CLI Argument Tests
// ============================================================================

func TestProcessEngine_Args(t *testing.T) {
	t.Parallel()

	e := &processEngine{opts: ServerOptions{
		Host:       "127.0.0.1",
		Port:       5199,
		Base:       "/shop",
		CORS:       true,
		ConfigFile: "/app/vite.custom.ts",
	}}

	args := e.args()
	assert.Equal(t, []string{
		"dev", "--mode", "development",
		"--host", "127.0.0.1",
		"--port", "5199",
		"--clearScreen=false",
		"--cors",
		"--base", "/shop/",
		"--config", "/app/vite.custom.ts",
	}, args)
}

func TestProcessEngine_ArgsMinimal(t *testing.T) {
	t.Parallel()

	e := &processEngine{opts: ServerOptions{}}
	args := e.args()
	assert.Equal(t, []string{"dev", "--mode", "development", "--clearScreen=false"}, args)
}

func TestProcessEngine_Env(t *testing.T) {
	t.Parallel()

	e := &processEngine{opts: ServerOptions{HMR: true, Origin: DefaultOrigin}}
	env := e.env()
	assert.Contains(t, env, "VITEBRIDGE_HMR=true")
	assert.Contains(t, env, "VITEBRIDGE_OPTIMIZE_DEPS=false")
	assert.Contains(t, env, "VITEBRIDGE_ORIGIN="+DefaultOrigin)
}

// ============================================================================
// Banner Parsing Tests
// ============================================================================

func TestParseLocalURL(t *testing.T) {
	t.Parallel()

	addr, base, err := parseLocalURL("http://127.0.0.1:5173/shop/")
	require.NoError(t, err)

	tcp, ok := addr.(*net.TCPAddr)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", tcp.IP.String())
	assert.Equal(t, 5173, tcp.Port)
	assert.Equal(t, "/shop/", base)
}

func TestParseLocalURL_HostnameFallsBackToLoopback(t *testing.T) {
	t.Parallel()

	addr, base, err := parseLocalURL("http://localhost:5173/")
	require.NoError(t, err)

	tcp := addr.(*net.TCPAddr)
	assert.Equal(t, "127.0.0.1", tcp.IP.String())
	assert.Equal(t, 5173, tcp.Port)
	assert.Equal(t, "/", base)
}

func TestParseLocalURL_DefaultPorts(t *testing.T) {
	t.Parallel()

	addr, _, err := parseLocalURL("https://127.0.0.1/")
	require.NoError(t, err)
	assert.Equal(t, 443, addr.(*net.TCPAddr).Port)
}

func TestLocalURLPattern(t *testing.T) {
	t.Parallel()

	line := "  ➜  Local:   http://127.0.0.1:5173/app/"
	m := localURLPattern.FindStringSubmatch(line)
	require.NotNil(t, m)
	assert.Equal(t, "http://127.0.0.1:5173/app/", m[1])
}
