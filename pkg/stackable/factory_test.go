package stackable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitebridge/vitebridge/pkg/config"
)

// ============================================================================
// Build Tests
// ============================================================================

func TestBuild_RequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := Build(BuildOptions{})
	require.Error(t, err)
}

func TestBuild_NilConfigSelectsDevServer(t *testing.T) {
	t.Parallel()

	stk, err := Build(BuildOptions{Directory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DevServer{}, stk)
}

func TestBuild_SSRShorthandSelectsSSR(t *testing.T) {
	t.Parallel()

	stk, err := Build(BuildOptions{
		Directory: t.TempDir(),
		Config: map[string]any{
			"vite": map[string]any{"ssr": true},
		},
	})
	require.NoError(t, err)

	ssr, ok := stk.(*SSR)
	require.True(t, ok)
	assert.Equal(t, config.DefaultSSREntrypoint, ssr.entrypoint)
}

func TestBuild_SSRFalseSelectsDevServer(t *testing.T) {
	t.Parallel()

	stk, err := Build(BuildOptions{
		Directory: t.TempDir(),
		Config: map[string]any{
			"vite": map[string]any{"ssr": false},
		},
	})
	require.NoError(t, err)
	assert.IsType(t, &DevServer{}, stk)
}

func TestBuild_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Build(BuildOptions{
		Directory: t.TempDir(),
		Config: map[string]any{
			"logging": map[string]any{"level": "TRACE"},
		},
	})
	require.Error(t, err)
}

// ============================================================================
// FromConfig Tests
// ============================================================================

func TestFromConfig_ModeSelection(t *testing.T) {
	t.Parallel()

	dev := FromConfig(t.TempDir(), config.Default())
	assert.IsType(t, &DevServer{}, dev)

	cfg := config.Default()
	cfg.Vite.SSR = &config.SSRConfig{Entrypoint: "server.js"}
	ssr := FromConfig(t.TempDir(), cfg)
	assert.IsType(t, &SSR{}, ssr)
}
