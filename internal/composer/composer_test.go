package composer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitebridge/vitebridge/pkg/config"
	"github.com/vitebridge/vitebridge/pkg/stackable"
)

// stubStackable serves a fixed metadata snapshot.
type stubStackable struct {
	meta stackable.Meta
}

func (s *stubStackable) Init(ctx context.Context) error { return nil }
func (s *stubStackable) Start(ctx context.Context, opts stackable.StartOptions) (string, error) {
	return "", nil
}
func (s *stubStackable) Stop(ctx context.Context) error { return nil }
func (s *stubStackable) Meta() stackable.Meta           { return s.meta }
func (s *stubStackable) WatchConfig() config.WatchConfig {
	return config.WatchConfig{Enabled: false}
}

func newTestComposer(meta stackable.Meta) *Server {
	return NewServer(DefaultPort, &stubStackable{meta: meta})
}

func TestComposer_Health(t *testing.T) {
	t.Parallel()

	srv := newTestComposer(stackable.Meta{})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestComposer_NotStarted(t *testing.T) {
	t.Parallel()

	srv := newTestComposer(stackable.Meta{})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shop/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestComposer_ProxiesFullPath(t *testing.T) {
	t.Parallel()

	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer backend.Close()

	srv := newTestComposer(stackable.Meta{
		Composer: &stackable.ComposerMeta{
			TCP:               true,
			URL:               backend.URL,
			Prefix:            "shop",
			WantsAbsoluteURLs: true,
		},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shop/assets/app.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	// The application asked for absolute URLs, so the prefix stays on the
	// forwarded path.
	assert.Equal(t, "/shop/assets/app.js", gotPath)
}

func TestComposer_OutsidePrefix(t *testing.T) {
	t.Parallel()

	srv := newTestComposer(stackable.Meta{
		Composer: &stackable.ComposerMeta{
			TCP:    true,
			URL:    "http://127.0.0.1:5173",
			Prefix: "shop",
		},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComposer_EmptyPrefixProxiesRoot(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	srv := newTestComposer(stackable.Meta{
		Composer: &stackable.ComposerMeta{TCP: true, URL: backend.URL},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestComposer_UpstreamDown(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	srv := newTestComposer(stackable.Meta{
		Composer: &stackable.ComposerMeta{TCP: true, URL: backend.URL},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
