package watcher

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	w := New(Config{Dir: "/tmp/app"})
	assert.Equal(t, DefaultDebounce, w.config.Debounce)
	assert.Contains(t, w.config.Ignore, "node_modules")
	assert.Contains(t, w.config.Ignore, ".git")
}

func TestNew_KeepsCustomIgnores(t *testing.T) {
	t.Parallel()

	w := New(Config{Dir: "/tmp/app", Ignore: []string{"*.log"}})
	assert.Contains(t, w.config.Ignore, "*.log")
	assert.Contains(t, w.config.Ignore, "node_modules")
}

func TestMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, match("node_modules", "node_modules"))
	assert.False(t, match("node_modules", "node_modules2"))
	assert.True(t, match("*.tmp", "build.tmp"))
	assert.False(t, match("*.tmp", "build.tmpx"))
	assert.True(t, match("*~", "notes.txt~"))
}

func TestRelevant_IgnoredNames(t *testing.T) {
	t.Parallel()

	w := New(Config{Dir: "/tmp/app"})

	assert.False(t, w.relevant(fsnotify.Event{
		Name: "/tmp/app/server.js.swp",
		Op:   fsnotify.Write,
	}))
	assert.True(t, w.relevant(fsnotify.Event{
		Name: "/tmp/app/server.js",
		Op:   fsnotify.Write,
	}))
}

func TestRelevant_OpFilter(t *testing.T) {
	t.Parallel()

	w := New(Config{Dir: "/tmp/app"})

	assert.False(t, w.relevant(fsnotify.Event{
		Name: "/tmp/app/server.js",
		Op:   fsnotify.Chmod,
	}))
	assert.True(t, w.relevant(fsnotify.Event{
		Name: "/tmp/app/server.js",
		Op:   fsnotify.Create,
	}))
	assert.True(t, w.relevant(fsnotify.Event{
		Name: "/tmp/app/server.js",
		Op:   fsnotify.Remove,
	}))
}

func TestRelevant_AllowList(t *testing.T) {
	t.Parallel()

	w := New(Config{Dir: "/tmp/app", Allow: []string{"*.js", "*.mjs"}})

	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/app/server.js", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/app/server.mjs", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/app/readme.md", Op: fsnotify.Write}))
}
