package serv

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsConfigChange(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "config/dev.yml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "config/prod.yaml", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "config/dev.json", Op: fsnotify.Write | fsnotify.Chmod}, true},
		{fsnotify.Event{Name: "config/dev.yml", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "config/dev.yml", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "config/dev.yml.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "config/notes.txt", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isConfigChange(tt.event), tt.event.String())
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.yml"), []byte("route_prefix: /tunes\n"), 0o600))

	c, err := ReadInConfig(filepath.Join(dir, "dev"))
	require.NoError(t, err)

	got, err := configDir(c)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	// nothing was read, the configured path is watched
	c = NewDefaultConfig()
	c.ConfigPath = "/srv/config"
	got, err = configDir(c)
	require.NoError(t, err)
	assert.Equal(t, "/srv/config", got)
}

func TestConfigWatcherMissingDir(t *testing.T) {
	c := NewDefaultConfig()
	c.ConfigPath = filepath.Join(t.TempDir(), "missing")

	core, logs := observer.New(zapcore.WarnLevel)
	s := &MusicService{conf: c, log: zap.New(core).Sugar()}

	done := make(chan error, 1)
	go func() { done <- startConfigWatcher(context.Background(), s) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not give up on a missing directory")
	}
	assert.Equal(t, 1, logs.FilterMessageSnippet("config watcher disabled").Len())
}

func TestServeWithBrokenConfigWatcher(t *testing.T) {
	s := newTestService(t, newTestFS(), func(c *Config) {
		c.WatchAndReload = true
		c.ConfigPath = filepath.Join(t.TempDir(), "missing")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	// give the watcher time to fail before the request
	time.Sleep(100 * time.Millisecond)

	res, err := http.Get("http://" + ln.Addr().String() + "/music/song1.mp3")
	require.NoError(t, err)
	res.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
