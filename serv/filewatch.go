package serv

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kardianos/osext"
	"github.com/pkg/errors"
)

// startConfigWatcher re-executes the process when a config file in the
// directory the config was loaded from changes and the new config is
// valid. Setup failures are logged and leave the server running. It
// returns when ctx is done.
func startConfigWatcher(ctx context.Context, s *MusicService) error {
	watcher, dir, err := newConfigWatcher(s.conf)
	if err != nil {
		s.log.Warnf("config watcher disabled: %s", err)
		return nil
	}
	defer watcher.Close() // nolint:errcheck

	binary, err := osext.Executable()
	if err != nil {
		s.log.Warnf("config watcher disabled: %s", err)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watcher.Errors:
			s.log.Infof("reload error: %v", err)

		case event := <-watcher.Events:
			if !isConfigChange(event) {
				continue
			}

			// Check if new config is valid
			conf, err := ReadInConfig(path.Join(dir, GetConfigName()))
			if err != nil {
				s.log.Error(err)
				continue
			}

			if err := conf.validate(); err != nil {
				s.log.Error(err)
				continue
			}

			// Wait for writes to finish.
			s.log.Infof("reloading, config file changed: %s", event.Name)
			time.Sleep(500 * time.Millisecond)

			if err := syscall.Exec(binary, os.Args, os.Environ()); err != nil {
				s.log.Error(errors.Wrap(err, "cannot restart"))
			}
		}
	}
}

// newConfigWatcher watches the directory holding the config file in use,
// falling back to the configured config path when no file was read.
func newConfigWatcher(c *Config) (*fsnotify.Watcher, string, error) {
	dir, err := configDir(c)
	if err != nil {
		return nil, "", err
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return nil, "", errors.Wrap(err, "os.Stat")
	}
	if !fi.IsDir() {
		return nil, "", fmt.Errorf("not a directory: %q; can only watch directories", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, "", fmt.Errorf("cannot setup watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close() // nolint:errcheck
		return nil, "", fmt.Errorf("cannot add %q to watcher: %w", dir, err)
	}
	return watcher, dir, nil
}

func configDir(c *Config) (string, error) {
	if c.vi != nil {
		if f := c.vi.ConfigFileUsed(); f != "" {
			return filepath.Abs(filepath.Dir(f))
		}
	}

	cpath := c.ConfigPath
	if cpath == "" || cpath == "./" || cpath == "." {
		cpath = "./config"
	}

	dir, err := filepath.Abs(cpath)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path to %q: %w", cpath, err)
	}
	return dir, nil
}

func isConfigChange(event fsnotify.Event) bool {
	switch path.Ext(event.Name) {
	case ".json", ".toml", ".yaml", ".yml":
	default:
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
}
