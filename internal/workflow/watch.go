package workflow

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"factorizer/internal/logger"
)

const watchDebounce = 500 * time.Millisecond

// Watch re-invokes run every time the workflow file changes, until ctx is
// cancelled. The parent directory is watched because editors typically
// replace the file rather than write it in place. Failed re-runs are logged
// and watching continues.
func Watch(ctx context.Context, path string, run func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Infof("watching %s for changes", abs)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)
		case <-fire:
			logger.Infof("workflow file changed, re-running")
			if err := run(); err != nil {
				logger.Errorf("re-run failed: %v", err)
			}
		}
	}
}
