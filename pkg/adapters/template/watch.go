package template

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch implements ports.Watchable. The returned channel receives one signal
// per settled burst of template file changes and is closed when ctx ends.
// The cache is dropped before each signal.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	if l.dir == "" {
		return nil, fmt.Errorf("loader has no directory to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	ch := make(chan struct{}, 1)
	go l.processEvents(ctx, watcher, ch)

	l.logger.Info("watching templates", "dir", l.dir)
	return ch, nil
}

func (l *Loader) processEvents(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	timer := time.NewTimer(l.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if _, supported := FormatOf(event.Name); !supported {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("template changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(l.debounce)

		case <-timer.C:
			l.Invalidate()
			select {
			case ch <- struct{}{}:
			default:
				// A reload is already pending.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("template watcher error", "err", err)
		}
	}
}
