package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/logger"
)

// DefaultDebounce is the quiet period Watch waits for after the last change
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called after the cache has been invalidated with the paths
// that changed during the debounce window, sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Watch invalidates the cached collection whenever something under the
// skills root changes and then calls onChange, which may be nil. Bursts of
// events are collapsed into one call. It blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, debounce time.Duration, onChange ChangeFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := l.watchTree(ctx, watcher, l.skillsDir); err != nil {
		return err
	}

	logger.G(ctx).WithField("dir", l.skillsDir).Info("watching skills directory")

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || l.excluded(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := l.watchTree(ctx, watcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
				}
			}

			logger.G(ctx).WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("skill change detected")
			pending[event.Name] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("error watching skills directory")

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(pending)

			l.Invalidate()
			if onChange != nil {
				onChange(ctx, changed)
			}
		}
	}
}

// watchTree adds dir and its non-excluded subdirectories since fsnotify does
// not recurse. Symlinked skill directories are watched but not descended.
func (l *Loader) watchTree(ctx context.Context, watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !l.excluded(d.Name()) {
				return watcher.Add(path)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && l.excluded(d.Name()) {
			return filepath.SkipDir
		}

		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return watcher.Add(path)
	})
}
