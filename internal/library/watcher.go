package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"musicplay/pkg/spec"
)

// Watch calls onChange after music files under the granted roots are
// created, removed or renamed. Bursts are collapsed with a debounce timer.
// It blocks until ctx is done.
func (ix *Index) Watch(ctx context.Context, onChange func()) error {
	return ix.watch(ctx, spec.RescanDebounce, onChange)
}

func (ix *Index) watch(ctx context.Context, debounceFor time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range ix.grantedRoots() {
		addTree(watcher, root)
	}

	debounce := time.NewTimer(debounceFor)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				addTree(watcher, event.Name)
			} else if !relevant(event.Name) {
				continue
			}
			debounce.Reset(debounceFor)

		case <-debounce.C:
			log.Debug().Msg("library changed, rescanning")
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("library watcher")

		case <-ctx.Done():
			return nil
		}
	}
}

// relevant filters events down to music files and .nomedia markers. Removed
// directories can no longer be stat'ed, so extension-less names pass too.
func relevant(name string) bool {
	base := filepath.Base(name)
	if base == spec.NoMediaMarker {
		return true
	}
	if isHidden(base) {
		return false
	}
	ext := filepath.Ext(base)
	return ext == "" || spec.IsMusicExt(ext)
}

func addTree(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cannot watch folder")
		}
		return nil
	})
}
