package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/appengine-ltd/wildmons/internal/parser"
)

type Invalidator interface {
	Invalidate(mapID string)
}

// Watcher drops cached documents when map files under a directory change.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	ext     string
	target  Invalidator
	log     *zap.Logger
	changed chan string
}

func NewWatcher(dir, ext string, target Invalidator, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		ext:     normalizeExt(ext),
		target:  target,
		log:     log,
		changed: make(chan string, 16),
	}, nil
}

// Changed reports map ids after their cache entry was dropped. Sends never
// block; a slow reader misses notifications, not invalidations.
func (w *Watcher) Changed() <-chan string { return w.changed }

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer close(w.changed)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("map watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(strings.ToLower(name), w.ext) {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	id := parser.MapID(name)
	w.target.Invalidate(id)
	w.log.Debug("map changed", zap.String("map", id), zap.String("op", ev.Op.String()))
	select {
	case w.changed <- id:
	default:
	}
}
