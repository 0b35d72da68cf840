// Package reload keeps a loaded project in step with its file on disk.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must be quiet before a reload.
const DefaultDebounce = 100 * time.Millisecond

// Locker serialises a tree swap against running scripts.
type Locker interface {
	Locked(fn func())
}

// Reloader replaces the tree of a project whenever its file changes.
type Reloader struct {
	path     string
	project  *res.Project
	locker   Locker
	logger   *slog.Logger
	debounce time.Duration

	// OnReload, if set, is called after each reload attempt with its
	// result. It runs on the goroutine that called Run.
	OnReload func(err error)
}

// New creates a reloader for project, which was loaded from path. Swaps
// happen inside locker.Locked.
func New(path string, project *res.Project, locker Locker, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reloader{
		path:     path,
		project:  project,
		locker:   locker,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// SetDebounce changes the quiet period before a reload.
func (r *Reloader) SetDebounce(d time.Duration) {
	r.debounce = d
}

// Reload reads the project file and swaps its tree into the project. On a
// read or parse error the project is left unchanged. The tree is only
// touched inside locker.Locked.
func (r *Reloader) Reload() error {
	next, err := res.LoadProjectFile(r.path)
	if err != nil {
		return err
	}
	var n int
	r.locker.Locked(func() {
		r.project.Replace(next)
		n = r.project.Len()
	})
	r.logger.Info("project reloaded",
		slog.String("project", r.project.Name),
		slog.Int("atoms", n))
	return nil
}

// Run watches the project file until ctx is done. The directory is watched
// rather than the file so that editors which replace the file on save are
// followed.
func (r *Reloader) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(r.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	r.logger.Debug("watching project file", slog.String("path", abs))

	timer := time.NewTimer(r.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(r.debounce)

		case <-timer.C:
			err := r.Reload()
			if err != nil {
				r.logger.Warn("project reload failed",
					slog.String("path", r.path),
					slog.String("error", err.Error()))
			}
			if r.OnReload != nil {
				r.OnReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
