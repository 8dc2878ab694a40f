// Package watcher registers applet bundles found in a directory and keeps
// registering them as files are added or rewritten.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"sensemaker/internal/codec"
	"sensemaker/internal/domain"
	"sensemaker/internal/registry"
)

// Registrar registers one bundle.
type Registrar interface {
	RegisterApplet(ctx context.Context, in domain.AppletConfigInput) (*registry.Registration, error)
}

// Watcher loads bundles from a directory
type Watcher struct {
	dir      string
	reg      Registrar
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher over dir
func New(dir string, reg Registrar, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		reg:      reg,
		debounce: 500 * time.Millisecond,
		logger:   logger.With("component", "watcher", "dir", dir),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// LoadFile parses and registers the bundle at path.
func LoadFile(ctx context.Context, reg Registrar, path string) (*registry.Registration, error) {
	c, ok := codec.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported bundle format", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	in, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, err := reg.RegisterApplet(ctx, *in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// LoadAll registers every bundle in the directory in name order. A bad
// bundle does not stop the others; all failures are returned joined.
func (w *Watcher) LoadAll(ctx context.Context) ([]registry.Registration, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := codec.ForFile(e.Name()); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		out  []registry.Registration
		errs []error
	)
	for _, name := range names {
		r, err := LoadFile(ctx, w.reg, filepath.Join(w.dir, name))
		if err != nil {
			w.logger.Warn("bundle not registered", "file", name, "error", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, *r)
	}
	return out, errors.Join(errs...)
}

// Watch registers bundles as they are written. It blocks until ctx is
// cancelled or the watcher fails.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching for bundles")

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if _, ok := codec.ForFile(event.Name); !ok {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				r, err := LoadFile(ctx, w.reg, path)
				if err != nil {
					w.logger.Warn("bundle not registered", "file", filepath.Base(path), "error", err)
					return
				}
				w.logger.Info("bundle loaded", "file", filepath.Base(path),
					"applet", r.Config.Name, "address", r.Address, "created", r.Created)
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
