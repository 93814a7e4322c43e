// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch re-runs a pipeline whenever an input dataset file
// changes, for `mripipes run --watch`.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single input file's directory (fsnotify watches
// directories reliably across editors that replace-on-save; watching the
// file itself misses atomic-rename writes) and reports writes/creates of
// that file.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan string
	logger  *slog.Logger
}

// New builds a watcher for path, which must already exist.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", filepath.Dir(absPath), err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:    absPath,
		watcher: fsw,
		events:  make(chan string, 8),
		logger:  logger.With(slog.String("component", "watch"), slog.String("path", absPath)),
	}, nil
}

// Events returns a channel receiving the watched path every time it is
// written or recreated. Closed when Run's context is cancelled.
func (w *Watcher) Events() <-chan string { return w.events }

// Run drains fsnotify events until ctx is cancelled, forwarding the ones
// that touch the watched path onto Events.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case w.events <- ev.Name:
			default:
				w.logger.Warn("run dropped: watcher already has a pending rerun")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}
