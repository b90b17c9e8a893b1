// Package watch feeds newly dropped analysis documents to the processor.
// Documents are processed one at a time; a failed document is logged and
// never stops the loop.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/logging"
)

// settleDelay gives the producer time to finish writing the file before
// we read it; inotify fires on create, not on close.
const settleDelay = 500 * time.Millisecond

// Handler processes one detected document.
type Handler interface {
	ProcessFile(ctx context.Context, path string) error
}

// Watcher watches the inbox directory for analysis documents.
type Watcher struct {
	logger  zerolog.Logger
	handler Handler
}

// New creates a watcher.
func New(logger zerolog.Logger, handler Handler) *Watcher {
	return &Watcher{
		logger:  logger.With().Str("component", "watcher").Logger(),
		handler: handler,
	}
}

// Run watches dir until the context is cancelled. Files already present
// at startup are not reprocessed; only new drops trigger a job.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return err
	}

	logging.Event(w.logger, "watch_start", dir).Msg("watching inbox")

	// Dedup burst events for the same path: create followed by a run of
	// writes should trigger exactly one job.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.FailureEvent(w.logger, "watch_error", "").Err(err).Msg("watch error")

		case <-ticker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				if err := w.handler.ProcessFile(ctx, path); err != nil {
					// Already logged with full context by the processor;
					// the loop just moves on to the next document.
					w.logger.Debug().Str("path", path).Err(err).Msg("document failed")
				}
			}
		}
	}
}
