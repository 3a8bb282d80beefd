package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type handlerFunc func(ctx context.Context, path string) error

// dirWatcher dispatches newly dropped transcript files to a handler, at most
// maxConcurrent at a time. Transcripts run concurrently with each other; the
// pipeline inside one transcript stays sequential.
type dirWatcher struct {
	inputDir  string
	handler   handlerFunc
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
	settle    time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
}

func newDirWatcher(inputDir string, handler handlerFunc, logger *slog.Logger, maxConcurrent int, settle time.Duration) (*dirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	return &dirWatcher{
		inputDir:  inputDir,
		handler:   handler,
		logger:    logger,
		watcher:   watcher,
		settle:    settle,
		semaphore: make(chan struct{}, maxConcurrent),
	}, nil
}

// sweep dispatches transcripts already sitting in the input directory. Create
// events only cover files dropped after the watch starts.
func (w *dirWatcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.inputDir, entry.Name())
		if !isTranscriptFile(path) {
			continue
		}
		w.logger.Info("found existing transcript", "path", path)
		if !w.dispatch(ctx, path) {
			return ctx.Err()
		}
	}
	return nil
}

func (w *dirWatcher) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("waiting for in-flight transcripts")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Op.Has(fsnotify.Create) || !isTranscriptFile(event.Name) {
				continue
			}
			w.logger.Info("transcript detected", "path", event.Name)

			// Give the producer a moment to finish writing.
			time.Sleep(w.settle)

			if !w.dispatch(ctx, event.Name) {
				w.wg.Wait()
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watch error", "error", err.Error())
		}
	}
}

// dispatch hands a transcript to the handler on its own goroutine once a
// semaphore slot frees up. Returns false when the context ended first.
func (w *dirWatcher) dispatch(ctx context.Context, path string) bool {
	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error("transcript failed", "path", path, "error", err.Error())
		}
	}()
	return true
}

func (w *dirWatcher) close() error {
	return w.watcher.Close()
}

func isTranscriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}
