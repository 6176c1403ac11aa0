package vhnotify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vhnotify/vhnotify-go/internal/logfinder"
	"github.com/vhnotify/vhnotify-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
// A small buffer prevents error loss during brief moments when the consumer
// is busy, while keeping memory usage minimal.
const watcherErrBuffer = 16

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Watcher follows a Valheim server log and delivers notifications.
type Watcher struct {
	cfg     *watchConfig // immutable after creation
	logFile string
	proc    *processor
	log     *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc // cancel func to stop the goroutine
	doneCh   chan struct{}      // signals when goroutine has exited
	watching bool               // true if Watch() has been called
}

// NewWatcherWithOptions creates a watcher. The log file is located here, so
// a missing log is reported before any goroutine starts.
//
// Returns ErrNoSink if no Sink was given and an error wrapping
// ErrLogFileNotFound if the log cannot be located.
func NewWatcherWithOptions(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.sink == nil {
		return nil, ErrNoSink
	}

	logFile, err := logfinder.FindLogFile(cfg.logFile)
	if err != nil {
		return nil, &WatchError{Op: WatchOpFind, Path: cfg.logFile, Err: err}
	}

	proc, err := newProcessor(cfg)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cfg:     cfg,
		logFile: logFile,
		proc:    proc,
		log:     cfg.logger,
	}, nil
}

// LogFile returns the path being followed.
func (w *Watcher) LogFile() string {
	return w.logFile
}

// Engine returns the watcher's engine. Its State must not be read while
// the watcher is running.
func (w *Watcher) Engine() *Engine {
	return w.proc.engine
}

// Watch starts following the log in a new goroutine and returns its error
// channel. Lines are handled strictly one at a time: every notification of
// a line is delivered before the next line is read.
//
// The channel receives WatchError and DeliveryError values and is closed
// when ctx is cancelled, Close is called or the tailer fails to start.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	errCh := make(chan error, watcherErrBuffer)
	go w.run(ctx, errCh)

	return errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(errCh)

	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.fromStart
	cfg.Poll = w.cfg.poll

	t, err := tailer.New(ctx, w.logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.logFile, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Info("watching log", "path", w.logFile, "from_start", cfg.FromStart)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, line, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.logFile, Err: err})
		}
	}
}

// processLine finishes the line even if ctx is cancelled meanwhile.
func (w *Watcher) processLine(ctx context.Context, line string, errCh chan<- error) {
	_, err := w.proc.processLine(context.WithoutCancel(ctx), line)
	if err == nil {
		return
	}
	for _, e := range unjoin(err) {
		sendError(ctx, errCh, e)
	}
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// sendError sends an error to the error channel.
// With a buffered channel, errors are only dropped if the buffer is full.
// The context case ensures we don't block during shutdown.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}

// WatchWithOptions creates a watcher and starts it. The watcher stops when
// ctx is cancelled; the returned channel closes once it has exited.
func WatchWithOptions(ctx context.Context, opts ...WatchOption) (<-chan error, error) {
	w, err := NewWatcherWithOptions(opts...)
	if err != nil {
		return nil, err
	}
	errs, err := w.Watch(ctx)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return errs, nil
}
