// Package tailer follows a growing log file across truncation and
// rotation, in the manner of tail -F.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// errBuffer is the size of the error channel buffer.
const errBuffer = 16

// Config controls how a file is followed.
type Config struct {
	// FromStart reads existing content before following. Default: start at
	// the end of the file.
	FromStart bool

	// Poll uses stat polling instead of inotify/kqueue. Needed on some
	// network and container filesystems.
	Poll bool

	// MustExist fails immediately when the file is missing instead of
	// waiting for it to appear.
	MustExist bool
}

// DefaultConfig returns the live-tail configuration.
func DefaultConfig() Config {
	return Config{MustExist: true}
}

// Tailer delivers non-empty lines of a file one at a time. Lines is
// unbuffered: the file is not read further until the previous line has
// been received.
type Tailer struct {
	t      *tail.Tail
	lines  chan string
	errs   chan error
	done   chan struct{}
	cancel context.CancelFunc

	stopOnce sync.Once
	stopErr  error
}

// New starts following path.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	whence := io.SeekEnd
	if cfg.FromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		ReOpen:    true,
		Follow:    true,
		MustExist: cfg.MustExist,
		Poll:      cfg.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tailing %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan string),
		errs:   make(chan error, errBuffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go tl.run(ctx)
	return tl, nil
}

// Lines returns the line channel. It is closed when the tailer stops.
func (tl *Tailer) Lines() <-chan string { return tl.lines }

// Errors returns read errors. It is closed when the tailer stops.
func (tl *Tailer) Errors() <-chan error { return tl.errs }

// Stop stops following and waits for the reader goroutine to exit.
// Safe to call more than once.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		tl.cancel()
		tl.stopErr = tl.t.Stop()
		<-tl.done
		tl.t.Cleanup()
	})
	return tl.stopErr
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.lines)
	defer close(tl.errs)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				select {
				case tl.errs <- line.Err:
				default:
				}
				continue
			}
			text := strings.TrimRight(line.Text, "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}
			select {
			case tl.lines <- text:
			case <-ctx.Done():
				return
			}
		}
	}
}
