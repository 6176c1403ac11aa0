package vhnotify

import (
	"bufio"
	"context"
	"io"
)

// maxLineBytes bounds a single log line during replay.
const maxLineBytes = 512 * 1024

// ReplayStats summarizes a Replay run.
type ReplayStats struct {
	Lines         int // non-blank lines read
	Notifications int
	Failures      int // render or delivery failures
}

// Replay feeds every line of r through a fresh engine, in order, exactly as
// the live watcher would. A Sink is optional here; without one messages are
// only rendered and passed to the observer.
//
// Per-line failures are counted, not returned. The error is non-nil only if
// reading r fails or ctx is cancelled.
func Replay(ctx context.Context, r io.Reader, opts ...WatchOption) (ReplayStats, error) {
	var stats ReplayStats

	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return stats, err
	}
	proc, err := newProcessor(cfg)
	if err != nil {
		return stats, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := sc.Text()
		if isBlank(line) {
			continue
		}
		stats.Lines++

		n, err := proc.processLine(ctx, line)
		stats.Notifications += n
		if err != nil {
			stats.Failures += len(unjoin(err))
		}
	}
	if err := sc.Err(); err != nil {
		return stats, &WatchError{Op: WatchOpReplay, Err: err}
	}
	return stats, nil
}
