package vhnotify

import (
	"errors"
	"fmt"

	"github.com/vhnotify/vhnotify-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyWatching is returned by a second call to Watch.
	ErrAlreadyWatching = errors.New("watch already called")

	// ErrLogFileNotFound is returned when no server log can be located.
	ErrLogFileNotFound = logfinder.ErrLogFileNotFound

	// ErrNoSink is returned when a watcher is built without a Sink.
	ErrNoSink = errors.New("no sink configured")
)

// WatchOp names the watcher step that failed.
type WatchOp string

const (
	WatchOpFind   WatchOp = "find"
	WatchOpTail   WatchOp = "tail"
	WatchOpRender WatchOp = "render"
	WatchOpReplay WatchOp = "replay"
)

// WatchError reports a failure while locating, following or processing the
// log.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("vhnotify: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vhnotify: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// DeliveryError reports a rendered message the Sink failed to deliver.
// The message is lost.
type DeliveryError struct {
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("vhnotify: delivering %q: %v", e.Message, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
