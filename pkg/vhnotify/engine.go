package vhnotify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vhnotify/vhnotify-go/internal/parser"
	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// Resolver maps platform account ids to display names.
type Resolver interface {
	// Lookup returns a cached display name without blocking.
	Lookup(accountID string) (string, bool)

	// Resolve consults the cache and, on a miss, performs a bounded
	// network lookup. It never returns an error; a false result means the
	// name is unknown and a placeholder should be used.
	Resolve(ctx context.Context, accountID string) (string, bool)
}

type nopResolver struct{}

func (nopResolver) Lookup(string) (string, bool)                    { return "", false }
func (nopResolver) Resolve(context.Context, string) (string, bool) { return "", false }

// handler is a transition function for one line kind. It may mutate st and
// returns the notifications the transition produces.
type handler func(e *Engine, ctx context.Context, st *State, l logLine) []event.Notification

// handlers maps each classifier kind to its transition.
var handlers = map[event.Kind]handler{
	event.ObjectID:        (*Engine).onObjectID,
	event.NetworkTrouble:  (*Engine).onNetworkTrouble,
	event.DisconnectStart: (*Engine).onDisconnectStart,
	event.DisconnectInfo:  (*Engine).onDisconnectInfo,
	event.DisconnectEnd:   (*Engine).onDisconnectEnd,
	event.Day:             (*Engine).onDay,
	event.LoadWorld:       (*Engine).onLoadWorld,
	event.ApplicationQuit: (*Engine).onApplicationQuit,
	event.RandomEvent:     (*Engine).onRandomEvent,
	event.ServerVersion:   (*Engine).onServerVersion,
	event.TroubleResolved: (*Engine).onTroubleResolved,
	event.Connection:      (*Engine).onConnection,
}

// logLine is a classified line handed to handlers.
type logLine struct {
	text string
	ts   time.Time
}

func (l logLine) notification(t event.Type) event.Notification {
	return event.Notification{Type: t, Timestamp: l.ts}
}

// Engine correlates log lines into notifications.
//
// An Engine owns its State and must be driven from a single goroutine, one
// line at a time, in file order.
type Engine struct {
	state    *State
	resolver Resolver
	log      *slog.Logger
}

// NewEngine creates an engine with an empty session.
// A nil resolver leaves every account name unknown; a nil logger discards.
func NewEngine(resolver Resolver, logger *slog.Logger) *Engine {
	if resolver == nil {
		resolver = nopResolver{}
	}
	if logger == nil {
		logger = discardLogger
	}
	return &Engine{
		state:    NewState(),
		resolver: resolver,
		log:      logger,
	}
}

// State exposes the session for inspection. Callers must not use it
// concurrently with HandleLine.
func (e *Engine) State() *State {
	return e.state
}

// HandleLine classifies line and applies every matching handler in rule
// order, returning the notifications produced. Unrecognized and blank lines
// yield nil.
func (e *Engine) HandleLine(ctx context.Context, line string) []event.Notification {
	line = parser.Normalize(line)
	if isBlank(line) {
		return nil
	}

	kinds := parser.Classify(line)
	if len(kinds) == 0 {
		return nil
	}

	l := logLine{text: line}
	if ts, ok := parser.Timestamp(line); ok {
		l.ts = ts
	}

	var out []event.Notification
	for _, k := range kinds {
		h, ok := handlers[k]
		if !ok {
			continue
		}
		out = append(out, h(e, ctx, e.state, l)...)
	}
	return out
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// userName returns the cached display name for an account, or "".
func (e *Engine) userName(accountID string) string {
	name, ok := e.resolver.Lookup(accountID)
	if !ok {
		return ""
	}
	return name
}
