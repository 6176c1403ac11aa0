package identity

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single network lookup.
const DefaultTimeout = 5 * time.Second

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option configures a Resolver.
type Option func(*Resolver)

// WithStore sets the persistent cache.
func WithStore(s Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithFetcher sets the network lookup. Without one, only cached names resolve.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithTimeout bounds each network lookup and cache write.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver serves display names from memory, falling back to a Fetcher and
// persisting what it finds. It is safe for concurrent use.
type Resolver struct {
	store   Store
	fetcher Fetcher
	timeout time.Duration
	log     *slog.Logger

	mu    sync.RWMutex
	names map[string]string
}

// NewResolver builds a resolver and loads the persistent cache. A missing
// or corrupt cache is logged and replaced by an empty one.
func NewResolver(ctx context.Context, opts ...Option) *Resolver {
	r := &Resolver{
		timeout: DefaultTimeout,
		log:     discardLogger,
		names:   make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.store != nil {
		names, err := r.store.Load(ctx)
		if err != nil {
			r.log.Warn("identity cache unavailable, starting empty", "error", err)
		} else {
			r.names = names
			r.log.Debug("identity cache loaded", "names", len(names))
		}
	}
	return r
}

// Lookup returns a cached name.
func (r *Resolver) Lookup(accountID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[accountID]
	return name, ok
}

// Resolve returns a cached name or fetches, caches and persists it.
// Every failure is logged and reported as false.
func (r *Resolver) Resolve(ctx context.Context, accountID string) (string, bool) {
	if name, ok := r.Lookup(accountID); ok {
		return name, true
	}
	if r.fetcher == nil {
		return "", false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	name, err := r.fetcher.FetchName(fetchCtx, accountID)
	if err != nil {
		r.log.Warn("display name lookup failed", "account_id", accountID, "error", err)
		return "", false
	}
	r.log.Info("display name found", "account_id", accountID, "name", name)

	r.mu.Lock()
	r.names[accountID] = name
	r.mu.Unlock()

	if r.store != nil {
		putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.store.Put(putCtx, accountID, name); err != nil {
			r.log.Warn("persisting display name failed", "account_id", accountID, "error", err)
		}
	}
	return name, true
}

// Close releases the persistent store.
func (r *Resolver) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
