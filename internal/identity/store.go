// Package identity resolves platform account ids to display names and keeps
// a persistent cache of the names it has seen.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vhnotify/vhnotify-go/internal/safefile"
)

// MaxCacheFileSize bounds the JSON cache file read at startup.
const MaxCacheFileSize = 4 * 1024 * 1024

// ErrCorruptCache is returned by JSONStore.Load when the file is not a JSON
// object of strings.
var ErrCorruptCache = errors.New("corrupt identity cache")

// Store persists account id -> display name pairs.
type Store interface {
	// Load returns every stored name. A non-nil error means the store is
	// unusable as a starting point; callers fall back to an empty cache.
	Load(ctx context.Context) (map[string]string, error)

	// Put records one name.
	Put(ctx context.Context, accountID, name string) error

	Close() error
}

// JSONStore keeps names in a single JSON object file, the format produced
// by earlier notifier deployments ({"7656119...": "name"}).
type JSONStore struct {
	path string

	mu    sync.Mutex
	names map[string]string
}

// NewJSONStore returns a store backed by path. The file is not touched
// until Load or Put.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, names: make(map[string]string)}
}

// Load implements Store.
func (s *JSONStore) Load(ctx context.Context) (map[string]string, error) {
	data, err := safefile.ReadRegular(s.path, MaxCacheFileSize)
	if err != nil {
		return nil, fmt.Errorf("reading identity cache: %w", err)
	}

	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}
	if names == nil {
		names = make(map[string]string)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = names
	out := make(map[string]string, len(names))
	for k, v := range names {
		out[k] = v
	}
	return out, nil
}

// Put implements Store. The whole file is rewritten atomically.
func (s *JSONStore) Put(ctx context.Context, accountID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[accountID] = name
	data, err := json.MarshalIndent(s.names, "", "  ")
	if err != nil {
		return err
	}
	if err := safefile.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing identity cache: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }
