package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Keys persisted per visitor
const (
	KeyCart    = "cart"
	KeyUsers   = "users"
	KeySession = "session"
	KeyTheme   = "theme"
	KeyInvoice = "invoice"
	KeyNotices = "notices"
)

var ErrNotFound = errors.New("key not found")

// ErrUnchanged may be returned by an Update function to skip the write.
// Update then returns nil.
var ErrUnchanged = errors.New("value unchanged")

// Backend is a raw key-value store. Get returns ErrNotFound for missing keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Updater is implemented by backends that can read-modify-write one key
// atomically across processes. fn may run more than once.
type Updater interface {
	Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error
}

// Store hands out per-visitor facades over a shared backend
type Store struct {
	backend Backend
	locks   *clientLocks
	logger  *zap.Logger
}

// NewStore creates a new Store
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{backend: backend, locks: newClientLocks(), logger: logger}
}

// For returns the facade scoped to one visitor
func (s *Store) For(clientID string) *Facade {
	return &Facade{
		backend:  s.backend,
		clientID: clientID,
		locks:    s.locks,
		prefix:   "client:" + clientID + ":",
		logger:   s.logger.With(zap.String("client_id", clientID)),
	}
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Facade wraps a backend with JSON encoding and namespaced keys
type Facade struct {
	backend  Backend
	clientID string
	locks    *clientLocks
	prefix   string
	logger   *zap.Logger
}

// Get decodes the value stored under key into dst.
// Missing and malformed values both report found=false without an error.
func (f *Facade) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := f.backend.Get(ctx, f.prefix+key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		f.logger.Warn("Discarding malformed stored value",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}

	return true, nil
}

// Set encodes value as JSON and stores it under key
func (f *Facade) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	if err := f.backend.Set(ctx, f.prefix+key, raw); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (f *Facade) Remove(ctx context.Context, key string) error {
	if err := f.backend.Delete(ctx, f.prefix+key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// GetOr returns the stored value for key or def when it is absent
func GetOr[T any](ctx context.Context, f *Facade, key string, def T) (T, error) {
	var v T
	found, err := f.Get(ctx, key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// Update replaces the value under key with fn(current). current is def when
// the key is missing or malformed. Updates for one visitor are serialized,
// so concurrent requests never overwrite each other's changes. An error
// from fn is returned as is and nothing is written.
func Update[T any](ctx context.Context, f *Facade, key string, def T, fn func(current T) (T, error)) error {
	unlock := f.locks.lock(f.clientID)
	defer unlock()

	apply := func(raw []byte, found bool) ([]byte, error) {
		current := def
		if found {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				f.logger.Warn("Discarding malformed stored value",
					zap.String("key", key),
					zap.Error(err),
				)
			} else {
				current = v
			}
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", key, err)
		}
		return out, nil
	}

	if u, ok := f.backend.(Updater); ok {
		if err := u.Update(ctx, f.prefix+key, apply); err != nil && !errors.Is(err, ErrUnchanged) {
			return err
		}
		return nil
	}

	raw, err := f.backend.Get(ctx, f.prefix+key)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to read %q: %w", key, err)
	}

	out, err := apply(raw, found)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := f.backend.Set(ctx, f.prefix+key, out); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// clientLocks hands out one mutex per visitor, dropped when unused
type clientLocks struct {
	mu    sync.Mutex
	locks map[string]*clientLock
}

type clientLock struct {
	mu   sync.Mutex
	refs int
}

func newClientLocks() *clientLocks {
	return &clientLocks{locks: make(map[string]*clientLock)}
}

func (l *clientLocks) lock(clientID string) (unlock func()) {
	l.mu.Lock()
	cl, ok := l.locks[clientID]
	if !ok {
		cl = &clientLock{}
		l.locks[clientID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()

		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, clientID)
		}
		l.mu.Unlock()
	}
}
