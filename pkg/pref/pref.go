// Package pref provides user preferences that persist across sessions.
//
// A preference has a key and a default. Binding it to a Store loads the
// persisted value and writes every later Set back. Concurrent writers are
// reconciled last-write-wins on the update timestamp.
//
// Example:
//
//	theme := pref.NewTheme()
//	if err := theme.Bind(ctx, db, clientKey); err != nil {
//		return err
//	}
//	theme.OnChange(func(t pref.Theme) { pref.ApplyTheme(doc, t) })
//	theme.Set(theme.Get().Toggle())
package pref

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Record is the persisted form of a preference.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists preference records per owner (a client key).
type Store interface {
	GetPref(ctx context.Context, owner, key string) (Record, bool, error)
	SetPref(ctx context.Context, owner string, rec Record) error
}

// PrefOption is a functional option for configuring preferences.
type PrefOption func(*prefConfig)

type prefConfig struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock sets the time source used for update timestamps.
func WithClock(now func() time.Time) PrefOption {
	return func(c *prefConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for persistence failures.
func WithLogger(logger *slog.Logger) PrefOption {
	return func(c *prefConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Pref represents a user preference.
type Pref[T any] struct {
	key       string
	value     T
	defaults  T
	updatedAt time.Time
	config    prefConfig

	mu sync.RWMutex

	store     Store
	owner     string
	listeners []func(T)
}

// New creates a new preference with the given key and default value.
func New[T any](key string, defaultValue T, opts ...PrefOption) *Pref[T] {
	config := prefConfig{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Pref[T]{
		key:      key,
		value:    defaultValue,
		defaults: defaultValue,
		config:   config,
	}
}

// Get returns the current preference value.
func (p *Pref[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set updates the preference value, notifies listeners and persists it
// when bound. Persistence failures are logged; the in-memory value stands.
func (p *Pref[T]) Set(value T) {
	p.mu.Lock()
	p.value = value
	p.updatedAt = p.config.now()
	updatedAt := p.updatedAt
	store, owner := p.store, p.owner
	listeners := append([]func(T){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}

	if store != nil {
		if err := p.persist(context.Background(), store, owner, value, updatedAt); err != nil {
			p.config.logger.Warn("pref persist failed", "key", p.key, "owner", owner, "error", err)
		}
	}
}

// Reset resets the preference to its default value.
func (p *Pref[T]) Reset() {
	p.Set(p.defaults)
}

// Key returns the preference key.
func (p *Pref[T]) Key() string {
	return p.key
}

// UpdatedAt returns when the preference was last updated. It is zero
// until the first Set, so any stored value wins a last-write-wins merge
// against the default.
func (p *Pref[T]) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}

// OnChange registers fn to run after every Set and every remote value
// that wins the merge.
func (p *Pref[T]) OnChange(fn func(T)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// SetFromRemote applies a value from a remote source (the store or
// another session) when it is newer than the local one. It reports
// whether the remote value won.
func (p *Pref[T]) SetFromRemote(value T, remoteUpdatedAt time.Time) bool {
	p.mu.Lock()
	if !remoteUpdatedAt.After(p.updatedAt) {
		p.mu.Unlock()
		return false
	}
	p.value = value
	p.updatedAt = remoteUpdatedAt
	listeners := append([]func(T){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}
	return true
}

// Bind attaches the preference to store under owner and merges in the
// stored value, if any.
func (p *Pref[T]) Bind(ctx context.Context, store Store, owner string) error {
	p.mu.Lock()
	p.store = store
	p.owner = owner
	p.mu.Unlock()

	rec, found, err := store.GetPref(ctx, owner, p.key)
	if err != nil {
		return fmt.Errorf("load pref %q: %w", p.key, err)
	}
	if !found {
		return nil
	}

	var value T
	if err := json.Unmarshal(rec.Value, &value); err != nil {
		return fmt.Errorf("decode pref %q: %w", p.key, err)
	}
	p.SetFromRemote(value, rec.UpdatedAt)
	return nil
}

func (p *Pref[T]) persist(ctx context.Context, store Store, owner string, value T, updatedAt time.Time) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.SetPref(ctx, owner, Record{Key: p.key, Value: raw, UpdatedAt: updatedAt})
}
